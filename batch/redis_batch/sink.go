package redis_batch

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emptyOVO/textjobs/worker"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func newClient(cfg ConnConfig) *redis.Client {
	cfg.WithDefaults()
	return redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
}

// ImportRecords stores every record with HSET, pipelining cfg.Pipeline
// commands per round trip.
func ImportRecords(ctx context.Context, connCfg ConnConfig, cfg SinkConfig, records []worker.KV) error {
	cfg.WithDefaults()
	rdb := newClient(connCfg)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	if cfg.Replace {
		if err := deletePrefix(ctx, rdb, cfg.KeyPrefix); err != nil {
			return err
		}
	}

	for start := 0; start < len(records); start += cfg.Pipeline {
		end := start + cfg.Pipeline
		if end > len(records) {
			end = len(records)
		}
		pipe := rdb.Pipeline()
		for _, kv := range records[start:end] {
			pipe.HSet(ctx, cfg.KeyPrefix+kv.Key, cfg.ValueField, kv.Value)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	log.Debugf("[RedisSink] stored %d records under %s", len(records), cfg.KeyPrefix)
	return nil
}

const delBatch = 1000

// deletePrefix removes every key starting with prefix. The prefix is
// matched literally.
func deletePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	iter := rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", delBatch).Iterator()
	keys := make([]string, 0, delBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == delBatch {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return rdb.Del(ctx, keys...).Err()
	}
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
