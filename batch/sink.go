package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/emptyOVO/textjobs/batch/mysql_batch"
	"github.com/emptyOVO/textjobs/batch/redis_batch"
	"github.com/emptyOVO/textjobs/mrapps"
	"github.com/emptyOVO/textjobs/worker"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const successMarker = "_SUCCESS"

// Sink accepts the reduced records of a job, one slice per partition.
type Sink interface {
	Write(ctx context.Context, partitions [][]worker.KV) error
}

// FileSink writes part-r-NNNNN files into Dir, or a single file named File
// holding every record sorted by key.
type FileSink struct {
	Dir  string
	File string
}

func partName(id int) string {
	return fmt.Sprintf("part-r-%05d", id)
}

func (s FileSink) Write(ctx context.Context, partitions [][]worker.KV) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: s.Dir, Err: err}
	}
	unlock, err := lockDir(s.Dir)
	if err != nil {
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: s.Dir, Err: err}
	}
	defer unlock()

	cleanupOutputs(s.Dir, s.File)

	if s.File != "" {
		var all []worker.KV
		for _, p := range partitions {
			all = append(all, p...)
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].Key < all[j].Key })
		if err := s.writeFile(s.File, all); err != nil {
			return err
		}
	} else {
		for id, p := range partitions {
			if err := ctx.Err(); err != nil {
				return &worker.PhaseError{Phase: worker.PhaseWrite, Path: s.Dir, Err: err}
			}
			if err := s.writeFile(partName(id), p); err != nil {
				return err
			}
		}
	}
	return s.writeFile(successMarker, nil)
}

// writeFile writes records under a temporary name and renames, so readers
// never see a partial output file.
func (s FileSink) writeFile(name string, records []worker.KV) error {
	target := filepath.Join(s.Dir, name)
	tmp := filepath.Join(s.Dir, fmt.Sprintf(".%s.%s.tmp", name, uuid.New().String()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: target, Err: err}
	}
	err = worker.WriteRecords(f, records)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, target)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: target, Err: err}
	}
	log.Tracef("[FileSink] wrote %s (%d records)", target, len(records))
	return nil
}

// cleanupOutputs removes results of an earlier run so they cannot mix
// with this one.
func cleanupOutputs(dir, file string) {
	olds, _ := filepath.Glob(filepath.Join(dir, "part-r-*"))
	olds = append(olds, filepath.Join(dir, successMarker))
	if file != "" {
		olds = append(olds, filepath.Join(dir, file))
	}
	for _, f := range olds {
		_ = os.Remove(f)
	}
}

type MySQLSink struct {
	DB     DBConfig
	Config MySQLSinkConfig
}

func (s MySQLSink) Write(ctx context.Context, partitions [][]worker.KV) error {
	db, err := openDB(ctx, s.DB)
	if err != nil {
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: s.Config.TargetTable, Err: err}
	}
	defer db.Close()
	if err := mysql_batch.ImportRecords(ctx, db, s.Config, flatten(partitions)); err != nil {
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: s.Config.TargetTable, Err: err}
	}
	return nil
}

type RedisSink struct {
	Conn   RedisConnConfig
	Config RedisSinkConfig
}

func (s RedisSink) Write(ctx context.Context, partitions [][]worker.KV) error {
	if err := redis_batch.ImportRecords(ctx, s.Conn, s.Config, flatten(partitions)); err != nil {
		return &worker.PhaseError{Phase: worker.PhaseWrite, Path: s.Config.KeyPrefix, Err: err}
	}
	return nil
}

func flatten(partitions [][]worker.KV) []worker.KV {
	var out []worker.KV
	for _, p := range partitions {
		out = append(out, p...)
	}
	return out
}

func newSink(cfg FlowConfig) (Sink, error) {
	switch cfg.Sink.Type {
	case SinkFile:
		return FileSink{Dir: cfg.Output, File: mrapps.OutputFile(cfg.Job, cfg.Params)}, nil
	case SinkMySQL:
		return MySQLSink{DB: cfg.Sink.DB, Config: cfg.Sink.Config}, nil
	case SinkRedis:
		return RedisSink{Conn: cfg.Sink.Redis, Config: cfg.Sink.RedisConfig}, nil
	}
	return nil, fmt.Errorf("unsupported sink.type: %s", cfg.Sink.Type)
}
