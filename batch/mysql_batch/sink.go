package mysql_batch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emptyOVO/textjobs/worker"
	log "github.com/sirupsen/logrus"
)

// ImportRecords writes records into the target table inside one
// transaction, batching inserts and upserting on key.
func ImportRecords(ctx context.Context, db *sql.DB, cfg SinkConfig, records []worker.KV) error {
	cfg.WithDefaults()
	if cfg.TargetTable == "" {
		return fmt.Errorf("target table is required")
	}

	table, err := quoteIdentifier(cfg.TargetTable)
	if err != nil {
		return err
	}
	keyCol, err := quoteIdentifier(cfg.KeyColumn)
	if err != nil {
		return err
	}
	valCol, err := quoteIdentifier(cfg.ValColumn)
	if err != nil {
		return err
	}

	if err := checkKeys(records); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(table, keyCol, valCol)); err != nil {
		return err
	}

	if cfg.Replace {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return err
		}
	}

	for start := 0; start < len(records); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		args := make([]interface{}, 0, len(batch)*2)
		for _, kv := range batch {
			args = append(args, kv.Key, kv.Value)
		}
		if _, err := tx.ExecContext(ctx, insertSQL(table, keyCol, valCol, len(batch)), args...); err != nil {
			return err
		}
		log.Tracef("[MySQLSink] inserted rows %d..%d into %s", start, end, cfg.TargetTable)
	}

	return tx.Commit()
}
