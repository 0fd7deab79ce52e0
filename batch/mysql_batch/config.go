package mysql_batch

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/emptyOVO/textjobs/worker"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SinkConfig configures writing job output records into a MySQL table.
type SinkConfig struct {
	TargetTable string `json:"targettable"`
	KeyColumn   string `json:"keycolumn"`
	ValColumn   string `json:"valcolumn"`
	Replace     bool   `json:"replace"`
	BatchSize   int    `json:"batchsize"`
}

func (c *SinkConfig) WithDefaults() {
	if c.KeyColumn == "" {
		c.KeyColumn = "record_key"
	}
	if c.ValColumn == "" {
		c.ValColumn = "record_value"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 2000
	}
}

func quoteIdentifier(s string) (string, error) {
	if !identifierRe.MatchString(s) {
		return "", fmt.Errorf("invalid identifier: %s", s)
	}
	return "`" + s + "`", nil
}

// maxKeyChars bounds record keys so the utf8mb4 primary key stays under the
// InnoDB index limit.
const maxKeyChars = 768

// createTableSQL keys on a binary collation so words differing only by case
// or accent ("más", "mas") remain distinct rows.
func createTableSQL(table, keyCol, valCol string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s VARCHAR(%d) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
  %s TEXT CHARACTER SET utf8mb4 NOT NULL,
  PRIMARY KEY (%s)
)`, table, keyCol, maxKeyChars, valCol, keyCol)
}

func checkKeys(records []worker.KV) error {
	for _, kv := range records {
		if n := utf8.RuneCountInString(kv.Key); n > maxKeyChars {
			return fmt.Errorf("record key %.32q... has %d characters, mysql sink accepts at most %d", kv.Key, n, maxKeyChars)
		}
	}
	return nil
}

func insertSQL(table, keyCol, valCol string, rows int) string {
	valueSQL := make([]string, rows)
	for i := range valueSQL {
		valueSQL[i] = "(?, ?)"
	}
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES %s ON DUPLICATE KEY UPDATE %s=VALUES(%s)",
		table, keyCol, valCol, strings.Join(valueSQL, ","), valCol, valCol)
}
