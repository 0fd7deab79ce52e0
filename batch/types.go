package batch

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emptyOVO/textjobs/batch/mysql_batch"
	"github.com/emptyOVO/textjobs/batch/redis_batch"
	"github.com/emptyOVO/textjobs/mrapps"
	"github.com/emptyOVO/textjobs/worker"
	_ "github.com/go-sql-driver/mysql"
)

// DBConfig defines MySQL connection parameters.
type DBConfig struct {
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	User     string            `json:"user"`
	Password string            `json:"password"`
	Database string            `json:"database"`
	Params   map[string]string `json:"params"`
}

func (c DBConfig) dsn() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	params := map[string]string{
		"parseTime": "true",
		"charset":   "utf8mb4",
	}
	for k, v := range c.Params {
		params[k] = v
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.User,
		c.Password,
		host,
		port,
		c.Database,
		strings.Join(parts, "&"),
	)
}

func openDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.User == "" {
		return nil, fmt.Errorf("db user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("db database is required")
	}
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type MySQLSinkConfig = mysql_batch.SinkConfig
type RedisConnConfig = redis_batch.ConnConfig
type RedisSinkConfig = redis_batch.SinkConfig

const (
	SinkFile  = "file"
	SinkMySQL = "mysql"
	SinkRedis = "redis"
)

// FlowConfig describes one job run: inputs -> job -> sink.
type FlowConfig struct {
	Version   string              `json:"version"`
	Job       string              `json:"job"`
	Inputs    []string            `json:"inputs"`
	Output    string              `json:"output"`
	Transform FlowTransformConfig `json:"transform"`
	Params    mrapps.Params       `json:"params"`
	Sink      FlowSinkConfig      `json:"sink"`
}

type FlowTransformConfig struct {
	Reducers  int  `json:"reducers"`
	Workers   int  `json:"workers"`
	NoCombine bool `json:"no_combine"`
}

type FlowSinkConfig struct {
	Type        string          `json:"type"`
	DB          DBConfig        `json:"db"`
	Redis       RedisConnConfig `json:"redis"`
	Config      MySQLSinkConfig `json:"config"`
	RedisConfig RedisSinkConfig `json:"redis_config"`
}

func (c *FlowConfig) withDefaults() {
	if c.Version == "" {
		c.Version = FlowVersionV1
	}
	if c.Sink.Type == "" {
		c.Sink.Type = SinkFile
	}
	if c.Transform.Reducers <= 0 {
		c.Transform.Reducers = 1
	}
	if c.Transform.Workers <= 0 {
		c.Transform.Workers = 4
	}
	c.Sink.Config.WithDefaults()
	c.Sink.RedisConfig.WithDefaults()
}

func (c FlowConfig) options() worker.Options {
	return worker.Options{
		Reducers: c.Transform.Reducers,
		Workers:  c.Transform.Workers,
		Combine:  !c.Transform.NoCombine,
	}
}

// FlowBenchmarkResult captures read/transform/write stage durations.
type FlowBenchmarkResult struct {
	RunID             string
	ReadDuration      time.Duration
	TransformDuration time.Duration
	WriteDuration     time.Duration
	TotalDuration     time.Duration
	Stats             worker.Stats
}
