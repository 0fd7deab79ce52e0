package mapreduce

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/emptyOVO/textjobs/batch"
	"github.com/emptyOVO/textjobs/mrapps"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type cliOptions struct {
	reducers    int
	workers     int
	combine     bool
	categories  []string
	include     string
	exclude     string
	columns     []string
	minLength   int
	minFiles    int
	outputFile  string
	sink        string
	table       string
	redisPrefix string
	configPath  string
	checkOnly   bool
	bench       bool
	logLevel    string
	timeout     time.Duration
}

// NewRootCmd builds the textjobs command line.
func NewRootCmd() *cobra.Command {
	var o cliOptions
	var rootCmd = &cobra.Command{
		Use:   "textjobs <job-name> <input-dir> <output-dir>",
		Short: "Batch text analysis jobs on an in-process map/group/reduce engine",
		Long: `textjobs scans a corpus of text files and runs one of the built-in jobs:

  count      word frequency over every file
  setdiff    words seen in the include category but never in the exclude category
  index      inverted index, word -> files it appears in
  crossfile  per-file counts of long words found in at least two files

Records are written as key<TAB>value lines into part-r-NNNNN files of the
output directory (crossfile writes a single Q4_wc.csv).`,
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(o.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)

			cfg, err := buildFlowConfig(cmd, o, args)
			if err != nil {
				return err
			}
			if err := batch.ValidateFlowConfig(cfg); err != nil {
				return err
			}
			if o.checkOnly {
				fmt.Fprintln(cmd.OutOrStdout(), "config check pass")
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			result, err := StartSingleMachineBenchmark(ctx, cfg)
			if err != nil {
				return err
			}
			if o.bench {
				fmt.Fprintf(cmd.OutOrStdout(), "read=%s transform=%s write=%s total=%s records=%d\n",
					result.ReadDuration, result.TransformDuration, result.WriteDuration, result.TotalDuration, result.Stats.Records)
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&o.reducers, "reduce", "r", 1, "Number of reduce partitions (output part files)")
	flags.IntVarP(&o.workers, "worker", "w", 4, "Number of concurrent map workers")
	flags.BoolVar(&o.combine, "combine", true, "Pre-aggregate per input file when the job has a combiner")
	flags.StringArrayVar(&o.categories, "category", nil, "setdiff file category as match=tag, first match wins (repeatable)")
	flags.StringVar(&o.include, "include", "", "setdiff category a word must appear in (default pg46)")
	flags.StringVar(&o.exclude, "exclude", "", "setdiff category a word must not appear in (default pg100)")
	flags.StringSliceVar(&o.columns, "column", nil, "crossfile file columns in output order (default pg100.txt,pg46.txt,el_quijote.txt)")
	flags.IntVar(&o.minLength, "min-length", 0, "crossfile minimum word length (default 4)")
	flags.IntVar(&o.minFiles, "min-files", 0, "crossfile minimum number of distinct files (default 2)")
	flags.StringVar(&o.outputFile, "output-file", "", "Write all records into this single file of the output directory")
	flags.StringVar(&o.sink, "sink", batch.SinkFile, "Output sink: file|mysql|redis")
	flags.StringVar(&o.table, "table", "", "Target table for the mysql sink")
	flags.StringVar(&o.redisPrefix, "redis-prefix", "", "Key prefix for the redis sink")
	flags.StringVar(&o.configPath, "config", "", "Flow config file path (JSON)")
	flags.BoolVar(&o.checkOnly, "check", false, "Validate the configuration only")
	flags.BoolVar(&o.bench, "bench", false, "Print stage durations")
	flags.StringVar(&o.logLevel, "log-level", "info", "Log level: trace|debug|info|warn|error")
	flags.DurationVar(&o.timeout, "timeout", 2*time.Hour, "Abort the job after this long")

	return rootCmd
}

func buildFlowConfig(cmd *cobra.Command, o cliOptions, args []string) (batch.FlowConfig, error) {
	var cfg batch.FlowConfig
	if o.configPath != "" {
		var err error
		if cfg, err = loadFlowConfig(o.configPath); err != nil {
			return cfg, err
		}
	}
	changed := cmd.Flags().Changed
	// Without a config file the flag defaults are the configuration.
	set := func(name string) bool { return o.configPath == "" || changed(name) }

	if len(args) > 0 {
		cfg.Job = args[0]
	}
	if len(args) > 1 {
		cfg.Inputs = []string{args[1]}
	}
	if len(args) > 2 {
		cfg.Output = args[2]
	}
	if strings.TrimSpace(cfg.Job) == "" {
		return cfg, fmt.Errorf("job name is required (one of %s)", strings.Join(mrapps.Names(), ", "))
	}

	if set("reduce") {
		cfg.Transform.Reducers = o.reducers
	}
	if set("worker") {
		cfg.Transform.Workers = o.workers
	}
	if set("combine") {
		cfg.Transform.NoCombine = !o.combine
	}
	if changed("category") {
		cfg.Params.Categories = nil
		for _, s := range o.categories {
			c, err := mrapps.ParseCategory(s)
			if err != nil {
				return cfg, err
			}
			cfg.Params.Categories = append(cfg.Params.Categories, c)
		}
	}
	if changed("include") {
		cfg.Params.Include = o.include
	}
	if changed("exclude") {
		cfg.Params.Exclude = o.exclude
	}
	if changed("column") {
		cfg.Params.Columns = o.columns
	}
	if changed("min-length") {
		cfg.Params.MinLength = o.minLength
	}
	if changed("min-files") {
		cfg.Params.MinFiles = o.minFiles
	}
	if changed("output-file") {
		cfg.Params.OutputFile = o.outputFile
	}

	if set("sink") {
		cfg.Sink.Type = o.sink
	}
	switch cfg.Sink.Type {
	case batch.SinkMySQL:
		if cfg.Sink.DB.User == "" {
			cfg.Sink.DB = batch.DBConfig{
				Host:     getenvDefault("MYSQL_HOST", "127.0.0.1"),
				Port:     getenvInt("MYSQL_PORT", 3306),
				User:     getenvDefault("MYSQL_USER", "root"),
				Password: os.Getenv("MYSQL_PASSWORD"),
				Database: os.Getenv("MYSQL_DB"),
			}
		}
		if changed("table") {
			cfg.Sink.Config.TargetTable = o.table
		}
		if cfg.Sink.Config.TargetTable == "" {
			cfg.Sink.Config.TargetTable = "textjobs_" + mrapps.NormalizeName(cfg.Job)
		}
		if o.configPath == "" {
			cfg.Sink.Config.Replace = getenvBool("SINK_REPLACE", true)
		}
	case batch.SinkRedis:
		if cfg.Sink.Redis.Host == "" {
			cfg.Sink.Redis = batch.RedisConnConfig{
				Host:     getenvDefault("REDIS_HOST", "127.0.0.1"),
				Port:     getenvInt("REDIS_PORT", 6379),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       getenvInt("REDIS_DB", 0),
			}
		}
		if changed("redis-prefix") {
			cfg.Sink.RedisConfig.KeyPrefix = o.redisPrefix
		}
		if cfg.Sink.RedisConfig.KeyPrefix == "" {
			cfg.Sink.RedisConfig.KeyPrefix = "textjobs:" + mrapps.NormalizeName(cfg.Job) + ":"
		}
		if o.configPath == "" {
			cfg.Sink.RedisConfig.Replace = getenvBool("SINK_REPLACE", true)
		}
	}
	return cfg, nil
}

func loadFlowConfig(path string) (batch.FlowConfig, error) {
	var cfg batch.FlowConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

func getenvDefault(name, d string) string {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	return v
}

func getenvInt(name string, d int) int {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func getenvBool(name string, d bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}
