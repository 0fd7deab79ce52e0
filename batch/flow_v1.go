package batch

import (
	"fmt"
	"strings"

	"github.com/emptyOVO/textjobs/mrapps"
)

const FlowVersionV1 = "v1"

// ValidateFlowConfig validates v1 flow schema and required fields.
func ValidateFlowConfig(cfg FlowConfig) error {
	cfg.withDefaults()

	if strings.TrimSpace(cfg.Version) != FlowVersionV1 {
		return fmt.Errorf("unsupported version: %q (expected %q)", cfg.Version, FlowVersionV1)
	}
	if _, err := mrapps.Build(cfg.Job, cfg.Params); err != nil {
		return err
	}
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("at least one input path is required")
	}
	for _, in := range cfg.Inputs {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("input path must not be empty")
		}
	}

	switch cfg.Sink.Type {
	case SinkFile:
		if strings.TrimSpace(cfg.Output) == "" {
			return fmt.Errorf("output path is required for file sink")
		}
	case SinkMySQL:
		if cfg.Sink.DB.User == "" || cfg.Sink.DB.Database == "" {
			return fmt.Errorf("sink.db.user and sink.db.database are required for mysql sink")
		}
		if strings.TrimSpace(cfg.Sink.Config.TargetTable) == "" {
			return fmt.Errorf("sink.config.targettable is required for mysql sink")
		}
	case SinkRedis:
		if strings.TrimSpace(cfg.Sink.RedisConfig.KeyPrefix) == "" {
			return fmt.Errorf("sink.redis_config.key_prefix is required for redis sink")
		}
	default:
		return fmt.Errorf("unsupported sink.type: %s", cfg.Sink.Type)
	}
	return nil
}
