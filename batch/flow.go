package batch

import (
	"context"
	"time"

	"github.com/emptyOVO/textjobs/mrapps"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RunFlow executes read -> transform -> write defined by FlowConfig.
func RunFlow(ctx context.Context, cfg FlowConfig) error {
	_, err := runFlowInternal(ctx, cfg, false)
	return err
}

// RunFlowBenchmark executes a flow and reports stage durations.
func RunFlowBenchmark(ctx context.Context, cfg FlowConfig) (FlowBenchmarkResult, error) {
	return runFlowInternal(ctx, cfg, true)
}

func runFlowInternal(ctx context.Context, cfg FlowConfig, collectDur bool) (FlowBenchmarkResult, error) {
	var bench FlowBenchmarkResult
	started := time.Now()

	cfg.withDefaults()
	if err := ValidateFlowConfig(cfg); err != nil {
		return bench, err
	}
	job, err := mrapps.Build(cfg.Job, cfg.Params)
	if err != nil {
		return bench, err
	}
	sink, err := newSink(cfg)
	if err != nil {
		return bench, err
	}

	bench.RunID = uuid.New().String()
	logger := log.WithFields(log.Fields{"run": bench.RunID, "job": job.Name})
	logger.WithField("inputs", cfg.Inputs).Info("[Flow] Start job")

	sRead := time.Now()
	units, err := ReadInputs(ctx, cfg.Inputs)
	if err != nil {
		logger.WithError(err).Error("[Flow] Read failed")
		return bench, err
	}
	if collectDur {
		bench.ReadDuration = time.Since(sRead)
	}
	logger.WithField("units", len(units)).Debug("[Flow] Inputs loaded")

	sTransform := time.Now()
	res, err := DefaultRunner().Run(ctx, job, units, cfg.options())
	if err != nil {
		logger.WithError(err).Error("[Flow] Transform failed")
		return bench, err
	}
	bench.Stats = res.Stats
	if collectDur {
		bench.TransformDuration = time.Since(sTransform)
	}

	sWrite := time.Now()
	if err := sink.Write(ctx, res.Partitions); err != nil {
		logger.WithError(err).Error("[Flow] Write failed")
		return bench, err
	}
	if collectDur {
		bench.WriteDuration = time.Since(sWrite)
		bench.TotalDuration = time.Since(started)
	}

	logger.WithFields(log.Fields{
		"records": res.Stats.Records,
		"sink":    cfg.Sink.Type,
	}).Info("[Flow] Job done")
	return bench, nil
}
