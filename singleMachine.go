package mapreduce

import (
	"context"
	"sync"

	"github.com/emptyOVO/textjobs/batch"
)

var runtimeMu sync.Mutex

// StartSingleMachineJob runs one flow in this process. Concurrent callers
// are serialized.
func StartSingleMachineJob(ctx context.Context, cfg batch.FlowConfig) error {
	_, err := StartSingleMachineBenchmark(ctx, cfg)
	return err
}

// StartSingleMachineBenchmark is StartSingleMachineJob with stage timings.
func StartSingleMachineBenchmark(ctx context.Context, cfg batch.FlowConfig) (batch.FlowBenchmarkResult, error) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	return batch.RunFlowBenchmark(ctx, cfg)
}
