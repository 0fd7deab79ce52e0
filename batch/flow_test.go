package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/emptyOVO/textjobs/mrapps"
	"github.com/emptyOVO/textjobs/worker"
)

func corpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeInput(t, dir, "pg100.txt", "To be or not to be\nthat is the QUESTION\n")
	writeInput(t, dir, "pg46.txt", "Marley was dead to begin with\nthe question remains\n")
	writeInput(t, dir, "el_quijote.txt", "En un lugar de la Mancha\nquestion\n")
	return dir
}

func outputRecords(t *testing.T, path string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, kv := range worker.DecodeRecords(readFile(t, path)) {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestRunFlowCount(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	err := RunFlow(context.Background(), FlowConfig{Job: "count", Inputs: []string{corpus(t)}, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	got := outputRecords(t, filepath.Join(out, "part-r-00000"))
	if got["question"] != "3" || got["to"] != "3" || got["be"] != "2" {
		t.Fatalf("unexpected counts %v", got)
	}
}

func TestRunFlowSetDiff(t *testing.T) {
	out := t.TempDir()
	err := RunFlow(context.Background(), FlowConfig{Job: "setdiff", Inputs: []string{corpus(t)}, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	raw := readFile(t, filepath.Join(out, "part-r-00000"))
	got := outputRecords(t, filepath.Join(out, "part-r-00000"))
	if _, ok := got["marley"]; !ok {
		t.Fatalf("expected marley only in pg46, got %v", got)
	}
	for _, k := range []string{"the", "question", "to", "en"} {
		if _, ok := got[k]; ok {
			t.Fatalf("did not expect %q in %v", k, got)
		}
	}
	if !strings.Contains(raw, "marley\t\n") {
		t.Fatalf("expected empty trailing value, got %q", raw)
	}
}

func TestRunFlowIndex(t *testing.T) {
	out := t.TempDir()
	err := RunFlow(context.Background(), FlowConfig{
		Job:       "index",
		Inputs:    []string{corpus(t)},
		Output:    out,
		Transform: FlowTransformConfig{Reducers: 3, Workers: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for i := 0; i < 3; i++ {
		for k, v := range outputRecords(t, filepath.Join(out, partName(i))) {
			got[k] = v
		}
	}
	names := strings.Split(got["question"], ", ")
	sort.Strings(names)
	if strings.Join(names, "|") != "el_quijote.txt|pg100.txt|pg46.txt" {
		t.Fatalf("unexpected files for question: %q", got["question"])
	}
}

func TestRunFlowCrossFile(t *testing.T) {
	out := t.TempDir()
	err := RunFlow(context.Background(), FlowConfig{Job: "crossfile", Inputs: []string{corpus(t)}, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	raw := readFile(t, filepath.Join(out, "Q4_wc.csv"))
	want := "question, 1, 1, 1\t\n"
	if raw != want {
		t.Fatalf("expected %q, got %q", want, raw)
	}
}

func TestRunFlowBenchmark(t *testing.T) {
	res, err := RunFlowBenchmark(context.Background(), FlowConfig{Job: "count", Inputs: []string{corpus(t)}, Output: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if res.RunID == "" || res.TotalDuration <= 0 || res.Stats.Units != 3 {
		t.Fatalf("unexpected benchmark result %+v", res)
	}
}

func TestRunFlowReadFailure(t *testing.T) {
	err := RunFlow(context.Background(), FlowConfig{
		Job:    "count",
		Inputs: []string{filepath.Join(t.TempDir(), "missing")},
		Output: t.TempDir(),
	})
	var perr *worker.PhaseError
	if !errors.As(err, &perr) || perr.Phase != worker.PhaseRead {
		t.Fatalf("expected read phase error, got %v", err)
	}
}

func TestRunFlowWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := RunFlow(context.Background(), FlowConfig{
		Job:    "count",
		Inputs: []string{corpus(t)},
		Output: filepath.Join(blocker, "out"),
	})
	var perr *worker.PhaseError
	if !errors.As(err, &perr) || perr.Phase != worker.PhaseWrite {
		t.Fatalf("expected write phase error, got %v", err)
	}
}

type recordingRunner struct {
	opts worker.Options
}

func (r *recordingRunner) Run(ctx context.Context, job worker.Job, units []worker.InputUnit, opts worker.Options) (worker.Result, error) {
	r.opts = opts
	return LocalRunner{}.Run(ctx, job, units, opts)
}

func TestRunFlowUsesDefaultRunner(t *testing.T) {
	rr := &recordingRunner{}
	SetDefaultRunner(rr)
	defer SetDefaultRunner(LocalRunner{})

	err := RunFlow(context.Background(), FlowConfig{
		Job:       "count",
		Inputs:    []string{corpus(t)},
		Output:    t.TempDir(),
		Transform: FlowTransformConfig{Workers: 2, NoCombine: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rr.opts.Workers != 2 || rr.opts.Combine || rr.opts.Reducers != 1 {
		t.Fatalf("unexpected options %+v", rr.opts)
	}
}

func TestValidateFlowConfig(t *testing.T) {
	ok := FlowConfig{Job: "count", Inputs: []string{"in"}, Output: "out"}
	if err := ValidateFlowConfig(ok); err != nil {
		t.Fatal(err)
	}
	bad := []FlowConfig{
		{Version: "v2", Job: "count", Inputs: []string{"in"}, Output: "out"},
		{Job: "grep", Inputs: []string{"in"}, Output: "out"},
		{Job: "count", Output: "out"},
		{Job: "count", Inputs: []string{"in"}},
		{Job: "count", Inputs: []string{"in"}, Sink: FlowSinkConfig{Type: "mysql"}},
		{Job: "count", Inputs: []string{"in"}, Sink: FlowSinkConfig{Type: "kafka"}},
		{Job: "setdiff", Inputs: []string{"in"}, Output: "out", Params: mrapps.Params{Include: "a", Exclude: "a"}},
	}
	for i, cfg := range bad {
		if err := ValidateFlowConfig(cfg); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, cfg)
		}
	}
}

func TestDBConfigDSN(t *testing.T) {
	c := DBConfig{User: "root", Password: "pw", Database: "words", Params: map[string]string{"timeout": "5s"}}
	want := "root:pw@tcp(127.0.0.1:3306)/words?charset=utf8mb4&parseTime=true&timeout=5s"
	if got := c.dsn(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLocalRunnerCanceledIsMapPhase(t *testing.T) {
	job, err := mrapps.Build("count", mrapps.Params{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LocalRunner{}.Run(ctx, job, nil, worker.DefaultOptions())
	var perr *worker.PhaseError
	if !errors.As(err, &perr) || perr.Phase != worker.PhaseMap || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled map PhaseError, got %v", err)
	}
}

func TestRunFlowCanceledBeforeRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunFlow(ctx, FlowConfig{Job: "index", Inputs: []string{corpus(t)}, Output: t.TempDir()})
	var perr *worker.PhaseError
	if !errors.As(err, &perr) || perr.Phase != worker.PhaseRead {
		t.Fatalf("expected read phase error, got %v", err)
	}
}
