package mapreduce

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emptyOVO/textjobs/batch"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pg100.txt":      "To be or not to be\nthat is the question\n",
		"pg46.txt":       "Marley was dead to begin with\nthe question remains\n",
		"el_quijote.txt": "En un lugar de la Mancha\nquestion\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmdCount(t *testing.T) {
	in := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "count")
	if _, err := execute(t, "count", in, out, "-r", "2"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"part-r-00000", "part-r-00001", "_SUCCESS"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRootCmdCrossFile(t *testing.T) {
	in := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "q4")
	if _, err := execute(t, "crossfile", in, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(out, "Q4_wc.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "question, 1, 1, 1\t\n" {
		t.Fatalf("unexpected csv %q", data)
	}
}

func TestRootCmdUnknownJob(t *testing.T) {
	in := writeCorpus(t)
	if _, err := execute(t, "grep", in, t.TempDir()); err == nil {
		t.Fatalf("expected unknown job error")
	}
}

func TestRootCmdMissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := execute(t, "count", missing, t.TempDir()); err == nil {
		t.Fatalf("expected read error for missing input")
	}
}

func TestRootCmdRequiresJob(t *testing.T) {
	_, err := execute(t)
	if err == nil || !strings.Contains(err.Error(), "job name is required") {
		t.Fatalf("expected job name error, got %v", err)
	}
}

func TestRootCmdCheckOnly(t *testing.T) {
	out, err := execute(t, "index", t.TempDir(), t.TempDir(), "--check")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "config check pass") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRootCmdBench(t *testing.T) {
	in := writeCorpus(t)
	out, err := execute(t, "index", in, t.TempDir(), "--bench")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "total=") {
		t.Fatalf("expected benchmark line, got %q", out)
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	in := writeCorpus(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "flow.json")
	body := `{"job":"setdiff","inputs":["` + in + `"],"output":"` + filepath.Join(dir, "out") + `",
"transform":{"reducers":3},"params":{"include":"pg100","exclude":"pg46"}}`
	if err := os.WriteFile(cfgPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	if err := cmd.ParseFlags([]string{"--config", cfgPath, "--reduce", "2"}); err != nil {
		t.Fatal(err)
	}
	o := cliOptions{configPath: cfgPath, reducers: 2, workers: 4, combine: true, sink: batch.SinkFile}
	cfg, err := buildFlowConfig(cmd, o, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Job != "setdiff" || cfg.Transform.Reducers != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Params.Include != "pg100" || cfg.Params.Exclude != "pg46" {
		t.Fatalf("config params should survive unchanged flags: %+v", cfg.Params)
	}
	if cfg.Transform.Workers != 0 {
		t.Fatalf("unchanged --worker must not override config, got %d", cfg.Transform.Workers)
	}
}

func TestConfigFileRejectsUnknownFields(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "flow.json")
	if err := os.WriteFile(cfgPath, []byte(`{"job":"count","plugin":"wc.so"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFlowConfig(cfgPath); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestMySQLSinkFromEnv(t *testing.T) {
	t.Setenv("MYSQL_USER", "analyst")
	t.Setenv("MYSQL_DB", "corpus")
	t.Setenv("MYSQL_PORT", "3307")

	cmd := NewRootCmd()
	if err := cmd.ParseFlags([]string{"--sink", "mysql"}); err != nil {
		t.Fatal(err)
	}
	o := cliOptions{sink: batch.SinkMySQL, reducers: 1, workers: 4, combine: true}
	cfg, err := buildFlowConfig(cmd, o, []string{"count", "in"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sink.DB.User != "analyst" || cfg.Sink.DB.Database != "corpus" || cfg.Sink.DB.Port != 3307 {
		t.Fatalf("unexpected db config %+v", cfg.Sink.DB)
	}
	if cfg.Sink.Config.TargetTable != "textjobs_count" || !cfg.Sink.Config.Replace {
		t.Fatalf("unexpected sink config %+v", cfg.Sink.Config)
	}
	if err := batch.ValidateFlowConfig(cfg); err != nil {
		t.Fatal(err)
	}
}

func TestCategoryFlag(t *testing.T) {
	cmd := NewRootCmd()
	if err := cmd.ParseFlags([]string{"--category", "shakespeare=old", "--category", "dickens=new"}); err != nil {
		t.Fatal(err)
	}
	o := cliOptions{categories: []string{"shakespeare=old", "dickens=new"}, sink: batch.SinkFile, reducers: 1, workers: 4, combine: true}
	cfg, err := buildFlowConfig(cmd, o, []string{"setdiff", "in", "out"})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Params.Categories) != 2 || cfg.Params.Categories[1].Tag != "new" {
		t.Fatalf("unexpected categories %+v", cfg.Params.Categories)
	}

	o.categories = []string{"broken"}
	if _, err := buildFlowConfig(cmd, o, []string{"setdiff", "in", "out"}); err == nil {
		t.Fatalf("expected malformed category error")
	}
}
