package mrapps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emptyOVO/textjobs/worker"
)

const (
	JobCount     = "count"
	JobSetDiff   = "setdiff"
	JobIndex     = "index"
	JobCrossFile = "crossfile"
)

// Params carries the per-job knobs. Zero values fall back to the defaults
// of the reference jobs.
type Params struct {
	Categories []Category `json:"categories"`
	Include    string     `json:"include"`
	Exclude    string     `json:"exclude"`
	Columns    []string   `json:"columns"`
	MinLength  int        `json:"min_length"`
	MinFiles   int        `json:"min_files"`
	OutputFile string     `json:"output_file"`
}

func (p *Params) WithDefaults() {
	if len(p.Categories) == 0 {
		p.Categories = []Category{
			{Match: "pg46.txt", Tag: "pg46"},
			{Match: "pg100.txt", Tag: "pg100"},
		}
	}
	if p.Include == "" {
		p.Include = "pg46"
	}
	if p.Exclude == "" {
		p.Exclude = "pg100"
	}
	if len(p.Columns) == 0 {
		p.Columns = []string{"pg100.txt", "pg46.txt", "el_quijote.txt"}
	}
	if p.MinLength <= 0 {
		p.MinLength = 4
	}
	if p.MinFiles <= 0 {
		p.MinFiles = 2
	}
}

type builder func(p Params) worker.Job

var builtinJobs = map[string]builder{
	JobCount: func(p Params) worker.Job {
		return worker.Job{
			Name:    JobCount,
			Mapper:  CountMapper(),
			Combine: SumCombine,
			Reduce:  SumReduce,
		}
	},
	JobSetDiff: func(p Params) worker.Job {
		return worker.Job{
			Name:   JobSetDiff,
			Mapper: TokenMapper{Tag: CategoryTag(p.Categories), Keep: NonEmpty},
			Reduce: SetDifferenceReduce(p.Include, p.Exclude),
		}
	},
	JobIndex: func(p Params) worker.Job {
		return worker.Job{
			Name:   JobIndex,
			Mapper: TokenMapper{Tag: FileNameTag, Keep: NonEmpty},
			Reduce: InvertedIndexReduce,
		}
	},
	JobCrossFile: func(p Params) worker.Job {
		return worker.Job{
			Name:   JobCrossFile,
			Mapper: TokenMapper{Tag: FileNameTag, Keep: MinLength(p.MinLength)},
			Reduce: CrossFileReduce(p.Columns, p.MinFiles),
		}
	},
}

// defaultOutputFiles names jobs that write one named file instead of part files.
var defaultOutputFiles = map[string]string{
	JobCrossFile: "Q4_wc.csv",
}

func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "")
	n = strings.ReplaceAll(n, "_", "")
	return n
}

// Names lists the registered jobs, sorted.
func Names() []string {
	out := make([]string, 0, len(builtinJobs))
	for k := range builtinJobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build returns the job registered under name, configured by p.
func Build(name string, p Params) (worker.Job, error) {
	b, ok := builtinJobs[NormalizeName(name)]
	if !ok {
		return worker.Job{}, fmt.Errorf("unsupported job: %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	p.WithDefaults()
	if err := p.validate(); err != nil {
		return worker.Job{}, err
	}
	return b(p), nil
}

// OutputFile is the single output file name for a job, or "" for part files.
func OutputFile(name string, p Params) string {
	if p.OutputFile != "" {
		return p.OutputFile
	}
	return defaultOutputFiles[NormalizeName(name)]
}

func (p Params) validate() error {
	if p.Include == p.Exclude {
		return fmt.Errorf("include and exclude categories must differ, both are %q", p.Include)
	}
	for _, c := range p.Categories {
		if c.Match == "" || c.Tag == "" {
			return fmt.Errorf("category needs both match and tag: %+v", c)
		}
	}
	seen := map[string]bool{}
	for _, c := range p.Columns {
		if c == "" {
			return fmt.Errorf("empty column name")
		}
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	return nil
}
