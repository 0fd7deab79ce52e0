package worker

import "context"

// KV is both an intermediate pair emitted by a Mapper and an output
// record produced by a reducer.
type KV struct {
	Key   string
	Value string
}

// InputUnit is one logical input file. It is never mutated after reading.
type InputUnit struct {
	Name  string
	Path  string
	Lines []string
}

// Group is every value emitted for one key, in arrival order.
type Group struct {
	Key    string
	Values []string
}

// Mapper turns one line of an input unit into zero or more pairs.
type Mapper interface {
	Map(unit InputUnit, line string) []KV
}

// UnitChecker is implemented by mappers that can tell up front whether
// they know how to tag a unit. A failed check is reported but not fatal.
type UnitChecker interface {
	CheckUnit(unit InputUnit) error
}

type MapperFunc func(unit InputUnit, line string) []KV

func (f MapperFunc) Map(unit InputUnit, line string) []KV {
	return f(unit, line)
}

type CombineFunc func(key string, values []string) string

// ReduceFunc returns the record for a group and whether it should be emitted.
type ReduceFunc func(key string, values []string) (KV, bool)

// Job is one map/group/reduce instantiation. Combine may be nil.
type Job struct {
	Name    string
	Mapper  Mapper
	Combine CombineFunc
	Reduce  ReduceFunc
}

// Options controls engine parallelism.
type Options struct {
	Reducers int
	Workers  int
	Combine  bool
}

func (o *Options) WithDefaults() {
	if o.Reducers <= 0 {
		o.Reducers = 1
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
}

// DefaultOptions matches the CLI defaults.
func DefaultOptions() Options {
	return Options{Reducers: 1, Workers: 4, Combine: true}
}

// Stats counts what flowed through a run.
type Stats struct {
	Units    int
	Emitted  int
	Shuffled int
	Groups   int
	Records  int
}

// Result is the output of Run, one record slice per partition.
type Result struct {
	Partitions [][]KV
	Stats      Stats
}

// Records flattens all partitions.
func (r Result) Records() []KV {
	var out []KV
	for _, p := range r.Partitions {
		out = append(out, p...)
	}
	return out
}

// Run executes the whole map -> group -> reduce pipeline in process.
func Run(ctx context.Context, job Job, units []InputUnit, opts Options) (Result, error) {
	wr := NewWorker(job, opts)
	if err := wr.Map(ctx, units); err != nil {
		return Result{}, err
	}
	parts, err := wr.Reduce(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Partitions: parts, Stats: wr.Stats()}, nil
}
