package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateMapping
	StateReducing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateMapping:
		return "MAPPING"
	case StateReducing:
		return "REDUCING"
	case StateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// Worker drives one job over a set of input units. The shuffle is filled
// during Map and read only during Reduce.
type Worker struct {
	UUID    string
	job     Job
	opts    Options
	shuffle *Shuffle
	state   State
	stats   Stats
	mux     sync.Mutex
}

func NewWorker(job Job, opts Options) *Worker {
	opts.WithDefaults()
	return &Worker{
		UUID:    uuid.New().String(),
		job:     job,
		opts:    opts,
		shuffle: NewShuffle(opts.Reducers),
		state:   StateIdle,
	}
}

func (wr *Worker) logger() *log.Entry {
	return log.WithFields(log.Fields{"worker": wr.UUID, "job": wr.job.Name})
}

// Map runs the mapper over every unit with at most opts.Workers units in
// flight. The first failure cancels the remaining units.
func (wr *Worker) Map(ctx context.Context, units []InputUnit) error {
	if wr.job.Mapper == nil {
		return phaseErr(PhaseMap, "", fmt.Errorf("job %q has no mapper", wr.job.Name))
	}
	if err := wr.transition(StateIdle, StateMapping); err != nil {
		return phaseErr(PhaseMap, "", err)
	}
	logger := wr.logger()
	logger.Info("[Worker] Start Map")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerN := wr.opts.Workers
	if workerN > len(units) {
		workerN = len(units)
	}

	jobs := make(chan InputUnit)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	for i := 0; i < workerN; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				if err := wr.mapUnit(ctx, unit); err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
			}
		}()
	}

LOOP:
	for _, unit := range units {
		select {
		case jobs <- unit:
		case <-ctx.Done():
			break LOOP
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
	}
	if err := ctx.Err(); err != nil {
		return phaseErr(PhaseMap, "", err)
	}

	wr.mux.Lock()
	wr.stats.Units = len(units)
	wr.stats.Shuffled = wr.shuffle.Len()
	wr.stats.Groups = wr.shuffle.NumGroups()
	wr.mux.Unlock()
	logger.WithFields(log.Fields{
		"units":    len(units),
		"emitted":  wr.Stats().Emitted,
		"shuffled": wr.Stats().Shuffled,
		"groups":   wr.Stats().Groups,
	}).Info("[Worker] Finish Map Task")
	return nil
}

func (wr *Worker) mapUnit(ctx context.Context, unit InputUnit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = phaseErr(PhaseMap, unit.Path, fmt.Errorf("mapper panic: %v", r))
		}
	}()

	if checker, ok := wr.job.Mapper.(UnitChecker); ok {
		if cerr := checker.CheckUnit(unit); cerr != nil {
			wr.logger().WithField("unit", unit.Name).Warnf("[Worker] %v, tagging with empty value", cerr)
		}
	}

	log.Tracef("[Worker] Mapping %s (%d lines)", unit.Path, len(unit.Lines))
	var kvs []KV
	for i, line := range unit.Lines {
		if i%1024 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return phaseErr(PhaseMap, unit.Path, cerr)
			}
		}
		kvs = append(kvs, wr.job.Mapper.Map(unit, line)...)
	}
	emitted := len(kvs)

	if wr.opts.Combine && wr.job.Combine != nil {
		kvs = combineLocal(kvs, wr.job.Combine)
		log.Tracef("[Worker] Combined %s: %d -> %d pairs", unit.Name, emitted, len(kvs))
	}
	wr.shuffle.Add(kvs)

	wr.mux.Lock()
	wr.stats.Emitted += emitted
	wr.mux.Unlock()
	return nil
}

// Reduce reduces every group once Map has completed. Partitions are reduced
// concurrently; records of each partition come back sorted by key.
func (wr *Worker) Reduce(ctx context.Context) ([][]KV, error) {
	if wr.job.Reduce == nil {
		return nil, phaseErr(PhaseReduce, "", fmt.Errorf("job %q has no reducer", wr.job.Name))
	}
	if err := wr.transition(StateMapping, StateReducing); err != nil {
		return nil, phaseErr(PhaseGroup, "", err)
	}
	logger := wr.logger()
	logger.Info("[Worker] Start Reduce")

	n := wr.shuffle.Partitions()
	out := make([][]KV, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for id := 0; id < n; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			out[id], errs[id] = wr.reducePartition(ctx, id)
		}(id)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	records := 0
	for _, p := range out {
		records += len(p)
	}
	wr.mux.Lock()
	wr.stats.Records = records
	wr.mux.Unlock()
	if err := wr.transition(StateReducing, StateDone); err != nil {
		return nil, phaseErr(PhaseReduce, "", err)
	}
	logger.WithField("records", records).Info("[Worker] End Reduce")
	return out, nil
}

func (wr *Worker) reducePartition(ctx context.Context, id int) (out []KV, err error) {
	var key string
	defer func() {
		if r := recover(); r != nil {
			err = phaseErr(PhaseReduce, "", fmt.Errorf("reducer panic on key %q: %v", key, r))
		}
	}()

	groups := wr.shuffle.Groups(id)
	log.Tracef("[Worker] Reducing partition %d (%d groups)", id, len(groups))
	for i, g := range groups {
		if i%1024 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return nil, phaseErr(PhaseReduce, "", cerr)
			}
		}
		key = g.Key
		if kv, ok := wr.job.Reduce(g.Key, g.Values); ok {
			out = append(out, kv)
		}
	}
	return out, nil
}

func (wr *Worker) transition(from, to State) error {
	wr.mux.Lock()
	defer wr.mux.Unlock()
	if wr.state != from {
		return fmt.Errorf("worker is %v, expected %v", wr.state, from)
	}
	wr.state = to
	return nil
}

func (wr *Worker) State() State {
	wr.mux.Lock()
	defer wr.mux.Unlock()
	return wr.state
}

func (wr *Worker) Stats() Stats {
	wr.mux.Lock()
	defer wr.mux.Unlock()
	return wr.stats
}

// Groups exposes the grouped values after Map, mainly for inspection.
func (wr *Worker) Groups() []Group {
	return wr.shuffle.AllGroups()
}
