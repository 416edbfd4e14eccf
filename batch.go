package psc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Target is one shader unit of a batch: its source and destination prefix.
type Target struct {
	Source string
	Dest   string
}

// ErrDuplicateDest is returned when two targets share a destination prefix.
// Their outputs would overwrite each other.
var ErrDuplicateDest = errors.New("duplicate destination")

// BuildAll builds independent targets concurrently on at most jobs workers
// (jobs <= 0 means one per CPU). Each target is built exactly like Build.
//
// Results are in target order and are non-nil for every target that ran. The
// error joins the per-target errors.
func BuildAll(ctx context.Context, targets []Target, opts Options, jobs int) ([]*Result, error) {
	if err := checkTargets(targets); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(targets))

	results := make([]*Result, len(targets))
	errs := make([]error, len(targets))

	pool := worker.NewDynamicWorkerPool(jobs, len(targets), time.Second)
	defer pool.Stop()

	// pool.Wait blocks until workers idle out; a WaitGroup tracks this batch.
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: t,
			Do: func() (any, error) {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					errs[i] = fmt.Errorf("%s: %w", t.Source, err)
					return nil, err
				}
				opts.logf("building %s -> %s", t.Source, t.Dest)
				res, err := Build(ctx, t.Source, t.Dest, opts)
				results[i], errs[i] = res, err
				return res, err
			},
		})
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// checkTargets rejects targets whose destinations resolve to the same path.
func checkTargets(targets []Target) error {
	seen := make(map[string]int, len(targets))
	for i, t := range targets {
		if t.Source == "" || t.Dest == "" {
			return fmt.Errorf("target %d: source and destination are required", i)
		}
		key := filepath.Clean(t.Dest)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if j, dup := seen[key]; dup {
			return fmt.Errorf("targets %d and %d: %w %s", j, i, ErrDuplicateDest, t.Dest)
		}
		seen[key] = i
	}
	return nil
}
