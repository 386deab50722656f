// Package dispatcher runs a batch of subprocess jobs concurrently while
// preserving submission order in the results, and short-circuits any job
// whose result is already present in the cache. It is grounded on the
// teacher's worker-pool patterns in pkg/monitoring/collector.go (bounded
// goroutines over a channel) and pkg/fuzz/runner.go (round-based batch
// execution), generalized here to arbitrary runner jobs via errgroup.
package dispatcher

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jihwankim/styleinfer/pkg/cache"
	"github.com/jihwankim/styleinfer/pkg/runner"
)

// Mode selects how a batch of jobs is executed.
type Mode string

const (
	ModeOff       Mode = "off"
	ModeThreads   Mode = "threads"
	ModeProcesses Mode = "processes"
)

// Job is one subprocess invocation to run, together with the cache key
// that identifies it.
type Job struct {
	CacheKey string
	Exe      string
	Argv     []string
	Stdin    []byte
	Timeout  time.Duration
}

// Result pairs a job's outcome with whether it was served from cache.
type Result struct {
	runner.Result
	CacheHit bool
}

// Dispatcher executes batches of Jobs under a Mode, consulting and
// populating an optional Cache. A nil Cache disables memoization entirely.
type Dispatcher struct {
	mode  Mode
	cache *cache.Cache
}

func New(mode Mode, c *cache.Cache) *Dispatcher {
	return &Dispatcher{mode: mode, cache: c}
}

// Run executes jobs and returns one Result per job, in the same order as
// jobs itself regardless of completion order or which ran and which were
// served from cache.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	pending := d.applyCacheHits(jobs, results)

	if d.mode == ModeOff {
		for _, idx := range pending {
			results[idx] = d.execute(ctx, jobs[idx])
		}
		return results, nil
	}

	workers := len(pending)
	if max := runtime.NumCPU(); workers > max {
		workers = max
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, idx := range pending {
		idx := idx
		g.Go(func() error {
			if gctx.Err() != nil {
				// The pool is being torn down; abandon remaining work
				// rather than starting a subprocess that will be discarded.
				return nil
			}
			results[idx] = d.execute(gctx, jobs[idx])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// applyCacheHits fills results for every job already present in the cache
// (a single batched lookup) and returns the indices that still need to run.
func (d *Dispatcher) applyCacheHits(jobs []Job, results []Result) []int {
	pending := make([]int, 0, len(jobs))
	if d.cache == nil {
		for i := range jobs {
			pending = append(pending, i)
		}
		return pending
	}

	keys := make([]string, len(jobs))
	for i, j := range jobs {
		keys[i] = j.CacheKey
	}

	cached, err := d.cache.MGet(keys)
	if err != nil {
		// A cache read failure degrades to "run everything"; it must
		// never abort the whole batch.
		for i := range jobs {
			pending = append(pending, i)
		}
		return pending
	}

	for i, blob := range cached {
		if blob == nil {
			pending = append(pending, i)
			continue
		}
		exitCode, stdout, stderr, err := cache.UnpackResult(blob)
		if err != nil {
			pending = append(pending, i)
			continue
		}
		results[i] = Result{
			Result:   runner.Result{ExitCode: exitCode, Stdout: stdout, Stderr: stderr},
			CacheHit: true,
		}
	}
	return pending
}

func (d *Dispatcher) execute(ctx context.Context, j Job) Result {
	res := runner.Run(ctx, j.Exe, j.Argv, j.Stdin, j.Timeout)

	if d.cache != nil && res.OSError == "" && !res.TimedOut {
		packed := cache.PackResult(res.ExitCode, res.Stdout, res.Stderr)
		_ = d.cache.Put(j.CacheKey, packed) // best-effort; a write failure must not fail the job
	}

	return Result{Result: res, CacheHit: false}
}
