package harness

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/mobile-harness/pkg/config"
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/element"
	"github.com/devicelab-dev/mobile-harness/pkg/evidence"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
	"github.com/devicelab-dev/mobile-harness/pkg/pages"
	"github.com/devicelab-dev/mobile-harness/pkg/session"
	"github.com/devicelab-dev/mobile-harness/pkg/wait"
)

// Options configures a Runner.
type Options struct {
	// Parallel is the number of workers. Ignored when Devices is set.
	Parallel int
	// Devices gives each worker its own device.name, one worker per entry.
	Devices []string
	// Sink receives evidence; nil discards it.
	Sink evidence.Sink
	// Engine overrides the wait engine built from config.
	Engine *wait.Engine
	// Sleep overrides the pause used by page settle delays.
	Sleep func(time.Duration)
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name     string
	Owner    string
	Device   string
	Status   core.TestStatus
	Err      error
	Duration time.Duration
	Warnings []error
}

// RunResult aggregates a run.
type RunResult struct {
	Total    int
	Passed   int
	Failed   int
	Errored  int
	Skipped  int
	Cases    []CaseResult
	Duration time.Duration
	Teardown error // Aggregated release failures from the end of the run
}

// Success reports whether every case passed.
func (r *RunResult) Success() bool {
	return r.Total > 0 && r.Passed == r.Total
}

type workItem struct {
	c     Case
	index int
}

type worker struct {
	owner     string
	device    string
	overrides map[string]string
}

// Runner executes cases over a work queue shared by its workers.
type Runner struct {
	registry *session.Registry
	cfg      *config.Config
	log      *logger.Logger
	opts     Options
	engine   *wait.Engine
}

// NewRunner creates a runner. Sessions are acquired from registry; cfg
// supplies wait timing and page delays.
func NewRunner(registry *session.Registry, cfg *config.Config, log *logger.Logger, opts Options) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	engine := opts.Engine
	if engine == nil {
		engine = wait.FromConfig(cfg).WithLogger(log)
	}
	return &Runner{registry: registry, cfg: cfg, log: log, opts: opts, engine: engine}
}

func (r *Runner) workers(cases int) []worker {
	var ws []worker
	if len(r.opts.Devices) > 0 {
		for i, d := range r.opts.Devices {
			ws = append(ws, worker{
				owner:     fmt.Sprintf("worker-%d-%s", i+1, uuid.NewString()[:8]),
				device:    d,
				overrides: map[string]string{config.KeyDeviceName: d},
			})
		}
		return ws
	}

	n := r.opts.Parallel
	if n < 1 {
		n = 1
	}
	if n > cases {
		n = cases
	}
	for i := 0; i < n; i++ {
		ws = append(ws, worker{
			owner:  fmt.Sprintf("worker-%d-%s", i+1, uuid.NewString()[:8]),
			device: r.cfg.DeviceName(),
		})
	}
	return ws
}

// Run executes cases and returns their results in input order. Cases not
// started before ctx is cancelled are skipped; the context error is returned
// alongside the partial result.
func (r *Runner) Run(ctx context.Context, cases []Case) (*RunResult, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases to run")
	}

	start := time.Now()
	queue := make(chan workItem, len(cases))
	for i, c := range cases {
		queue <- workItem{c: c, index: i}
	}
	close(queue)

	results := make([]CaseResult, len(cases))
	var resultsMu sync.Mutex

	workers := r.workers(len(cases))
	r.log.Info("Running %d test(s) on %d worker(s)", len(cases), len(workers))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			for item := range queue {
				var res CaseResult
				if gctx.Err() != nil {
					res = CaseResult{Name: item.c.Name, Owner: w.owner, Device: w.device, Status: core.StatusSkipped}
				} else {
					res = r.execute(gctx, w, item.c)
				}
				resultsMu.Lock()
				results[item.index] = res
				resultsMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	result := buildRunResult(results, time.Since(start))
	if err := r.registry.ReleaseAll(); err != nil {
		result.Teardown = err
	}
	r.log.Info("Run finished in %s: %d passed, %d failed, %d errored, %d skipped",
		result.Duration.Round(time.Millisecond), result.Passed, result.Failed, result.Errored, result.Skipped)
	return result, ctx.Err()
}

func (r *Runner) execute(ctx context.Context, w worker, c Case) CaseResult {
	start := time.Now()
	res := CaseResult{Name: c.Name, Owner: w.owner, Device: w.device}
	log := r.log
	if len(r.opts.Devices) > 0 || r.opts.Parallel > 1 {
		log = r.log.With(c.Name)
	}

	r.log.TestStart(c.Name)
	sess, err := r.registry.AcquireWith(w.owner, w.overrides)
	if err != nil {
		log.Error("Failed to create session: %v", err)
		res.Status = core.StatusErrored
		res.Err = err
		res.Duration = time.Since(start)
		r.log.TestEnd(c.Name, false)
		return res
	}

	actions := element.New(sess, r.engine, log)
	tk := pages.NewToolkit(actions, r.cfg)
	if r.opts.Sleep != nil {
		tk.Sleep = r.opts.Sleep
	}
	sink := r.opts.Sink
	if sink == nil {
		sink = &evidence.MemorySink{}
	}
	recorder := evidence.NewRecorder(c.Name, actions, sink, log)
	t := &T{ctx: ctx, name: c.Name, sess: sess, actions: actions, tk: tk, log: log, recorder: recorder}
	log.Pass("Test setup completed")

	status, err := runCase(c, t)
	res.Status = status
	res.Err = err
	res.Warnings = append(res.Warnings, t.warnings...)
	if err != nil {
		log.Error("Test failed: %v", err)
		if warn := recorder.Failure(err); warn != nil {
			res.Warnings = append(res.Warnings, warn)
		}
	}

	r.registry.Release(w.owner)
	res.Duration = time.Since(start)
	r.log.TestEnd(c.Name, status == core.StatusPassed)
	return res
}

// runCase runs Setup then Run, turning a panic into an errored result.
func runCase(c Case, t *T) (status core.TestStatus, err error) {
	defer func() {
		if p := recover(); p != nil {
			t.log.Debug("Panic stack:\n%s", debug.Stack())
			status = core.StatusErrored
			err = fmt.Errorf("test panicked: %v", p)
		}
	}()

	if c.Setup != nil {
		if err := c.Setup(t); err != nil {
			return core.StatusFromError(err), fmt.Errorf("setup: %w", err)
		}
	}
	if c.Run == nil {
		return core.StatusSkipped, nil
	}
	err = c.Run(t)
	return core.StatusFromError(err), err
}

func buildRunResult(cases []CaseResult, d time.Duration) *RunResult {
	result := &RunResult{Total: len(cases), Cases: cases, Duration: d}
	for _, c := range cases {
		switch c.Status {
		case core.StatusPassed:
			result.Passed++
		case core.StatusFailed:
			result.Failed++
		case core.StatusErrored:
			result.Errored++
		case core.StatusSkipped:
			result.Skipped++
		}
	}
	return result
}
