package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"randomflight/internal/flights"
	mmetrics "randomflight/internal/metrics"
	"randomflight/internal/report"
	"randomflight/internal/stats"
	"randomflight/internal/walk"
)

// Graph is the read-only reference data the driver walks over.
type Graph interface {
	Routes() flights.Routes
	// Origins lists the airports a walk can start from, in a stable order.
	Origins() []string
}

// StatsPublisher receives each airport's statistics as soon as they are computed.
type StatsPublisher interface {
	PublishStats(runID, airport string, s stats.Stats) error
}

// Sink persists a finished report.
type Sink interface {
	Name() string
	Save(ctx context.Context, run report.Run, r report.Report) error
}

// ctxCheckEvery bounds how many walks run between cancellation checks.
const ctxCheckEvery = 1024

type Driver struct {
	graph    Graph
	workers  int
	seed     uint64
	metrics  *mmetrics.Collector
	pub      StatsPublisher
	sinks    []Sink
	progress io.Writer
	logger   *zap.Logger
}

type Option func(*Driver)

func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSeed makes every worker's random source deterministic. Zero keeps them random.
func WithSeed(seed uint64) Option { return func(d *Driver) { d.seed = seed } }

func WithMetrics(c *mmetrics.Collector) Option { return func(d *Driver) { d.metrics = c } }

func WithPublisher(p StatsPublisher) Option { return func(d *Driver) { d.pub = p } }

func WithSinks(sinks ...Sink) Option {
	return func(d *Driver) { d.sinks = append(d.sinks, sinks...) }
}

// WithProgress sets where the progress line is written. Nil disables it.
func WithProgress(w io.Writer) Option { return func(d *Driver) { d.progress = w } }

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDriver(g Graph, opts ...Option) *Driver {
	d := &Driver{
		graph:   g,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type result struct {
	airport string
	stats   stats.Stats
	err     error
	elapsed time.Duration
}

// RunAll runs trials walks from every origin airport, collects one statistics
// entry per airport and hands the finished report to every sink in order.
// An airport whose walks never return home stays in the report with absent
// lengths. Only cancellation and sink failures are returned as errors; the
// report is returned alongside a sink error.
func (d *Driver) RunAll(ctx context.Context, trials, maxHops int) (report.Report, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", trials)
	}
	if maxHops <= 0 {
		return nil, fmt.Errorf("max hops must be positive, got %d", maxHops)
	}

	run := report.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Trials:    trials,
		MaxHops:   maxHops,
	}
	origins := d.graph.Origins()
	total := len(origins)
	if d.metrics != nil {
		d.metrics.AirportsTotal.Set(float64(total))
	}
	d.logger.Info("starting run",
		zap.String("run_id", run.ID),
		zap.Int("airports", total),
		zap.Int("trials", trials),
		zap.Int("max_hops", maxHops),
		zap.Int("workers", d.workers),
	)

	routes := d.graph.Routes()
	jobs := make(chan string)
	results := make(chan result)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, code := range origins {
			select {
			case jobs <- code:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		engine := walk.NewEngine(routes, d.source(i))
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for code := range jobs {
				start := time.Now()
				s, err := simulate(gctx, engine, code, trials, maxHops)
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				select {
				case results <- result{airport: code, stats: s, err: err, elapsed: time.Since(start)}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Single collector: each report entry is written once and progress lines never interleave.
	rep := make(report.Report, total)
	count := 0
	for res := range results {
		rep[res.airport] = res.stats
		count++
		d.observe(run.ID, res)
		d.printProgress(count, total)
	}
	if err := g.Wait(); err != nil {
		d.endProgress(count)
		return nil, err
	}
	d.endProgress(count)

	run.FinishedAt = time.Now().UTC()
	unreturned := rep.Unreturned()
	d.logger.Info("run complete",
		zap.String("run_id", run.ID),
		zap.Int("airports", len(rep)),
		zap.Int("unreturned", len(unreturned)),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)

	for _, sink := range d.sinks {
		if err := sink.Save(ctx, run, rep); err != nil {
			return rep, fmt.Errorf("persist report to %s: %w", sink.Name(), err)
		}
		if d.metrics != nil {
			d.metrics.ReportsPersisted.WithLabelValues(sink.Name()).Inc()
		}
		d.logger.Info("report persisted", zap.String("sink", sink.Name()), zap.String("run_id", run.ID))
	}
	return rep, nil
}

// simulate folds trials walks from start into statistics without keeping them.
func simulate(ctx context.Context, engine *walk.Engine, start string, trials, maxHops int) (stats.Stats, error) {
	acc := stats.NewAccumulator(maxHops)
	for i := 0; i < trials; i++ {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return stats.Stats{}, ctx.Err()
		}
		acc.Add(engine.Walk(start, maxHops))
	}
	return acc.Result()
}

func (d *Driver) source(worker int) walk.Source {
	if d.seed == 0 {
		return walk.NewSource(0)
	}
	return walk.NewSource(d.seed + uint64(worker))
}

func (d *Driver) observe(runID string, res result) {
	if res.err != nil {
		if errors.Is(res.err, stats.ErrNoReturns) {
			d.logger.Debug("no walk returned home", zap.String("airport", res.airport), zap.Error(res.err))
		} else {
			d.logger.Warn("airport failed", zap.String("airport", res.airport), zap.Error(res.err))
		}
	}
	if d.metrics != nil {
		d.metrics.AirportsProcessed.Inc()
		d.metrics.AirportDuration.Observe(res.elapsed.Seconds())
		d.metrics.Walks.WithLabelValues(flights.ReturnedHome.String()).Add(float64(res.stats.Returned))
		d.metrics.Walks.WithLabelValues(flights.DeadEnd.String()).Add(float64(res.stats.DeadEnds))
		d.metrics.Walks.WithLabelValues(flights.NotFinished.String()).Add(float64(res.stats.DidNotFinish))
		if res.stats.Average != nil {
			d.metrics.AverageLength.Observe(*res.stats.Average)
		} else {
			d.metrics.AirportsNoReturn.Inc()
		}
	}
	if d.pub != nil {
		if err := d.pub.PublishStats(runID, res.airport, res.stats); err != nil {
			d.logger.Warn("publish stats", zap.String("airport", res.airport), zap.Error(err))
		}
	}
}

func (d *Driver) printProgress(count, total int) {
	if d.progress == nil || total == 0 {
		return
	}
	pct := float64(count) / float64(total) * 100
	fmt.Fprintf(d.progress, "\rProcessed %d of %d airports %.2f%% complete", count, total, pct)
}

func (d *Driver) endProgress(count int) {
	if d.progress != nil && count > 0 {
		fmt.Fprintln(d.progress)
	}
}
