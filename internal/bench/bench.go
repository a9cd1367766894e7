// Package bench times index builds and queries for any search backend.
// Timing never changes what a backend returns: reports carry exactly the
// results the backend produced, in query order.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/podsearch/internal/vector"
	"github.com/hyperjump/podsearch/pkg/utils"
)

// Report is the outcome of one backend run.
type Report struct {
	RunID      string           `json:"run_id"`
	Backend    vector.IndexType `json:"backend"`
	K          int              `json:"k"`
	Vectors    int              `json:"vectors"`
	Dimensions int              `json:"dimensions"`
	Queries    int              `json:"queries"`
	BuildTime  time.Duration    `json:"build_time_ns"`
	// Latencies holds per-query search time in query order.
	Latencies []time.Duration     `json:"latencies_ns"`
	Min       time.Duration       `json:"min_ns"`
	Mean      time.Duration       `json:"mean_ns"`
	P50       time.Duration       `json:"p50_ns"`
	P95       time.Duration       `json:"p95_ns"`
	Max       time.Duration       `json:"max_ns"`
	Total     time.Duration       `json:"total_ns"`
	Results   [][]vector.Neighbor `json:"results"`
	// Recall is recall@k against the exact scan, set only when requested.
	Recall *float64 `json:"recall,omitempty"`
}

// Harness runs backends over a search space and a query set.
type Harness struct {
	parallelism int
	logger      *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithParallelism runs up to n queries concurrently. Latencies are still
// measured per query.
func WithParallelism(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.parallelism = n
		}
	}
}

// WithLogger sets the harness logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New returns a harness that runs queries sequentially unless configured otherwise.
func New(opts ...Option) *Harness {
	h := &Harness{parallelism: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run builds backend over space, then times every query. The handle is
// closed before Run returns.
func (h *Harness) Run(ctx context.Context, backend vector.Backend, space *vector.SearchSpace, queries [][]float32, k int) (*Report, error) {
	start := time.Now()
	handle, err := backend.Build(ctx, space)
	buildTime := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", backend.Type(), err)
	}
	defer handle.Close()

	rep := &Report{
		RunID:      uuid.NewString(),
		Backend:    backend.Type(),
		K:          k,
		Vectors:    handle.Len(),
		Dimensions: handle.Dimensions(),
		Queries:    len(queries),
		BuildTime:  buildTime,
		Latencies:  make([]time.Duration, len(queries)),
		Results:    make([][]vector.Neighbor, len(queries)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.parallelism)
	runStart := time.Now()
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t0 := time.Now()
			res, err := handle.Search(q, k)
			rep.Latencies[i] = time.Since(t0)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			rep.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	rep.Total = time.Since(runStart)
	rep.summarize()

	h.logger.Info("Benchmark run",
		zap.String("run_id", rep.RunID),
		zap.String("backend", string(rep.Backend)),
		zap.Int("vectors", rep.Vectors),
		zap.Int("queries", rep.Queries),
		zap.Int("k", k),
		zap.Duration("build", rep.BuildTime),
		zap.Duration("p50", rep.P50),
		zap.Duration("p95", rep.P95))
	return rep, nil
}

func (r *Report) summarize() {
	if len(r.Latencies) == 0 {
		return
	}
	sorted := utils.SortedDurations(r.Latencies)
	r.Min = sorted[0]
	r.Max = sorted[len(sorted)-1]
	r.Mean = utils.MeanDuration(sorted)
	r.P50 = utils.Percentile(sorted, 50)
	r.P95 = utils.Percentile(sorted, 95)
}

// Recall returns mean recall: for each query, the share of truth indices
// found in results. Queries with an empty truth set are skipped.
func Recall(results, truth [][]vector.Neighbor) float64 {
	var sum float64
	var n int
	for i := range min(len(results), len(truth)) {
		if len(truth[i]) == 0 {
			continue
		}
		want := make(map[int]struct{}, len(truth[i]))
		for _, t := range truth[i] {
			want[t.Index] = struct{}{}
		}
		hit := 0
		for _, r := range results[i] {
			if _, ok := want[r.Index]; ok {
				hit++
			}
		}
		sum += float64(hit) / float64(len(truth[i]))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Compare runs every backend over the same space and queries. With
// withRecall set, each report gets recall@k against an exact linear scan,
// computed after timing.
func (h *Harness) Compare(ctx context.Context, backends []vector.Backend, space *vector.SearchSpace, queries [][]float32, k int, withRecall bool) ([]*Report, error) {
	reports := make([]*Report, 0, len(backends))
	for _, b := range backends {
		rep, err := h.Run(ctx, b, space, queries, k)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if !withRecall {
		return reports, nil
	}

	var truth [][]vector.Neighbor
	for _, rep := range reports {
		if rep.Backend == vector.IndexTypeLinear {
			truth = rep.Results
			break
		}
	}
	if truth == nil {
		oracle, err := Oracle(ctx, space, queries, k)
		if err != nil {
			return nil, err
		}
		truth = oracle
	}
	for _, rep := range reports {
		r := Recall(rep.Results, truth)
		rep.Recall = &r
	}
	return reports, nil
}

// Oracle returns exact k-nearest results for every query.
func Oracle(ctx context.Context, space *vector.SearchSpace, queries [][]float32, k int) ([][]vector.Neighbor, error) {
	handle, err := vector.LinearBackend{}.Build(ctx, space)
	if err != nil {
		return nil, err
	}
	defer handle.Close()
	out := make([][]vector.Neighbor, len(queries))
	for i, q := range queries {
		if out[i], err = handle.Search(q, k); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}
	return out, nil
}
