package geoscore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"geoscore/blobstore"
	"geoscore/catalog"
)

// Match is the outcome of a single-point lookup. An empty RegionID means the
// point is not inside any region; Score is nil when no region matched or the
// region is absent from the score table.
type Match struct {
	RegionID string   `json:"geoid"`
	Score    *float64 `json:"score"`
}

// PointQuery is one (lat, lon) pair of a batch lookup.
type PointQuery struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BatchResult is the per-point outcome of a batch lookup. OK is true only
// when a region was resolved; Err carries the reason otherwise
// ("not_in_region", or an error message).
type BatchResult struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RegionID string   `json:"geoid,omitempty"`
	Score    *float64 `json:"score"`
	OK       bool     `json:"ok"`
	Err      string   `json:"error,omitempty"`
}

// Stats is a diagnostic snapshot of the service.
type Stats struct {
	State      State
	Generation uint64
	Regions    int
	Scores     int
	BuiltAt    time.Time
}

// Service resolves geographic points to region identifiers and scores
// against the currently active catalog.
//
// Lookups are lock-free reads against an atomic snapshot and are safe to run
// concurrently with each other and with Load. Load is the only writer: it
// builds a complete new catalog aside and publishes it with one pointer
// swap, so a query observes either the fully-old or the fully-new dataset,
// never a mix.
type Service struct {
	src  catalog.Source
	opts options

	active     atomic.Pointer[catalog.Catalog]
	state      atomic.Int32
	generation atomic.Uint64

	// Serializes loads; lookups never take it.
	loadMu sync.Mutex
}

// New creates a Service without loading anything. Call Load to publish the
// first catalog.
func New(src catalog.Source, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{src: src, opts: o}
}

// Open creates a Service and attempts one best-effort initial load. A
// missing artifact is not fatal: the service comes up not-ready and Load can
// be retried once the artifacts appear. Build failures other than missing
// artifacts are logged and likewise deferred.
func Open(ctx context.Context, src catalog.Source, opts ...Option) (*Service, error) {
	s := New(src, opts...)
	if err := s.Load(ctx); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			s.opts.logger.InfoContext(ctx, "waiting for artifacts",
				"polygons", src.PolygonsName,
				"scores", src.ScoresName,
			)
		} else {
			s.opts.logger.WarnContext(ctx, "initial load deferred", "error", err)
		}
	}
	return s, nil
}

// Load reads both artifacts, builds a new catalog, and atomically publishes
// it. On failure the previously active catalog (if any) keeps serving and
// the error is returned; a failed load never regresses a working service.
func (s *Service) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.state.Store(int32(StateLoading))
	gen := s.generation.Load() + 1
	start := time.Now()

	cat, err := catalog.Build(ctx, s.src)
	duration := time.Since(start)
	if err != nil {
		s.state.Store(int32(StateFailed))
		s.opts.metricsCollector.RecordLoad(0, duration, err)
		s.opts.logger.LogLoad(ctx, gen, 0, 0, duration, err)
		return err
	}

	s.active.Store(cat)
	s.generation.Store(gen)
	s.state.Store(int32(StateReady))
	s.opts.metricsCollector.RecordLoad(cat.Len(), duration, nil)
	s.opts.logger.LogLoad(ctx, gen, cat.Len(), cat.ScoreCount(), duration, nil)
	return nil
}

// Ready reports whether lookups can be served. It stays true while an older
// catalog keeps serving through a failed reload.
func (s *Service) Ready() bool {
	return s.active.Load().Ready()
}

// State returns the diagnostic load-lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Source returns the configured artifact source, for diagnostics.
func (s *Service) Source() catalog.Source { return s.src }

// Stats returns a diagnostic snapshot.
func (s *Service) Stats() Stats {
	st := Stats{
		State:      s.State(),
		Generation: s.generation.Load(),
	}
	if cat := s.active.Load(); cat != nil {
		st.Regions = cat.Len()
		st.Scores = cat.ScoreCount()
		st.BuiltAt = cat.BuiltAt()
	}
	return st
}

// Locate resolves a single (lat, lon) query against the active catalog.
//
// The planar point is built in (lon, lat) axis order — longitude is X,
// latitude is Y. That convention is fixed; swapping it flips every result.
//
// Returns ErrNotReady before the first successful load. A point outside
// every region yields a zero Match and a nil error.
func (s *Service) Locate(ctx context.Context, lat, lon float64) (Match, error) {
	start := time.Now()

	cat := s.active.Load()
	if !cat.Ready() {
		s.opts.metricsCollector.RecordLocate(false, time.Since(start), ErrNotReady)
		s.opts.logger.LogLocate(ctx, lat, lon, "", ErrNotReady)
		return Match{}, ErrNotReady
	}

	m := locateIn(cat, lat, lon)
	s.opts.metricsCollector.RecordLocate(m.RegionID != "", time.Since(start), nil)
	s.opts.logger.LogLocate(ctx, lat, lon, m.RegionID, nil)
	return m, nil
}

// LocateBatch resolves many points with per-point isolation: the result
// slice always has exactly len(points) elements in input order, and one
// point's failure never aborts the rest.
//
// All points are resolved against the same catalog snapshot, captured once
// at entry, so a reload concurrent with a batch cannot mix generations
// within its results.
func (s *Service) LocateBatch(ctx context.Context, points []PointQuery) []BatchResult {
	start := time.Now()
	results := make([]BatchResult, len(points))

	cat := s.active.Load()
	if !cat.Ready() {
		for i, p := range points {
			results[i] = BatchResult{Lat: p.Lat, Lon: p.Lon, Err: ErrNotReady.Error()}
		}
		s.opts.metricsCollector.RecordBatch(len(points), len(points), time.Since(start))
		return results
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.batchParallelism)
	for i, p := range points {
		g.Go(func() error {
			m := locateIn(cat, p.Lat, p.Lon)
			r := BatchResult{Lat: p.Lat, Lon: p.Lon}
			if m.RegionID == "" {
				r.Err = "not_in_region"
			} else {
				r.RegionID = m.RegionID
				r.Score = m.Score
				r.OK = true
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	duration := time.Since(start)
	s.opts.metricsCollector.RecordBatch(len(points), failed, duration)
	s.opts.logger.LogBatch(ctx, len(points), len(points)-failed, failed, duration)
	return results
}

// locateIn runs the broad phase, narrow phase and score join against one
// catalog snapshot.
func locateIn(cat *catalog.Catalog, lat, lon float64) Match {
	pt := orb.Point{lon, lat}
	id, found := cat.Locate(pt)
	if !found {
		return Match{}
	}
	m := Match{RegionID: id}
	if score, ok := cat.Score(id); ok {
		m.Score = &score
	}
	return m
}
