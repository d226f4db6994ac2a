// Package pipeline orchestrates extract, transform, and load around the
// staleness of the storage file. It is the only component that makes
// decisions: everything below it either fetches, computes, or writes
// exactly what it is told.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/petar-djukic/courier/internal/metrics"
	"github.com/petar-djukic/courier/internal/sqlite"
	"github.com/petar-djukic/courier/internal/transform"
	"github.com/petar-djukic/courier/pkg/types"
)

// Extractor is the acquisition capability the pipeline consumes.
// internal/soda implements it against the live upstream; tests swap in
// fakes.
type Extractor interface {
	Inspections(ctx context.Context) ([]types.InspectionRow, error)
	FastFoodNames(ctx context.Context) ([]string, error)
}

// PopulationSource supplies borough population counts by name. It may
// legitimately return an empty map; population is optional enrichment.
type PopulationSource func() (map[string]int64, error)

// Metadata is the staleness picture computed once at construction. The
// storage file's modification time is the only persisted state the
// decision reads.
type Metadata struct {
	Exists      bool
	LastEdit    time.Time
	SinceEdit   time.Duration
	NeedsUpdate bool
}

// Pipeline owns the store handle and refresh configuration. Construct it
// once per process; Run executes at most once.
type Pipeline struct {
	store       *sqlite.Store
	extractor   Extractor
	populations PopulationSource
	upstream    types.UpstreamConfig
	refresh     types.RefreshConfig
	clock       clockwork.Clock
	log         *slog.Logger

	meta Metadata

	mu  sync.Mutex
	ran bool
}

// New probes the storage file at dbPath and builds the pipeline. The
// probe must precede opening the database, because opening creates the
// file and would erase the fresh-build signal. A missing file is that
// signal, not an error; any other stat failure aborts construction.
func New(dbPath string, extractor Extractor, populations PopulationSource,
	upstream types.UpstreamConfig, refresh types.RefreshConfig,
	clock clockwork.Clock, log *slog.Logger) (*Pipeline, error) {

	probed, err := sqlite.Probe(dbPath)
	if err != nil {
		log.Error("storage probe failed", "path", dbPath, "error", err)
		return nil, err
	}

	meta := Metadata{Exists: probed.Exists, LastEdit: probed.LastEdit}
	if probed.Exists {
		meta.SinceEdit = clock.Now().Sub(probed.LastEdit)
		meta.NeedsUpdate = meta.SinceEdit > refresh.UpdateInterval
	}
	log.Debug("storage probed",
		"exists", meta.Exists, "since_edit", meta.SinceEdit, "needs_update", meta.NeedsUpdate)

	store, err := sqlite.Open(dbPath, log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		store:       store,
		extractor:   extractor,
		populations: populations,
		upstream:    upstream,
		refresh:     refresh,
		clock:       clock,
		log:         log,
		meta:        meta,
	}, nil
}

// Metadata returns the staleness picture computed at construction.
func (p *Pipeline) Metadata() Metadata {
	return p.meta
}

// Store exposes the database handle so the query API can share it.
func (p *Pipeline) Store() *sqlite.Store {
	return p.store
}

// Close releases the database handle.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Run dispatches on the metadata: full build when no storage exists,
// incremental refresh when stale, otherwise nothing. Errors from any
// stage propagate to the caller; there is no pipeline-level retry. A
// second call within the same process is a logged no-op.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.ran {
		p.mu.Unlock()
		p.log.Warn("pipeline already ran in this process, skipping")
		return nil
	}
	p.ran = true
	p.mu.Unlock()

	log := p.log.With("run_id", runID())

	var mode string
	var err error
	switch {
	case !p.meta.Exists:
		mode = "full"
		log.Info("no storage found, building from scratch")
		err = p.fullBuild(ctx, log)
	case p.meta.NeedsUpdate:
		mode = "incremental"
		log.Info("storage stale, refreshing", "since_edit", p.meta.SinceEdit)
		err = p.incremental(ctx, log)
	default:
		mode = "noop"
		log.Info("storage fresh, nothing to do", "since_edit", p.meta.SinceEdit)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.PipelineRunsTotal.WithLabelValues(mode, status).Inc()
	return err
}

// extract runs acquisition and normalization, shared by both write
// paths. Dimension codes are recomputed from the constant sequences on
// every run, never read back from storage.
func (p *Pipeline) extract(ctx context.Context, log *slog.Logger) (
	facts []types.Restaurant, boroughCodes, cuisineCodes map[string]string, err error) {

	rows, err := p.extractor.Inspections(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("extracting inspections: %w", err)
	}
	names, err := p.extractor.FastFoodNames(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("extracting fast-food names: %w", err)
	}

	boroughCodes = transform.CodeMap(types.Boroughs, types.BoroughCode)
	cuisineCodes = transform.CodeMap(types.Cuisines, types.CuisineCode)

	cleaned := transform.Clean(rows, names, boroughCodes, cuisineCodes)
	log.Debug("rows cleaned", "raw", len(rows), "kept", len(cleaned))

	facts, err = transform.Normalize(cleaned, boroughCodes, cuisineCodes)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("normalizing: %w", err)
	}
	return facts, boroughCodes, cuisineCodes, nil
}

// fullBuild creates the schema and loads all three tables in dependency
// order. Each table load is its own transaction; the trio is not atomic
// as a unit, and recovery from a failure in between is delete-and-rerun.
func (p *Pipeline) fullBuild(ctx context.Context, log *slog.Logger) error {
	facts, boroughCodes, cuisineCodes, err := p.extract(ctx, log)
	if err != nil {
		return err
	}
	populations, err := p.populations()
	if err != nil {
		return fmt.Errorf("loading populations: %w", err)
	}

	if err := p.store.Init(); err != nil {
		return err
	}

	boroughs := transform.BuildBoroughs(types.Boroughs, boroughCodes, populations)
	if err := p.store.FreshBoroughs(boroughs); err != nil {
		return err
	}
	metrics.RowsLoadedTotal.WithLabelValues("boroughs", "full").Add(float64(len(boroughs)))

	cuisines := transform.BuildCuisines(types.Cuisines, cuisineCodes)
	if err := p.store.FreshCuisines(cuisines); err != nil {
		return err
	}
	metrics.RowsLoadedTotal.WithLabelValues("cuisines", "full").Add(float64(len(cuisines)))

	if err := p.store.FreshRestaurants(facts); err != nil {
		return err
	}
	metrics.RowsLoadedTotal.WithLabelValues("restaurants", "full").Add(float64(len(facts)))

	log.Info("full build complete", "restaurants", len(facts))
	return nil
}

// incremental refreshes the fact table and the borough populations
// without touching dimension membership: expired rows go, rows with
// novel ids arrive, existing rows stay as they are.
func (p *Pipeline) incremental(ctx context.Context, log *slog.Logger) error {
	facts, _, _, err := p.extract(ctx, log)
	if err != nil {
		return err
	}
	populations, err := p.populations()
	if err != nil {
		return fmt.Errorf("loading populations: %w", err)
	}

	cutoff := p.clock.Now().AddDate(0, 0, -p.upstream.CutoffYears*365)
	deleted, err := p.store.DeleteExpired(cutoff)
	if err != nil {
		return err
	}

	inserted, err := p.store.UpsertNew(facts)
	if err != nil {
		return err
	}
	metrics.RowsLoadedTotal.WithLabelValues("restaurants", "incremental").Add(float64(inserted))

	if err := p.store.UpdatePopulation(populations); err != nil {
		return err
	}

	log.Info("incremental refresh complete", "deleted", deleted, "inserted", inserted)
	return nil
}

// runID tags one pipeline run's log records. UUID v7 sorts by time;
// fall back to v4 if the clock-based generator fails.
func runID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
