package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/courier/pkg/types"
)

type fakeExtractor struct {
	rows  []types.InspectionRow
	names []string
	calls int
}

func (f *fakeExtractor) Inspections(context.Context) ([]types.InspectionRow, error) {
	f.calls++
	return f.rows, nil
}

func (f *fakeExtractor) FastFoodNames(context.Context) ([]string, error) {
	return f.names, nil
}

func noPopulations() (map[string]int64, error) {
	return map[string]int64{}, nil
}

func row(id int64, name, borough, cuisine, date string) types.InspectionRow {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return types.InspectionRow{
		ID: id, Name: name, Borough: borough, Cuisine: cuisine,
		InspectionDate: d, Lat: 40.7, Lng: -73.9,
	}
}

func newPipeline(t *testing.T, dbPath string, ex Extractor, clock clockwork.Clock) *Pipeline {
	t.Helper()
	upstream := types.UpstreamConfig{CutoffYears: 2}
	refresh := types.RefreshConfig{UpdateInterval: 14 * 24 * time.Hour}
	p, err := New(dbPath, ex, noPopulations, upstream, refresh, clock, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestRun_MissingStorageTriggersFullBuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), types.DatabaseFile)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	ex := &fakeExtractor{rows: []types.InspectionRow{
		row(1, "Wo Hop", "Manhattan", "Chinese", "2025-12-01"),
		row(2, "Lucali", "Brooklyn", "Italian", "2026-01-15"),
	}}

	p := newPipeline(t, dbPath, ex, clock)
	assert.False(t, p.Metadata().Exists)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 1, ex.calls)
	markers, err := p.Store().Markers()
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, "Wo Hop", markers[0].Name)
	assert.Equal(t, "Chinese", markers[0].Cuisine)
}

func TestRun_FreshStorageIsNoop(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), types.DatabaseFile)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	seed := &fakeExtractor{rows: []types.InspectionRow{
		row(1, "Wo Hop", "Manhattan", "Chinese", "2025-12-01"),
	}}
	first := newPipeline(t, dbPath, seed, clock)
	require.NoError(t, first.Run(context.Background()))
	require.NoError(t, first.Close())

	edited := now.Add(-time.Hour)
	require.NoError(t, os.Chtimes(dbPath, edited, edited))

	ex := &fakeExtractor{}
	p := newPipeline(t, dbPath, ex, clock)
	meta := p.Metadata()
	assert.True(t, meta.Exists)
	assert.False(t, meta.NeedsUpdate)

	require.NoError(t, p.Run(context.Background()))
	assert.Zero(t, ex.calls, "a fresh store must not trigger extraction")

	markers, err := p.Store().Markers()
	require.NoError(t, err)
	assert.Len(t, markers, 1, "a fresh store must be left as it is")
}

func TestRun_StaleStorageTriggersIncrementalRefresh(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), types.DatabaseFile)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	seed := &fakeExtractor{rows: []types.InspectionRow{
		row(1, "Bygone", "Manhattan", "Chinese", "2023-01-01"),
		row(2, "Keeper", "Brooklyn", "Italian", "2025-12-01"),
	}}
	first := newPipeline(t, dbPath, seed, clock)
	require.NoError(t, first.Run(context.Background()))
	require.NoError(t, first.Close())

	edited := now.Add(-21 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(dbPath, edited, edited))

	ex := &fakeExtractor{rows: []types.InspectionRow{
		row(2, "Keeper Renamed", "Brooklyn", "Italian", "2026-02-01"),
		row(3, "Novel", "Manhattan", "Chinese", "2026-05-01"),
	}}
	p := newPipeline(t, dbPath, ex, clock)
	meta := p.Metadata()
	assert.True(t, meta.Exists)
	assert.True(t, meta.NeedsUpdate)

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, ex.calls)

	markers, err := p.Store().Markers()
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, int64(2), markers[0].ID)
	assert.Equal(t, "Keeper", markers[0].Name, "known ids keep their stored attributes")
	assert.Equal(t, int64(3), markers[1].ID)
	assert.Equal(t, "Novel", markers[1].Name)
}

func TestRun_SecondCallIsNoop(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), types.DatabaseFile)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	ex := &fakeExtractor{rows: []types.InspectionRow{
		row(1, "Wo Hop", "Manhattan", "Chinese", "2025-12-01"),
	}}

	p := newPipeline(t, dbPath, ex, clock)
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, ex.calls, "a pipeline runs at most once per process")
}

func TestNew_ProbeFailureAbortsConstruction(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// Stat on a path under a regular file fails with ENOTDIR, which is
	// not the missing-file signal and must abort.
	dbPath := filepath.Join(blocker, types.DatabaseFile)
	_, err := New(dbPath, &fakeExtractor{}, noPopulations,
		types.UpstreamConfig{CutoffYears: 2},
		types.RefreshConfig{UpdateInterval: 14 * 24 * time.Hour},
		clockwork.NewFakeClockAt(time.Now()), slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
