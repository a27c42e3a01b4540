package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ribbon/internal/ribbon"
	"github.com/banshee-data/ribbon/internal/timeutil"
)

func setupTestStore(t *testing.T) *RunStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunStore(db)
}

func testReport(distM float64, ambiguous []int, packets ...ribbon.Packet) *ribbon.Report {
	params := ribbon.DefaultParams()
	params.DistanceThresholdM = distM
	params.GridCellM = distM
	det := &ribbon.Detection{
		IdxMin:       0,
		IdxMax:       999,
		PointsTotal:  1000,
		GridCells:    321,
		AmbiguousIdx: ambiguous,
	}
	rep := ribbon.NewReport(det, packets, ribbon.ClusterStats{SampleHitsDropped: 2}, params)
	rep.Meta.Generator = "ribbon-analyse test"
	return rep
}

func packet(start, end int, idx ...int) ribbon.Packet {
	return ribbon.Packet{
		Start:          start,
		End:            end,
		CountAmbiguous: len(idx),
		AmbiguousIdx:   idx,
		SampleHits:     []ribbon.AmbiguityHit{{I: start, J: start + 500, DistM: 4.5, DeltaIdx: 500}},
	}
}

func TestOpen_Migrates(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, db.MigrateUp())

	status, err := db.MigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, &MigrationStatus{CurrentVersion: 2, LatestVersion: 2}, status)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	require.NoError(t, err)
	run, err := NewRunStore(db).InsertRun(testReport(40, []int{1}, packet(1, 1, 1)), "a.json", "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := NewRunStore(db).GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
}

func TestRunStore_InsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	rep := testReport(40, []int{10, 12, 400}, packet(10, 12, 10, 12), packet(400, 400, 400))

	run, err := store.InsertRun(rep, "ribbon.json", "baseline")
	require.NoError(t, err)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 3, run.AmbiguousCount)
	assert.Equal(t, 2, run.PacketCount)

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, got.Meta.Truncation.SampleHitsDropped)

	gotRep, err := store.GetReport(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(rep, gotRep); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	_, err = store.GetRun("missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	_, err = store.GetReport("missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRunStore_ListPackets(t *testing.T) {
	store := setupTestStore(t)
	rep := testReport(40, []int{10, 12, 400}, packet(10, 12, 10, 12), packet(400, 400, 400))
	run, err := store.InsertRun(rep, "ribbon.json", "")
	require.NoError(t, err)

	packets, err := store.ListPackets(run.RunID)
	require.NoError(t, err)
	want := []*PacketRow{
		{RunID: run.RunID, PacketNo: 1, Start: 10, End: 12, CountAmbiguous: 2, Density: 1, Tier: ribbon.TierA},
		{RunID: run.RunID, PacketNo: 2, Start: 400, End: 400, CountAmbiguous: 1, Density: 1, Tier: ribbon.TierA},
	}
	if diff := cmp.Diff(want, packets); diff != "" {
		t.Errorf("packets mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.InsertRun(testReport(40, nil), "ribbon.json", "")
		require.NoError(t, err)
		ids = append(ids, run.RunID)
	}

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].RunID)
	assert.Equal(t, ids[0], runs[2].RunID)

	runs, err = store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunStore_ListRunsByCreatedAt(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	store := setupTestStore(t).WithClock(clock)

	newer, err := store.InsertRun(testReport(40, nil), "newer.json", "")
	require.NoError(t, err)
	clock.Advance(-time.Hour)
	older, err := store.InsertRun(testReport(40, nil), "older.json", "")
	require.NoError(t, err)
	assert.Equal(t, time.Hour.Nanoseconds(), newer.CreatedAt-older.CreatedAt)

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)
	assert.Equal(t, older.RunID, runs[1].RunID)
}

func TestRunStore_DeleteRun(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.InsertRun(testReport(40, []int{5}, packet(5, 5, 5)), "ribbon.json", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteRun(run.RunID))
	_, err = store.GetRun(run.RunID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	packets, err := store.ListPackets(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, packets)

	assert.True(t, errors.Is(store.DeleteRun(run.RunID), sql.ErrNoRows))
}

func TestRunStore_CompareRuns(t *testing.T) {
	store := setupTestStore(t)
	run1, err := store.InsertRun(testReport(40, []int{1, 2, 3, 50}, packet(1, 3, 1, 2, 3), packet(50, 50, 50)), "ribbon.json", "")
	require.NoError(t, err)
	run2, err := store.InsertRun(testReport(60, []int{2, 3, 4, 5, 90}, packet(2, 5, 2, 3, 4, 5), packet(90, 90, 90)), "ribbon.json", "")
	require.NoError(t, err)

	c, err := store.CompareRuns(run1.RunID, run2.RunID)
	require.NoError(t, err)

	assert.Equal(t, 1, c.AmbiguousDelta)
	assert.Equal(t, 0, c.PacketDelta)
	assert.Equal(t, 2, c.SharedAmbiguous)
	assert.Equal(t, 2, c.OnlyInRun1)
	assert.Equal(t, 3, c.OnlyInRun2)

	assert.Equal(t, map[string]any{
		"distance_threshold_m": map[string]any{"run1": 40.0, "run2": 60.0},
		"grid_cell_m":          map[string]any{"run1": 40.0, "run2": 60.0},
	}, c.ParamDiff)

	_, err = store.CompareRuns(run1.RunID, "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestOverlapSorted(t *testing.T) {
	shared, onlyA, onlyB := overlapSorted([]int{1, 3, 5, 7}, []int{3, 4, 7, 9, 11})
	assert.Equal(t, 2, shared)
	assert.Equal(t, 2, onlyA)
	assert.Equal(t, 3, onlyB)

	shared, onlyA, onlyB = overlapSorted(nil, []int{1})
	assert.Equal(t, 0, shared)
	assert.Equal(t, 0, onlyA)
	assert.Equal(t, 1, onlyB)
}
