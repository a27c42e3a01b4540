package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ribbon/internal/monitoring"
	"github.com/banshee-data/ribbon/internal/ribbon"
	"github.com/banshee-data/ribbon/internal/storage/sqlite"
	"github.com/banshee-data/ribbon/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// seed records two analyses of the same ribbon at different thresholds.
func seed(t *testing.T) (dbPath string, ids [2]string) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "runs.db")
	points, err := ribbon.DecodePointsJSON(strings.NewReader(testutil.OutAndBackJSON(120, 20)))
	require.NoError(t, err)

	db, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	store := sqlite.NewRunStore(db)

	for k, dist := range []float64{25, 40} {
		params := ribbon.DefaultParams()
		params.DistanceThresholdM = dist
		rep, err := ribbon.Analyse(context.Background(), points, params)
		require.NoError(t, err)
		r, err := store.InsertRun(rep, "points.json", "")
		require.NoError(t, err)
		ids[k] = r.RunID
	}
	return dbPath, ids
}

func runWith(t *testing.T, args ...string) (string, error) {
	t.Helper()
	o, err := parseFlags(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = run(&out, o)
	return out.String(), err
}

func TestRuns_List(t *testing.T) {
	dbPath, ids := seed(t)
	out, err := runWith(t, "-db", dbPath)
	require.NoError(t, err)

	var runs []sqlite.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.ElementsMatch(t, ids[:], []string{runs[0].RunID, runs[1].RunID})

	out, err = runWith(t, "-db", dbPath, "-list", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	assert.Len(t, runs, 1)
}

func TestRuns_Show(t *testing.T) {
	dbPath, ids := seed(t)
	out, err := runWith(t, "-db", dbPath, "-show", ids[1])
	require.NoError(t, err)

	var shown struct {
		Run     sqlite.Run         `json:"run"`
		Packets []sqlite.PacketRow `json:"packets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, ids[1], shown.Run.RunID)
	assert.Len(t, shown.Packets, shown.Run.PacketCount)

	_, err = runWith(t, "-db", dbPath, "-show", "missing")
	assert.Error(t, err)
}

func TestRuns_Compare(t *testing.T) {
	dbPath, ids := seed(t)
	out, err := runWith(t, "-db", dbPath, "-compare", ids[0]+", "+ids[1])
	require.NoError(t, err)

	var cmp sqlite.RunComparison
	require.NoError(t, json.Unmarshal([]byte(out), &cmp))
	assert.Contains(t, cmp.ParamDiff, "distance_threshold_m")
	assert.Equal(t, cmp.Run2.AmbiguousCount-cmp.Run1.AmbiguousCount, cmp.AmbiguousDelta)

	_, err = runWith(t, "-db", dbPath, "-compare", ids[0])
	assert.Error(t, err)
}

func TestRuns_Delete(t *testing.T) {
	dbPath, ids := seed(t)
	_, err := runWith(t, "-db", dbPath, "-delete", ids[0])
	require.NoError(t, err)

	_, err = runWith(t, "-db", dbPath, "-delete", ids[0])
	assert.ErrorContains(t, err, "not found")

	out, err := runWith(t, "-db", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, ids[0])
	assert.Contains(t, out, ids[1])
}

func TestRuns_Migrations(t *testing.T) {
	out, err := runWith(t, "-db", filepath.Join(t.TempDir(), "fresh.db"), "-migrations")
	require.NoError(t, err)

	var status sqlite.MigrationStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, status.LatestVersion, status.CurrentVersion)
	assert.False(t, status.Dirty)
}
