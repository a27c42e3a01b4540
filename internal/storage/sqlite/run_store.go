package sqlite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/ribbon/internal/ribbon"
	"github.com/banshee-data/ribbon/internal/timeutil"
)

// Run is the summary row of one persisted analysis.
type Run struct {
	RunID     string `json:"run_id"`
	CreatedAt int64  `json:"created_at"` // unix nanos
	Source    string `json:"source"`
	Notes     string `json:"notes,omitempty"`
	Generator string `json:"generator,omitempty"`

	Meta           ribbon.ReportMeta `json:"meta"`
	AmbiguousCount int               `json:"ambiguous_count"`
	PacketCount    int               `json:"packet_count"`
}

// PacketRow is one packet of a persisted run.
type PacketRow struct {
	RunID          string             `json:"run_id"`
	PacketNo       int                `json:"packet_no"` // 1-based report order
	Start          int                `json:"start"`
	End            int                `json:"end"`
	CountAmbiguous int                `json:"count_ambiguous"`
	Density        float64            `json:"density"`
	Tier           ribbon.DensityTier `json:"tier"`
}

// RunStore provides persistence for analysis runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a new RunStore stamping runs with the wall clock.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB, clock: timeutil.RealClock{}}
}

// WithClock replaces the clock used for created_at.
func (s *RunStore) WithClock(c timeutil.Clock) *RunStore {
	s.clock = c
	return s
}

// InsertRun stores rep and its packets under a new run ID.
func (s *RunStore) InsertRun(rep *ribbon.Report, source, notes string) (*Run, error) {
	var buf bytes.Buffer
	if err := ribbon.EncodeReport(&buf, rep); err != nil {
		return nil, err
	}

	run := &Run{
		RunID:          uuid.New().String(),
		CreatedAt:      s.clock.Now().UnixNano(),
		Source:         source,
		Notes:          notes,
		Generator:      rep.Meta.Generator,
		Meta:           rep.Meta,
		AmbiguousCount: len(rep.AmbiguousIdx),
		PacketCount:    len(rep.Packets),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	m := rep.Meta
	_, err = tx.Exec(`
		INSERT INTO ribbon_runs (
			run_id, created_at, source, notes, generator,
			idx_min, idx_max, points_total,
			distance_threshold_m, min_index_gap, packet_gap, grid_cell_m, grid_cells,
			max_hits_per_point, max_sample_hits_per_packet,
			ambiguous_count, packet_count,
			points_at_hit_cap, sample_hits_dropped, report_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID, run.CreatedAt, run.Source, nullString(run.Notes), nullString(run.Generator),
		m.IdxMin, m.IdxMax, m.PointsTotal,
		m.Thresholds.DistM, m.Thresholds.DeltaIdxMin, m.PacketGap, m.GridCellM, m.GridCells,
		m.MaxHitsPerPoint, m.MaxSampleHitsPerPacket,
		run.AmbiguousCount, run.PacketCount,
		m.Truncation.PointsAtHitCap, m.Truncation.SampleHitsDropped, buf.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO ribbon_packets (
			run_id, packet_no, start_idx, end_idx, count_ambiguous, density, tier
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert packet: %w", err)
	}
	defer stmt.Close()

	for n, p := range rep.Packets {
		if _, err := stmt.Exec(run.RunID, n+1, p.Start, p.End, p.CountAmbiguous, p.Density(), string(p.Tier())); err != nil {
			return nil, fmt.Errorf("insert packet %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

const runColumns = `
	run_id, created_at, source, notes, generator,
	idx_min, idx_max, points_total,
	distance_threshold_m, min_index_gap, packet_gap, grid_cell_m, grid_cells,
	max_hits_per_point, max_sample_hits_per_packet,
	ambiguous_count, packet_count,
	points_at_hit_cap, sample_hits_dropped
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var notes, generator sql.NullString
	m := &r.Meta
	err := row.Scan(
		&r.RunID, &r.CreatedAt, &r.Source, &notes, &generator,
		&m.IdxMin, &m.IdxMax, &m.PointsTotal,
		&m.Thresholds.DistM, &m.Thresholds.DeltaIdxMin, &m.PacketGap, &m.GridCellM, &m.GridCells,
		&m.MaxHitsPerPoint, &m.MaxSampleHitsPerPacket,
		&r.AmbiguousCount, &r.PacketCount,
		&m.Truncation.PointsAtHitCap, &m.Truncation.SampleHitsDropped,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		r.Notes = notes.String
	}
	if generator.Valid {
		r.Generator = generator.String
		m.Generator = generator.String
	}
	return r, nil
}

// GetRun returns the run summary. A missing run yields sql.ErrNoRows.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM ribbon_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// GetReport returns the full stored report of a run.
func (s *RunStore) GetReport(runID string) (*ribbon.Report, error) {
	var data string
	err := s.db.QueryRow(`SELECT report_json FROM ribbon_runs WHERE run_id = ?`, runID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return ribbon.DecodeReport(bytes.NewReader([]byte(data)))
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM ribbon_runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListPackets returns the packets of a run in report order.
func (s *RunStore) ListPackets(runID string) ([]*PacketRow, error) {
	rows, err := s.db.Query(`
		SELECT run_id, packet_no, start_idx, end_idx, count_ambiguous, density, tier
		FROM ribbon_packets
		WHERE run_id = ?
		ORDER BY packet_no
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list packets: %w", err)
	}
	defer rows.Close()

	var packets []*PacketRow
	for rows.Next() {
		p := &PacketRow{}
		var tier string
		if err := rows.Scan(&p.RunID, &p.PacketNo, &p.Start, &p.End, &p.CountAmbiguous, &p.Density, &tier); err != nil {
			return nil, fmt.Errorf("scan packet: %w", err)
		}
		p.Tier = ribbon.DensityTier(tier)
		packets = append(packets, p)
	}
	return packets, rows.Err()
}

// DeleteRun removes a run and its packets. A missing run yields sql.ErrNoRows.
func (s *RunStore) DeleteRun(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ribbon_packets WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete packets: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM ribbon_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
