// Package store keeps a history of best-alignment runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/gamma/internal/gamma"
	"github.com/banshee-data/gamma/internal/timeutil"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("store: run not found")

// Store wraps the run history database.
type Store struct {
	*sql.DB
	// Clock stamps recorded runs.
	Clock timeutil.Clock
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db, Clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Run is one stored run without its groupings.
type Run struct {
	RunID       string          `json:"run_id"`
	Objective   gamma.Objective `json:"objective"`
	Disorder    float64         `json:"disorder"`
	Annotators  int             `json:"annotators"`
	Units       int             `json:"units"`
	Candidates  int64           `json:"candidates"`
	Nodes       int64           `json:"nodes"`
	Refinements int             `json:"refinements"`
	Relaxed     bool            `json:"relaxed"`
	ElapsedMS   int64           `json:"elapsed_ms"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RecordRun stores a run summary and its groupings in one transaction.
func (s *Store) RecordRun(ctx context.Context, sum gamma.Summary) error {
	if sum.RunID == "" {
		return fmt.Errorf("run summary has no run_id")
	}
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO alignment_runs (
			run_id, objective, disorder, annotators, units, candidates,
			nodes, refinements, relaxed, elapsed_ms, created_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, string(sum.Objective), sum.Disorder, sum.Annotators, sum.Units, sum.Candidates,
		sum.Nodes, sum.Refinements, sum.Relaxed, sum.ElapsedMS, s.Clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", sum.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alignment_groupings (run_id, idx, disorder, slots_json)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare grouping insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range sum.Groupings {
		slots, err := json.Marshal(g.Slots)
		if err != nil {
			return fmt.Errorf("encode grouping %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, sum.RunID, i, g.Disorder, string(slots)); err != nil {
			return fmt.Errorf("insert grouping %d of run %s: %w", i, sum.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", sum.RunID, err)
	}
	return nil
}

const runColumns = `run_id, objective, disorder, annotators, units, candidates,
	nodes, refinements, relaxed, elapsed_ms, created_unix`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r         Run
		objective string
		created   int64
	)
	err := row.Scan(&r.RunID, &objective, &r.Disorder, &r.Annotators, &r.Units, &r.Candidates,
		&r.Nodes, &r.Refinements, &r.Relaxed, &r.ElapsedMS, &created)
	if err != nil {
		return Run{}, err
	}
	r.Objective = gamma.Objective(objective)
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}

// GetRun loads a stored run, groupings included, as a summary.
func (s *Store) GetRun(ctx context.Context, runID string) (*gamma.Summary, error) {
	r, err := scanRun(s.QueryRowContext(ctx, `SELECT `+runColumns+` FROM alignment_runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}

	sum := &gamma.Summary{
		RunID:       r.RunID,
		Objective:   r.Objective,
		Disorder:    r.Disorder,
		Annotators:  r.Annotators,
		Units:       r.Units,
		Candidates:  r.Candidates,
		Nodes:       r.Nodes,
		Refinements: r.Refinements,
		Relaxed:     r.Relaxed,
		ElapsedMS:   r.ElapsedMS,
	}

	rows, err := s.QueryContext(ctx, `
		SELECT disorder, slots_json FROM alignment_groupings
		WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query groupings of run %s: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			g     gamma.GroupingSummary
			slots string
		)
		if err := rows.Scan(&g.Disorder, &slots); err != nil {
			return nil, fmt.Errorf("scan grouping: %w", err)
		}
		if err := json.Unmarshal([]byte(slots), &g.Slots); err != nil {
			return nil, fmt.Errorf("decode grouping slots: %w", err)
		}
		sum.Groupings = append(sum.Groupings, g)
	}
	return sum, rows.Err()
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM alignment_runs ORDER BY created_unix DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its groupings.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM alignment_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
