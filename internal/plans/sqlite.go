package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/phasekeep/internal/phase"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteRegistry is the persistent plan registry.
type SQLiteRegistry struct {
	db  *sql.DB
	seq Sequencer
}

// OpenSQLite opens (creating if needed) the plan database at path and runs
// migrations.
func OpenSQLite(path string, seq Sequencer) (*SQLiteRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("plans: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("plans: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("plans: pragma %q: %w", p, err)
		}
	}

	r := &SQLiteRegistry{db: db, seq: seq}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("plans: migration: %w", err)
	}
	return r, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func (r *SQLiteRegistry) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS plans (
			work_item_id  INTEGER PRIMARY KEY,
			workflow_name TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL
		);
	`)
	return err
}

// Create registers a plan for a work item.
func (r *SQLiteRegistry) Create(ctx context.Context, plan Plan) (Plan, error) {
	if err := validatePlan(plan); err != nil {
		return Plan{}, err
	}
	seq, err := r.seq.Sequence(plan.WorkflowName)
	if err != nil {
		return Plan{}, err
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = timeNow().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plans (work_item_id, workflow_name, title, created_at) VALUES (?, ?, ?, ?)`,
		plan.WorkItemID, plan.WorkflowName, plan.Title, plan.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Plan{}, &DuplicatePlanError{WorkItemID: plan.WorkItemID}
		}
		return Plan{}, fmt.Errorf("plans: insert work item #%d: %w", plan.WorkItemID, err)
	}

	plan.PhaseSequence = seq
	return plan, nil
}

// GetPlan returns the plan of a work item with its phase sequence resolved.
func (r *SQLiteRegistry) GetPlan(ctx context.Context, workItemID int) (Plan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT work_item_id, workflow_name, title, created_at FROM plans WHERE work_item_id = ?`,
		workItemID,
	)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, &phase.PlanNotFoundError{WorkItemID: workItemID}
		}
		return Plan{}, fmt.Errorf("plans: load work item #%d: %w", workItemID, err)
	}

	seq, err := r.seq.Sequence(plan.WorkflowName)
	if err != nil {
		return Plan{}, fmt.Errorf("plans: work item #%d: %w", workItemID, err)
	}
	plan.PhaseSequence = seq
	return plan, nil
}

// List returns every plan ordered by work item id. Plans whose workflow is
// no longer in the catalog are returned without a phase sequence.
func (r *SQLiteRegistry) List(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT work_item_id, workflow_name, title, created_at FROM plans ORDER BY work_item_id`)
	if err != nil {
		return nil, fmt.Errorf("plans: list: %w", err)
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("plans: scan: %w", err)
		}
		if seq, err := r.seq.Sequence(plan.WorkflowName); err == nil {
			plan.PhaseSequence = seq
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (Plan, error) {
	var (
		p       Plan
		created string
	)
	if err := s.Scan(&p.WorkItemID, &p.WorkflowName, &p.Title, &created); err != nil {
		return Plan{}, err
	}
	if ts, err := time.Parse(time.RFC3339, created); err == nil {
		p.CreatedAt = ts
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
