package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minhpvo/ORB-SLAM2/internal/timeutil"
)

// Run status values.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// Run is one batch invocation over a dataset split.
type Run struct {
	RunID         string `json:"run_id"`
	Split         string `json:"split"`
	ParamsJSON    string `json:"params_json"`
	StartedAtNs   int64  `json:"started_at_ns"`
	FinishedAtNs  *int64 `json:"finished_at_ns,omitempty"`
	TotalExamples int    `json:"total_examples"`
	Status        string `json:"status"`
}

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunStore provides persistence for batch runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore. A nil clock uses the wall clock.
func NewRunStore(db *sql.DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// Begin inserts a running run. If run.RunID is empty, a new UUID is
// generated; StartedAtNs defaults to the clock.
func (s *RunStore) Begin(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAtNs == 0 {
		run.StartedAtNs = s.clock.Now().UnixNano()
	}
	run.Status = RunRunning

	_, err := s.db.Exec(`
		INSERT INTO egodata_runs (run_id, split, params_json, started_at_ns, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, run.Split, run.ParamsJSON, run.StartedAtNs, run.Status)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records the outcome of a run.
func (s *RunStore) Finish(runID string, totalExamples int, status string) error {
	res, err := s.db.Exec(`
		UPDATE egodata_runs SET finished_at_ns = ?, total_examples = ?, status = ?
		WHERE run_id = ?
	`, s.clock.Now().UnixNano(), totalExamples, status, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `run_id, split, params_json, started_at_ns, finished_at_ns, total_examples, status`

func scanRun(sc interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var finished sql.NullInt64
	if err := sc.Scan(&r.RunID, &r.Split, &r.ParamsJSON, &r.StartedAtNs, &finished, &r.TotalExamples, &r.Status); err != nil {
		return nil, err
	}
	if finished.Valid {
		r.FinishedAtNs = &finished.Int64
	}
	return r, nil
}

// Get returns one run.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM egodata_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns runs, newest first.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM egodata_runs ORDER BY started_at_ns DESC LIMIT ?`, limit)
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

// Duration returns how long a finished run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAtNs == nil {
		return 0
	}
	return time.Duration(*r.FinishedAtNs - r.StartedAtNs)
}
