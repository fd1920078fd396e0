package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
)

// ExampleRow is the catalog summary of one emitted example.
type ExampleRow struct {
	RunID          string `json:"run_id"`
	WindowID       int    `json:"window_id"`
	VideoID        string `json:"video_id"`
	StartFrame     int    `json:"start_frame"`
	EndFrame       int    `json:"end_frame"`
	PastFrames     int    `json:"past_frames"`
	FutureFrames   int    `json:"future_frames"`
	LabelledFrames int    `json:"labelled_frames"`
}

// ExampleStore provides persistence for example summaries.
type ExampleStore struct {
	db *sql.DB
}

// NewExampleStore creates an ExampleStore.
func NewExampleStore(db *sql.DB) *ExampleStore {
	return &ExampleStore{db: db}
}

// labelledFrames counts future frames carrying at least one real action.
func labelledFrames(e *egodata.Example) int {
	n := 0
	for _, labels := range e.ActionLabels {
		if len(labels) > 0 && !labels[0].IsNone() {
			n++
		}
	}
	return n
}

// InsertBatch records examples of a run in one transaction.
func (s *ExampleStore) InsertBatch(runID string, examples []egodata.Example) error {
	if len(examples) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin example insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO egodata_examples (
			run_id, window_id, video_id, start_frame, end_frame,
			past_frames, future_frames, labelled_frames
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare example insert: %w", err)
	}
	defer stmt.Close()

	for i := range examples {
		e := &examples[i]
		if _, err := stmt.Exec(runID, e.WindowID, e.VideoID, e.StartFrame, e.EndFrame(),
			len(e.PastPositions), len(e.FuturePositions), labelledFrames(e)); err != nil {
			return fmt.Errorf("insert example %d: %w", e.WindowID, err)
		}
	}
	return tx.Commit()
}

// ListByVideo returns the examples of one sub-video in a run, by start frame.
func (s *ExampleStore) ListByVideo(runID, videoID string) ([]*ExampleRow, error) {
	rows, err := s.db.Query(`
		SELECT run_id, window_id, video_id, start_frame, end_frame,
		       past_frames, future_frames, labelled_frames
		FROM egodata_examples
		WHERE run_id = ? AND video_id = ?
		ORDER BY start_frame
	`, runID, videoID)
	if err != nil {
		return nil, fmt.Errorf("list examples: %w", err)
	}
	defer rows.Close()

	var out []*ExampleRow
	for rows.Next() {
		r := &ExampleRow{}
		if err := rows.Scan(&r.RunID, &r.WindowID, &r.VideoID, &r.StartFrame, &r.EndFrame,
			&r.PastFrames, &r.FutureFrames, &r.LabelledFrames); err != nil {
			return nil, fmt.Errorf("scan example: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByRun returns the number of examples recorded for a run.
func (s *ExampleStore) CountByRun(runID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM egodata_examples WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count examples: %w", err)
	}
	return n, nil
}
