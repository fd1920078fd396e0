package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
)

// Sub-video outcome values.
const (
	StatusOK          = "ok"
	StatusMissingFile = "missing_file"
	StatusConsistency = "consistency"
	StatusEmpty       = "empty"
	StatusError       = "error"
)

// SubVideo is the processing outcome of one sub-video in a run.
type SubVideo struct {
	RunID            string `json:"run_id"`
	VideoID          string `json:"video_id"`
	SubID            string `json:"sub_id"`
	FPS              int    `json:"fps"`
	Frames           int    `json:"frames"`
	KeyFrames        int    `json:"keyframes"`
	ValidFrames      int    `json:"valid_frames"`
	DegenerateFrames int    `json:"degenerate_frames"`
	Segments         int    `json:"segments"`
	Examples         int    `json:"examples"`
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
}

// SubVideoStore provides persistence for sub-video outcomes and their
// stable segments.
type SubVideoStore struct {
	db *sql.DB
}

// NewSubVideoStore creates a SubVideoStore.
func NewSubVideoStore(db *sql.DB) *SubVideoStore {
	return &SubVideoStore{db: db}
}

// Insert records a sub-video outcome together with its stable segments.
func (s *SubVideoStore) Insert(sv *SubVideo, segs []egodata.StableSegment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin sub-video insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO egodata_sub_videos (
			run_id, video_id, sub_id, fps, frames, keyframes, valid_frames,
			degenerate_frames, segments, examples, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sv.RunID, sv.VideoID, sv.SubID, sv.FPS, sv.Frames, sv.KeyFrames, sv.ValidFrames,
		sv.DegenerateFrames, sv.Segments, sv.Examples, sv.Status, nullString(sv.Error),
	)
	if err != nil {
		return fmt.Errorf("insert sub-video %s: %w", sv.SubID, err)
	}

	for i, seg := range segs {
		_, err := tx.Exec(`
			INSERT INTO egodata_segments (run_id, sub_id, seq, start_t, end_t, start_idx, end_idx)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sv.RunID, sv.SubID, i, seg.StartT, seg.EndT, seg.StartIdx, seg.EndIdx)
		if err != nil {
			return fmt.Errorf("insert segment %d of %s: %w", i, sv.SubID, err)
		}
	}
	return tx.Commit()
}

// ListByRun returns the sub-videos of a run ordered by id.
func (s *SubVideoStore) ListByRun(runID string) ([]*SubVideo, error) {
	rows, err := s.db.Query(`
		SELECT run_id, video_id, sub_id, fps, frames, keyframes, valid_frames,
		       degenerate_frames, segments, examples, status, error
		FROM egodata_sub_videos
		WHERE run_id = ?
		ORDER BY sub_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list sub-videos: %w", err)
	}
	defer rows.Close()

	var out []*SubVideo
	for rows.Next() {
		sv := &SubVideo{}
		var errText sql.NullString
		if err := rows.Scan(
			&sv.RunID, &sv.VideoID, &sv.SubID, &sv.FPS, &sv.Frames, &sv.KeyFrames, &sv.ValidFrames,
			&sv.DegenerateFrames, &sv.Segments, &sv.Examples, &sv.Status, &errText,
		); err != nil {
			return nil, fmt.Errorf("scan sub-video: %w", err)
		}
		if errText.Valid {
			sv.Error = errText.String
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// Segments returns the stable segments recorded for a sub-video.
func (s *SubVideoStore) Segments(runID, subID string) ([]egodata.StableSegment, error) {
	rows, err := s.db.Query(`
		SELECT start_t, end_t, start_idx, end_idx
		FROM egodata_segments
		WHERE run_id = ? AND sub_id = ?
		ORDER BY seq
	`, runID, subID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segs []egodata.StableSegment
	for rows.Next() {
		var seg egodata.StableSegment
		if err := rows.Scan(&seg.StartT, &seg.EndT, &seg.StartIdx, &seg.EndIdx); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}
