package sqlite

import (
	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/timeutil"
)

// Catalog bundles the stores used by a batch run.
type Catalog struct {
	Runs      *RunStore
	SubVideos *SubVideoStore
	Examples  *ExampleStore
}

// NewCatalog builds the stores over db.
func NewCatalog(db *DB, clock timeutil.Clock) *Catalog {
	return &Catalog{
		Runs:      NewRunStore(db.DB, clock),
		SubVideos: NewSubVideoStore(db.DB),
		Examples:  NewExampleStore(db.DB),
	}
}

// BeginRun starts a run and returns its id.
func (c *Catalog) BeginRun(split, paramsJSON string) (string, error) {
	run := &Run{Split: split, ParamsJSON: paramsJSON}
	if err := c.Runs.Begin(run); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// RecordSubVideo stores a sub-video outcome and its segments.
func (c *Catalog) RecordSubVideo(sv *SubVideo, segs []egodata.StableSegment) error {
	return c.SubVideos.Insert(sv, segs)
}

// RecordExamples stores example summaries.
func (c *Catalog) RecordExamples(runID string, examples []egodata.Example) error {
	return c.Examples.InsertBatch(runID, examples)
}

// FinishRun closes a run.
func (c *Catalog) FinishRun(runID string, totalExamples int, status string) error {
	return c.Runs.Finish(runID, totalExamples, status)
}
