package l3windows

import (
	"fmt"
	"iter"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
)

var logf = monitoring.Stage("windows")

// Params sizes one example in seconds and frames per second.
type Params struct {
	PastSeconds   int
	FutureSeconds int
	FPS           int
}

// PastFrames is the number of frames before and including the pivot.
func (p Params) PastFrames() int { return p.PastSeconds * p.FPS }

// FutureFrames is the number of frames after the pivot.
func (p Params) FutureFrames() int { return p.FutureSeconds * p.FPS }

// Frames returns example_frames = (past + future) × fps.
func Frames(p Params) int { return p.PastFrames() + p.FutureFrames() }

// Validate rejects sizes that cannot produce a window.
func (p Params) Validate() error {
	if p.PastSeconds <= 0 || p.FutureSeconds <= 0 || p.FPS <= 0 {
		return fmt.Errorf("window params must be positive: past=%ds future=%ds fps=%d", p.PastSeconds, p.FutureSeconds, p.FPS)
	}
	return nil
}

// Run is a maximal range of valid-table positions whose original indices are
// consecutive. Pos is the first valid-table position; Start is its original
// frame index.
type Run struct {
	Pos   int
	Start int
	Len   int
}

// Span is one window: Len original frames starting at Start, stored at
// valid-table positions [Pos, Pos+Len).
type Span struct {
	Pos   int
	Start int
	Len   int
}

// End returns the last original frame index of the span.
func (s Span) End() int { return s.Start + s.Len - 1 }

// Runs yields the maximal contiguous runs of the valid table in order.
func Runs(valid *egodata.ValidFrameTable) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		n := valid.Len()
		for i := 0; i < n; {
			j := i + 1
			for j < n && valid.Rows[j].Index == valid.Rows[j-1].Index+1 {
				j++
			}
			if !yield(Run{Pos: i, Start: valid.Rows[i].Index, Len: j - i}) {
				return
			}
			i = j
		}
	}
}

// Slice cuts a run into consecutive non-overlapping spans of length frames.
// A remainder shorter than frames is discarded.
func Slice(run Run, frames int) []Span {
	if frames <= 0 {
		return nil
	}
	spans := make([]Span, 0, run.Len/frames)
	for off := 0; off+frames <= run.Len; off += frames {
		spans = append(spans, Span{Pos: run.Pos + off, Start: run.Start + off, Len: frames})
	}
	return spans
}

// Extract returns every window of exactly frames contiguous original indices
// present in the valid table. Windows never overlap and are ordered by start.
//
// The result matches a positional walk that accepts a candidate at valid
// position idx when valid[idx+frames-1] is exactly frames-1 original indices
// after valid[idx], advancing by frames on success and by one otherwise.
func Extract(valid *egodata.ValidFrameTable, frames int) []Span {
	var spans []Span
	for run := range Runs(valid) {
		spans = append(spans, Slice(run, frames)...)
	}
	if len(spans) == 0 {
		logf("no window of %d contiguous frames in %d valid frames", frames, valid.Len())
	}
	return spans
}

// Rows returns the valid-table rows covered by a span.
func Rows(valid *egodata.ValidFrameTable, s Span) []egodata.FramePose {
	return valid.Rows[s.Pos : s.Pos+s.Len]
}
