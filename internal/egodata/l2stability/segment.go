package l2stability

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l1poses"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
)

var logf = monitoring.Stage("segment")

// ValidFileName is the cached valid-frame table name inside a sub-video's
// metadata directory.
const ValidFileName = "validFrame.csv"

// Result carries the segmenter output and the diagnostics reported per
// sub-video.
type Result struct {
	// Distances holds one frame/keyframe distance per keyframe.
	Distances []float64
	// Starts and Ends are keyframe positions recorded by the state machine.
	// An End produced by divergence is the diverging keyframe itself.
	Starts []int
	Ends   []int

	Segments []egodata.StableSegment
	Valid    *egodata.ValidFrameTable

	// DroppedDegenerate counts zero-position rows removed from the union of
	// segments; TotalDegenerate counts them across the whole frame table.
	DroppedDegenerate int
	TotalDegenerate   int
}

// Distances returns ‖frame(t_k) − keyframe(t_k)‖ for every keyframe, in
// keyframe order. A keyframe whose timestamp is absent from the frame table
// is a consistency error.
func Distances(traj *egodata.Trajectory) ([]float64, error) {
	out := make([]float64, len(traj.KeyFrames))
	for k, kf := range traj.KeyFrames {
		i, ok := traj.FrameByT(kf.T)
		if !ok {
			return nil, egodata.Consistencyf("keyframe %d at t=%v has no matching frame", k, kf.T)
		}
		fp := traj.Frames[i].Position
		out[k] = floats.Distance(
			[]float64{fp.X, fp.Y, fp.Z},
			[]float64{kf.Position.X, kf.Position.Y, kf.Position.Z},
			2,
		)
	}
	return out, nil
}

// Segment marks the stable ranges of a trajectory and reduces them to the
// valid-frame table.
func Segment(traj *egodata.Trajectory, p Params) (*Result, error) {
	if p.Window < 1 {
		return nil, fmt.Errorf("stable window must be positive, got %d", p.Window)
	}
	dists, err := Distances(traj)
	if err != nil {
		return nil, err
	}

	res := &Result{Distances: dists}
	var open bool
	res.Starts, res.Ends, open = Run(p, dists)
	if len(res.Starts) != len(res.Ends) {
		return nil, egodata.Consistencyf("%d stable starts but %d ends", len(res.Starts), len(res.Ends))
	}
	logf("stable starts %v, ends %v", keyframeTimes(traj, res.Starts), keyframeTimes(traj, res.Ends))

	for n := range res.Starts {
		last := res.Ends[n]
		if !(open && n == len(res.Ends)-1) && last > res.Starts[n] {
			last--
		}
		seg, err := toSegment(traj, res.Starts[n], last)
		if err != nil {
			return nil, err
		}
		res.Segments = append(res.Segments, seg)
	}

	res.TotalDegenerate = traj.DegenerateCount()
	res.Valid, res.DroppedDegenerate = collectValid(traj, res.Segments)
	return res, nil
}

// toSegment maps the first and last agreeing keyframes of a segment to
// frame rows.
func toSegment(traj *egodata.Trajectory, first, last int) (egodata.StableSegment, error) {
	s, e := traj.KeyFrames[first], traj.KeyFrames[last]
	si, ok := traj.FrameByT(s.T)
	if !ok {
		return egodata.StableSegment{}, egodata.Consistencyf("segment start t=%v has no matching frame", s.T)
	}
	ei, ok := traj.FrameByT(e.T)
	if !ok {
		return egodata.StableSegment{}, egodata.Consistencyf("segment end t=%v has no matching frame", e.T)
	}
	return egodata.StableSegment{StartT: s.T, EndT: e.T, StartIdx: si, EndIdx: ei}, nil
}

// collectValid unions the frame rows of every segment and drops zero-position
// rows, keeping those at the very first segment start where the estimator may
// legitimately begin at the origin.
func collectValid(traj *egodata.Trajectory, segs []egodata.StableSegment) (*egodata.ValidFrameTable, int) {
	valid := &egodata.ValidFrameTable{}
	if len(segs) == 0 {
		return valid, 0
	}
	firstT := segs[0].StartT
	dropped := 0
	lastIdx := -1
	for _, seg := range segs {
		for i := max(seg.StartIdx, lastIdx+1); i <= seg.EndIdx; i++ {
			row := traj.Frames[i]
			if row.IsDegenerate() && row.T != firstT {
				dropped++
				continue
			}
			valid.Rows = append(valid.Rows, row)
		}
		lastIdx = max(lastIdx, seg.EndIdx)
	}
	return valid, dropped
}

func keyframeTimes(traj *egodata.Trajectory, positions []int) []float64 {
	out := make([]float64, len(positions))
	for i, k := range positions {
		out[i] = traj.KeyFrames[k].T
	}
	return out
}

// Summarize logs the per-sub-video totals.
func (r *Result) Summarize(traj *egodata.Trajectory) {
	n := len(traj.Frames)
	logf("total frames: %d, total keyframes: %d, valid frames: %d (%.3f), tracking lost or uninitialized frames: %d (%.3f)",
		n, len(traj.KeyFrames), r.Valid.Len(), ratio(r.Valid.Len(), n), r.TotalDegenerate, ratio(r.TotalDegenerate, n))
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// WriteValidCSV persists the valid-frame table.
func WriteValidCSV(fsys fsutil.FileSystem, path string, valid *egodata.ValidFrameTable) error {
	var rows []egodata.FramePose
	if valid != nil {
		rows = valid.Rows
	}
	return l1poses.WriteCSV(fsys, path, rows)
}

// ReadValidCSV loads a cached valid-frame table.
func ReadValidCSV(fsys fsutil.FileSystem, path string) (*egodata.ValidFrameTable, error) {
	rows, err := l1poses.ReadCSV(fsys, path)
	if err != nil {
		return nil, err
	}
	return &egodata.ValidFrameTable{Rows: rows}, nil
}
