package egodata

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// QuaternionOrder names the column layout of the four quaternion values in a
// pose dump.
type QuaternionOrder string

const (
	// OrderXYZW stores the vector part first and the scalar last. ORB-SLAM2's
	// Converter::toQuaternion writes this layout.
	OrderXYZW QuaternionOrder = "xyzw"
	// OrderWXYZ stores the scalar first.
	OrderWXYZ QuaternionOrder = "wxyz"
)

// ParseQuaternionOrder validates a configured quaternion order.
func ParseQuaternionOrder(s string) (QuaternionOrder, error) {
	switch QuaternionOrder(s) {
	case OrderXYZW, OrderWXYZ:
		return QuaternionOrder(s), nil
	default:
		return "", fmt.Errorf("unknown quaternion order %q (want %q or %q)", s, OrderXYZW, OrderWXYZ)
	}
}

// Quaternion is an orientation exactly as it appears in a pose dump. The
// values are never normalised.
type Quaternion struct {
	Q0, Q1, Q2, Q3 float64
}

// Number maps the raw columns to a gonum quaternion using the given layout.
func (q Quaternion) Number(order QuaternionOrder) quat.Number {
	if order == OrderWXYZ {
		return quat.Number{Real: q.Q0, Imag: q.Q1, Jmag: q.Q2, Kmag: q.Q3}
	}
	return quat.Number{Real: q.Q3, Imag: q.Q0, Jmag: q.Q1, Kmag: q.Q2}
}

// FramePose is one row of a pose dump. Index is the row position in the dump
// (the original frame index); T is the timestamp written by the estimator.
type FramePose struct {
	Index       int
	T           float64
	Position    r3.Vector
	Orientation Quaternion
}

// IsDegenerate reports whether the position is exactly the origin, which the
// estimator writes for frames where tracking is lost or not yet initialised.
func (p FramePose) IsDegenerate() bool {
	return p.Position.X == 0 && p.Position.Y == 0 && p.Position.Z == 0
}

// KeyFramePose has the same shape as FramePose; keyframes are a subsequence
// of the frames selected by the estimator as reference anchors.
type KeyFramePose = FramePose

// Trajectory holds both pose sequences of one sub-video.
type Trajectory struct {
	Frames    []FramePose
	KeyFrames []KeyFramePose

	byT map[float64]int
}

// NewTrajectory builds a trajectory and its timestamp index.
func NewTrajectory(frames []FramePose, keyFrames []KeyFramePose) *Trajectory {
	tr := &Trajectory{Frames: frames, KeyFrames: keyFrames}
	tr.byT = make(map[float64]int, len(frames))
	for i, f := range frames {
		// First occurrence wins, matching a row-order scan.
		if _, ok := tr.byT[f.T]; !ok {
			tr.byT[f.T] = i
		}
	}
	return tr
}

// FrameByT returns the position in Frames of the row with timestamp t.
func (tr *Trajectory) FrameByT(t float64) (int, bool) {
	if tr.byT == nil {
		*tr = *NewTrajectory(tr.Frames, tr.KeyFrames)
	}
	i, ok := tr.byT[t]
	return i, ok
}

// DegenerateCount returns the number of frames with an all-zero position.
func (tr *Trajectory) DegenerateCount() int {
	n := 0
	for _, f := range tr.Frames {
		if f.IsDegenerate() {
			n++
		}
	}
	return n
}

// StableSegment is a maximal keyframe time range where frame and keyframe
// positions agree. StartIdx and EndIdx are the matching positions in the
// frame table.
type StableSegment struct {
	StartT   float64 `json:"start_t"`
	EndT     float64 `json:"end_t"`
	StartIdx int     `json:"start_idx"`
	EndIdx   int     `json:"end_idx"`
}

// ValidFrameTable is the set of frames inside stable segments with degenerate
// rows removed, ordered by original frame index.
type ValidFrameTable struct {
	Rows []FramePose
}

// Len returns the number of valid frames.
func (v *ValidFrameTable) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Rows)
}

// Indices returns the original frame indices in table order.
func (v *ValidFrameTable) Indices() []int {
	out := make([]int, v.Len())
	for i, r := range v.Rows {
		out[i] = r.Index
	}
	return out
}

// Action is a (verb, noun) class pair. The pair (-1, -1) means no action.
type Action struct {
	Verb int
	Noun int
}

// NoAction is the sentinel label for frames without an annotated action.
var NoAction = Action{Verb: -1, Noun: -1}

// IsNone reports whether a is the no-action sentinel.
func (a Action) IsNone() bool { return a == NoAction }

// MarshalJSON encodes the pair as [verb, noun].
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{a.Verb, a.Noun})
}

// UnmarshalJSON decodes a [verb, noun] pair.
func (a *Action) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	a.Verb, a.Noun = pair[0], pair[1]
	return nil
}

// Point3 is the serialised form of a 3D position.
type Point3 [3]float64

// PointFromVector converts an r3 vector.
func PointFromVector(v r3.Vector) Point3 { return Point3{v.X, v.Y, v.Z} }

// Vector converts back to r3.
func (p Point3) Vector() r3.Vector { return r3.Vector{X: p[0], Y: p[1], Z: p[2]} }

// IsFinite reports whether every component is a finite number.
func (p Point3) IsFinite() bool {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Example is one fixed-length egocentric trajectory window with its
// synchronised auxiliary paths and labels.
type Example struct {
	WindowID        int        `json:"data_id"`
	VideoID         string     `json:"video_id"`
	StartFrame      int        `json:"start_frame"`
	PastPositions   []Point3   `json:"past_pos"`
	FuturePositions []Point3   `json:"future_pos"`
	ImagePaths      []string   `json:"past_imgs"`
	FlowUPaths      []string   `json:"past_flow_u"`
	FlowVPaths      []string   `json:"past_flow_v"`
	ActionLabels    [][]Action `json:"future_actions"`
}

// EndFrame returns the last original frame index covered by the example.
func (e *Example) EndFrame() int {
	return e.StartFrame + len(e.PastPositions) + len(e.FuturePositions) - 1
}
