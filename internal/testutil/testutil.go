// Package testutil provides shared test utilities and pose-dump fixtures.
//
// This package centralises the helpers that build synthetic trajectories and
// write them in the estimator's dump format, so each pipeline layer can test
// against the same shapes of data.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// MuteLogs silences the pipeline logger for the duration of the test.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// IdentityXYZW is the identity rotation in the estimator's scalar-last layout.
var IdentityXYZW = egodata.Quaternion{Q0: 0, Q1: 0, Q2: 0, Q3: 1}

// LinePoses returns n frames moving along +X by step per frame, timestamped
// at fps, all with the identity orientation.
func LinePoses(n int, fps, step float64) []egodata.FramePose {
	poses := make([]egodata.FramePose, n)
	for i := range poses {
		poses[i] = egodata.FramePose{
			Index:       i,
			T:           float64(i) / fps,
			Position:    r3.Vector{X: float64(i+1) * step, Y: 0.5, Z: -0.25},
			Orientation: IdentityXYZW,
		}
	}
	return poses
}

// KeyFramesFrom copies the frames at the given row positions, offsetting each
// keyframe position along Y by the matching drift value. The result is a
// keyframe table whose frame/keyframe distances equal drift.
func KeyFramesFrom(frames []egodata.FramePose, rows []int, drift []float64) []egodata.KeyFramePose {
	kfs := make([]egodata.KeyFramePose, len(rows))
	for i, r := range rows {
		kf := frames[r]
		kf.Index = i
		if i < len(drift) {
			kf.Position = kf.Position.Add(r3.Vector{Y: drift[i]})
		}
		kfs[i] = kf
	}
	return kfs
}

// DumpText renders poses in the estimator's text format: t x y z q0 q1 q2 q3.
// Timestamps use six decimals and values seven, like the dumper.
func DumpText(poses []egodata.FramePose) string {
	var b strings.Builder
	for _, p := range poses {
		fmt.Fprintf(&b, "%.6f %.7f %.7f %.7f %.7f %.7f %.7f %.7f\n",
			p.T, p.Position.X, p.Position.Y, p.Position.Z,
			p.Orientation.Q0, p.Orientation.Q1, p.Orientation.Q2, p.Orientation.Q3)
	}
	return b.String()
}

// WritePoseDump writes <prefix>_Frame.txt and <prefix>_keyFrame.txt.
func WritePoseDump(t testing.TB, fsys fsutil.FileSystem, prefix string, frames, keyFrames []egodata.FramePose) {
	t.Helper()
	if err := fsys.WriteFile(prefix+"_Frame.txt", []byte(DumpText(frames)), 0644); err != nil {
		t.Fatalf("write frame dump: %v", err)
	}
	if err := fsys.WriteFile(prefix+"_keyFrame.txt", []byte(DumpText(keyFrames)), 0644); err != nil {
		t.Fatalf("write keyframe dump: %v", err)
	}
}
