package l1poses

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
)

var logf = monitoring.Stage("poses")

// fieldsPerRow is the number of values on a pose-dump line: t x y z q0 q1 q2 q3.
const fieldsPerRow = 8

// FramePath returns the all-frames dump path for a prefix.
func FramePath(prefix string) string { return prefix + "_Frame.txt" }

// KeyFramePath returns the keyframe dump path for a prefix.
func KeyFramePath(prefix string) string { return prefix + "_keyFrame.txt" }

// Load reads both pose dumps of a sub-video. A missing file yields a
// *egodata.MissingFileError.
func Load(fsys fsutil.FileSystem, prefix string) (*egodata.Trajectory, error) {
	frames, err := loadFile(fsys, FramePath(prefix), "Frames info")
	if err != nil {
		return nil, err
	}
	keyFrames, err := loadFile(fsys, KeyFramePath(prefix), "Keyframes info")
	if err != nil {
		return nil, err
	}
	logf("loaded %d frames and %d keyframes from %s", len(frames), len(keyFrames), prefix)
	return egodata.NewTrajectory(frames, keyFrames), nil
}

func loadFile(fsys fsutil.FileSystem, path, what string) ([]egodata.FramePose, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &egodata.MissingFileError{What: what, Path: path}
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParsePoses(f, path)
}

// ParsePoses parses whitespace-separated pose rows. Blank lines are skipped;
// extra trailing columns are ignored. Values are taken as written, so a
// malformed quaternion propagates unchanged.
func ParsePoses(r io.Reader, name string) ([]egodata.FramePose, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var poses []egodata.FramePose
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < fieldsPerRow {
			return nil, fmt.Errorf("%s:%d: expected %d values, got %d", name, lineNo, fieldsPerRow, len(fields))
		}
		var v [fieldsPerRow]float64
		for i := 0; i < fieldsPerRow; i++ {
			x, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %d: %w", name, lineNo, i+1, err)
			}
			v[i] = x
		}
		poses = append(poses, egodata.FramePose{
			Index:       len(poses),
			T:           v[0],
			Position:    r3.Vector{X: v[1], Y: v[2], Z: v[3]},
			Orientation: egodata.Quaternion{Q0: v[4], Q1: v[5], Q2: v[6], Q3: v[7]},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return poses, nil
}
