package l1poses

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/golang/geo/r3"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
)

// CSVHeader is the pose table header. The leading empty column holds the
// original frame index, the layout pandas writes for an indexed frame.
var CSVHeader = []string{"", "t", "x", "y", "z", "q0", "q1", "q2", "q3"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeCSV renders poses as a CSV table keyed by original frame index.
// The output depends only on the input values, so re-encoding an unchanged
// table is byte-identical.
func EncodeCSV(poses []egodata.FramePose) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}
	row := make([]string, len(CSVHeader))
	for _, p := range poses {
		row[0] = strconv.Itoa(p.Index)
		row[1] = formatFloat(p.T)
		row[2] = formatFloat(p.Position.X)
		row[3] = formatFloat(p.Position.Y)
		row[4] = formatFloat(p.Position.Z)
		row[5] = formatFloat(p.Orientation.Q0)
		row[6] = formatFloat(p.Orientation.Q1)
		row[7] = formatFloat(p.Orientation.Q2)
		row[8] = formatFloat(p.Orientation.Q3)
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes a pose table to path.
func WriteCSV(fsys fsutil.FileSystem, path string, poses []egodata.FramePose) error {
	data, err := EncodeCSV(poses)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DecodeCSV parses a pose table written by EncodeCSV. Rows must be ordered
// by strictly increasing index.
func DecodeCSV(data []byte, name string) ([]egodata.FramePose, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(CSVHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: missing header", name)
	}
	if h := records[0]; h[1] != "t" || h[2] != "x" {
		return nil, fmt.Errorf("parse %s: unexpected header %v", name, h)
	}

	poses := make([]egodata.FramePose, 0, len(records)-1)
	for i, rec := range records[1:] {
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse %s row %d: index: %w", name, i+1, err)
		}
		var v [8]float64
		for c := 0; c < 8; c++ {
			if v[c], err = strconv.ParseFloat(rec[c+1], 64); err != nil {
				return nil, fmt.Errorf("parse %s row %d: column %s: %w", name, i+1, CSVHeader[c+1], err)
			}
		}
		if len(poses) > 0 && idx <= poses[len(poses)-1].Index {
			return nil, egodata.Consistencyf("%s row %d: index %d not increasing", name, i+1, idx)
		}
		poses = append(poses, egodata.FramePose{
			Index:       idx,
			T:           v[0],
			Position:    r3.Vector{X: v[1], Y: v[2], Z: v[3]},
			Orientation: egodata.Quaternion{Q0: v[4], Q1: v[5], Q2: v[6], Q3: v[7]},
		})
	}
	return poses, nil
}

// ReadCSV loads a pose table from path. A missing file yields a
// *egodata.MissingFileError.
func ReadCSV(fsys fsutil.FileSystem, path string) ([]egodata.FramePose, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &egodata.MissingFileError{What: "Pose table", Path: path}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeCSV(data, path)
}
