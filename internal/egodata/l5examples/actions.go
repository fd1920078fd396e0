package l5examples

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strconv"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
)

var logf = monitoring.Stage("actions")

// FrameActionTable maps a video id to the action labels of each of its
// frames. It is built once by a Builder and read-only afterwards. Frames
// without a label hold nil internally and read back as the sentinel.
type FrameActionTable struct {
	videos map[string][][]egodata.Action
}

// Videos returns the video ids in sorted order.
func (t *FrameActionTable) Videos() []string {
	ids := make([]string, 0, len(t.videos))
	for id := range t.videos {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NumFrames returns the number of frames declared for a video.
func (t *FrameActionTable) NumFrames(video string) int {
	return len(t.videos[video])
}

// Labels returns the labels of one frame. Unknown videos and frames outside
// the declared range yield the no-action sentinel. The returned slice must
// not be modified.
func (t *FrameActionTable) Labels(video string, frame int) []egodata.Action {
	if t != nil {
		if frames, ok := t.videos[video]; ok && frame >= 0 && frame < len(frames) && frames[frame] != nil {
			return frames[frame]
		}
	}
	return noActionLabels
}

var noActionLabels = []egodata.Action{egodata.NoAction}

// Range returns the labels of n consecutive frames from start.
func (t *FrameActionTable) Range(video string, start, n int) [][]egodata.Action {
	out := make([][]egodata.Action, n)
	for i := range out {
		out[i] = slices.Clone(t.Labels(video, start+i))
	}
	return out
}

// MarshalJSON writes {"video": [[[verb, noun], ...], ...]} with the sentinel
// materialised for unlabelled frames.
func (t *FrameActionTable) MarshalJSON() ([]byte, error) {
	out := make(map[string][][]egodata.Action, len(t.videos))
	for id, frames := range t.videos {
		out[id] = t.Range(id, 0, len(frames))
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (t *FrameActionTable) UnmarshalJSON(data []byte) error {
	var in map[string][][]egodata.Action
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.videos = make(map[string][][]egodata.Action, len(in))
	for id, frames := range in {
		for i, labels := range frames {
			if len(labels) == 0 || (len(labels) == 1 && labels[0].IsNone()) {
				frames[i] = nil
			}
		}
		t.videos[id] = frames
	}
	return nil
}

// Builder accumulates labelled segments into a FrameActionTable.
type Builder struct {
	videos  map[string][][]egodata.Action
	clipped int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{videos: make(map[string][][]egodata.Action)}
}

// Declare pre-sizes a video with numFrames unlabelled frames.
func (b *Builder) Declare(video string, numFrames int) {
	b.videos[video] = make([][]egodata.Action, numFrames)
}

// AddSegment labels frames start..stop inclusive. The first label of a frame
// replaces the sentinel; later labels are appended. Frames past the declared
// length are ignored and counted.
func (b *Builder) AddSegment(video string, start, stop, verb, noun int) error {
	frames, ok := b.videos[video]
	if !ok {
		return fmt.Errorf("video %s not declared", video)
	}
	if start < 0 || stop < start {
		return fmt.Errorf("video %s: bad frame range %d..%d", video, start, stop)
	}
	a := egodata.Action{Verb: verb, Noun: noun}
	for f := start; f <= stop; f++ {
		if f >= len(frames) {
			b.clipped += stop - f + 1
			break
		}
		frames[f] = append(frames[f], a)
	}
	return nil
}

// Build freezes the builder. The builder must not be used afterwards.
func (b *Builder) Build() *FrameActionTable {
	if b.clipped > 0 {
		monitoring.Warnf("%d labelled frames fell outside their video length", b.clipped)
	}
	t := &FrameActionTable{videos: b.videos}
	b.videos = nil
	return t
}

// LoadAnnotationsCSV builds the table from a video info CSV (first column the
// video id, plus a num_frames column) and an action label CSV with
// video_id, start_frame, stop_frame, verb_class and noun_class columns.
func LoadAnnotationsCSV(videoInfo, labels io.Reader) (*FrameActionTable, error) {
	b := NewBuilder()

	infoRows, infoCols, err := readCSV(videoInfo, "num_frames")
	if err != nil {
		return nil, fmt.Errorf("video info: %w", err)
	}
	for i, row := range infoRows {
		n, err := strconv.Atoi(row[infoCols["num_frames"]])
		if err != nil {
			return nil, fmt.Errorf("video info row %d: num_frames: %w", i+1, err)
		}
		b.Declare(row[0], n)
	}

	labelRows, cols, err := readCSV(labels, "video_id", "start_frame", "stop_frame", "verb_class", "noun_class")
	if err != nil {
		return nil, fmt.Errorf("action labels: %w", err)
	}
	skipped := 0
	for i, row := range labelRows {
		var v [4]int
		for k, name := range []string{"start_frame", "stop_frame", "verb_class", "noun_class"} {
			if v[k], err = strconv.Atoi(row[cols[name]]); err != nil {
				return nil, fmt.Errorf("action labels row %d: %s: %w", i+1, name, err)
			}
		}
		video := row[cols["video_id"]]
		if _, ok := b.videos[video]; !ok {
			skipped++
			continue
		}
		if err := b.AddSegment(video, v[0], v[1], v[2], v[3]); err != nil {
			return nil, fmt.Errorf("action labels row %d: %w", i+1, err)
		}
	}
	if skipped > 0 {
		monitoring.Warnf("%d action labels reference videos missing from the video info", skipped)
	}
	t := b.Build()
	logf("built frame actions for %d videos from %d labels", len(t.videos), len(labelRows))
	return t, nil
}

// readCSV reads a headed CSV and returns the data rows and the column index
// of each required name.
func readCSV(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("missing header")
	}
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}
	width := len(records[0])
	for i, rec := range records[1:] {
		if len(rec) != width {
			return nil, nil, fmt.Errorf("row %d: expected %d fields, got %d", i+1, width, len(rec))
		}
	}
	return records[1:], cols, nil
}

// SaveFrameActions writes the table as JSON.
func SaveFrameActions(fsys fsutil.FileSystem, path string, t *FrameActionTable) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode frame actions: %w", err)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write frame actions %s: %w", path, err)
	}
	return nil
}

// LoadFrameActions reads a table written by SaveFrameActions.
func LoadFrameActions(fsys fsutil.FileSystem, path string) (*FrameActionTable, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &egodata.MissingFileError{What: "Frame action", Path: path}
		}
		return nil, fmt.Errorf("read frame actions %s: %w", path, err)
	}
	t := &FrameActionTable{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse frame actions %s: %w", path, err)
	}
	return t, nil
}
