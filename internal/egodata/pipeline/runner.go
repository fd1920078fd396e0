package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/minhpvo/ORB-SLAM2/internal/config"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l1poses"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l2stability"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l3windows"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l5examples"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/storage/sqlite"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
	"github.com/minhpvo/ORB-SLAM2/internal/security"
)

// Catalog records run outcomes. *sqlite.Catalog implements it.
type Catalog interface {
	BeginRun(split, paramsJSON string) (string, error)
	RecordSubVideo(sv *sqlite.SubVideo, segs []egodata.StableSegment) error
	RecordExamples(runID string, examples []egodata.Example) error
	FinishRun(runID string, totalExamples int, status string) error
}

// DiagnosticsWriter renders the per-sub-video diagnostic figures into dir.
type DiagnosticsWriter interface {
	WriteDiagnostics(fsys fsutil.FileSystem, dir string, traj *egodata.Trajectory, res *l2stability.Result) error
}

// Options locate the dataset and the output directory.
type Options struct {
	// DataRoot holds the rgb/ and flow/ trees.
	DataRoot string
	// Split is the dataset split, e.g. train or test.
	Split string
	// SaveRoot receives EgoData_<video>.json files.
	SaveRoot string
}

// SplitDir returns <DataRoot>/rgb/<Split>.
func (o Options) SplitDir() string {
	return filepath.Join(o.DataRoot, "rgb", o.Split)
}

// OutputPath returns the example list path of a video.
func (o Options) OutputPath(videoID string) string {
	return filepath.Join(o.SaveRoot, "EgoData_"+security.SanitizeFilename(videoID)+".json")
}

// Runner processes videos sequentially.
type Runner struct {
	FS      fsutil.FileSystem
	Config  *config.PipelineConfig
	Options Options

	Actions     *l5examples.FrameActionTable
	FPS         *FPSTable
	Catalog     Catalog           // optional
	Diagnostics DiagnosticsWriter // optional

	runID string
}

// SubVideoResult is the outcome of one sub-video.
type SubVideoResult struct {
	VideoID   string
	SubID     string
	FPS       int
	Frames    int
	KeyFrames int
	Valid     int
	// Degenerate counts zero-position rows in the whole frame table.
	Degenerate int
	Segments   []egodata.StableSegment
	Examples   []egodata.Example
	FromCache  bool
}

// Status classifies err into a catalog status value.
func Status(err error) string {
	switch {
	case err == nil:
		return sqlite.StatusOK
	case errors.Is(err, egodata.ErrMissingFile):
		return sqlite.StatusMissingFile
	case errors.Is(err, egodata.ErrConsistency):
		return sqlite.StatusConsistency
	case errors.Is(err, egodata.ErrEmptyResult):
		return sqlite.StatusEmpty
	default:
		return sqlite.StatusError
	}
}

func (r *Runner) order() egodata.QuaternionOrder {
	o, err := egodata.ParseQuaternionOrder(r.Config.GetQuaternionOrder())
	if err != nil {
		return egodata.OrderXYZW
	}
	return o
}

// segmentFresh loads the dumps, exports Frame.csv and keyFrame.csv, segments
// the trajectory and caches validFrame.csv.
func (r *Runner) segmentFresh(prefix, metaDir string, out *SubVideoResult) (*egodata.ValidFrameTable, error) {
	traj, err := l1poses.Load(r.FS, prefix)
	if err != nil {
		return nil, err
	}
	out.Frames, out.KeyFrames = len(traj.Frames), len(traj.KeyFrames)

	if err := l1poses.WriteCSV(r.FS, filepath.Join(metaDir, "Frame.csv"), traj.Frames); err != nil {
		return nil, err
	}
	if err := l1poses.WriteCSV(r.FS, filepath.Join(metaDir, "keyFrame.csv"), traj.KeyFrames); err != nil {
		return nil, err
	}

	res, err := l2stability.Segment(traj, l2stability.Params{
		Window:    r.Config.GetStableWindow(),
		Threshold: r.Config.GetStableThreshold(),
	})
	if err != nil {
		return nil, err
	}
	res.Summarize(traj)
	out.Segments = res.Segments
	out.Degenerate = res.TotalDegenerate

	if err := l2stability.WriteValidCSV(r.FS, filepath.Join(metaDir, l2stability.ValidFileName), res.Valid); err != nil {
		return nil, err
	}
	if r.Config.GetWriteDiagnostics() && r.Diagnostics != nil {
		if err := r.Diagnostics.WriteDiagnostics(r.FS, metaDir, traj, res); err != nil {
			opsf("%s: diagnostics failed: %v", metaDir, err)
		}
	}
	return res.Valid, nil
}

// ProcessSubVideo runs the full chain for one sub-video directory. ids hands
// out window ids across the batch.
func (r *Runner) ProcessSubVideo(videoID, subDir string, ids *l5examples.Counter) (*SubVideoResult, error) {
	subID := filepath.Base(subDir)
	out := &SubVideoResult{VideoID: videoID, SubID: subID, FPS: r.FPS.Lookup(subID, r.Config)}

	metaDir := filepath.Join(subDir, r.Config.GetMetadataDir())
	if !fsutil.IsDir(r.FS, metaDir) {
		return out, &egodata.MissingFileError{What: "Metadata directory", Path: metaDir}
	}
	prefix, err := DiscoverPrefix(r.FS, metaDir)
	if err != nil {
		return out, err
	}
	if !r.FS.Exists(l1poses.FramePath(prefix)) {
		return out, &egodata.MissingFileError{What: "Frames info", Path: l1poses.FramePath(prefix)}
	}

	params := l3windows.Params{
		PastSeconds:   r.Config.GetPastSeconds(),
		FutureSeconds: r.Config.GetFutureSeconds(),
		FPS:           out.FPS,
	}
	if err := params.Validate(); err != nil {
		return out, err
	}
	diagf("%s: fps %d, %d frames per example", subID, out.FPS, l3windows.Frames(params))

	var valid *egodata.ValidFrameTable
	validPath := filepath.Join(metaDir, l2stability.ValidFileName)
	if r.Config.GetReuseValidCache() && r.FS.Exists(validPath) {
		diagf("%s: reusing %s", subID, validPath)
		valid, err = l2stability.ReadValidCSV(r.FS, validPath)
		out.FromCache = true
	} else {
		valid, err = r.segmentFresh(prefix, metaDir, out)
	}
	if err != nil {
		return out, err
	}
	out.Valid = valid.Len()
	if valid.Len() == 0 {
		return out, &egodata.EmptyResultWarning{Stage: "segment"}
	}

	spans := l3windows.Extract(valid, l3windows.Frames(params))
	if len(spans) == 0 {
		return out, &egodata.EmptyResultWarning{Stage: "windows"}
	}

	asm := &l5examples.Assembler{Params: params, Order: r.order(), Actions: r.Actions, IDs: ids}
	out.Examples, err = asm.Assemble(subID, subDir, valid, spans)
	if err != nil {
		return out, err
	}
	opsf("%s: %d valid frames, %d segments, %d examples", subID, out.Valid, len(out.Segments), len(out.Examples))
	return out, nil
}

// VideoResult is the outcome of one participant video.
type VideoResult struct {
	VideoID    string
	SubVideos  []*SubVideoResult
	Examples   []egodata.Example
	Skipped    map[string]int
	OutputPath string
}

// ProcessVideo runs every sub-video of a video and writes its example list.
// Sub-video failures are logged and counted, never returned.
func (r *Runner) ProcessVideo(videoID string, ids *l5examples.Counter) (*VideoResult, error) {
	videoDir := filepath.Join(r.Options.SplitDir(), videoID)
	subIDs, err := ListSubVideos(r.FS, videoDir)
	if err != nil {
		return nil, err
	}

	vr := &VideoResult{VideoID: videoID, Skipped: make(map[string]int)}
	for i, subID := range subIDs {
		diagf("%s %d of %d", subID, i+1, len(subIDs))
		res, err := r.ProcessSubVideo(videoID, filepath.Join(videoDir, subID), ids)
		status := Status(err)
		switch status {
		case sqlite.StatusOK:
		case sqlite.StatusEmpty:
			monitoring.Warnf("%s: %v, 0 examples", subID, err)
			vr.Skipped[status]++
		default:
			opsf("%s skipped: %v", subID, err)
			vr.Skipped[status]++
		}
		vr.SubVideos = append(vr.SubVideos, res)
		vr.Examples = append(vr.Examples, res.Examples...)
		r.record(res, err)
	}

	vr.OutputPath = r.Options.OutputPath(videoID)
	if err := WriteExamples(r.FS, vr.OutputPath, vr.Examples); err != nil {
		return vr, err
	}
	opsf("%s: %d examples written to %s", videoID, len(vr.Examples), vr.OutputPath)
	return vr, nil
}

func (r *Runner) record(res *SubVideoResult, err error) {
	if r.Catalog == nil || r.runID == "" {
		return
	}
	sv := &sqlite.SubVideo{
		RunID:            r.runID,
		VideoID:          res.VideoID,
		SubID:            res.SubID,
		FPS:              res.FPS,
		Frames:           res.Frames,
		KeyFrames:        res.KeyFrames,
		ValidFrames:      res.Valid,
		DegenerateFrames: res.Degenerate,
		Segments:         len(res.Segments),
		Examples:         len(res.Examples),
		Status:           Status(err),
	}
	if err != nil {
		sv.Error = err.Error()
	}
	if cerr := r.Catalog.RecordSubVideo(sv, res.Segments); cerr != nil {
		opsf("catalog: %v", cerr)
		return
	}
	if cerr := r.Catalog.RecordExamples(r.runID, res.Examples); cerr != nil {
		opsf("catalog: %v", cerr)
	}
}

// WriteExamples writes one video's example list as JSON.
func WriteExamples(fsys fsutil.FileSystem, path string, examples []egodata.Example) error {
	if examples == nil {
		examples = []egodata.Example{}
	}
	data, err := json.Marshal(examples)
	if err != nil {
		return fmt.Errorf("encode examples: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadExamples loads an example list written by WriteExamples.
func ReadExamples(fsys fsutil.FileSystem, path string) ([]egodata.Example, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var examples []egodata.Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return examples, nil
}
