package pipeline

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpvo/ORB-SLAM2/internal/config"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l5examples"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/storage/sqlite"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/testutil"
	"github.com/minhpvo/ORB-SLAM2/internal/timeutil"
)

const splitDir = "/data/rgb/train"

func testConfig() *config.PipelineConfig {
	cfg := config.DefaultPipelineConfig()
	one := 1
	cfg.PastSeconds = &one
	cfg.FutureSeconds = &one
	cfg.FPSOverrides = map[string]int{"P01_01": 2, "P01_02": 2, "P01_03": 2, "P02_01": 2}
	off := false
	cfg.WriteDiagnostics = &off
	return cfg
}

// writeSubVideo lays out a sub-video whose 20 frames all agree with their
// keyframes (every other frame) offset by drift.
func writeSubVideo(t *testing.T, fsys fsutil.FileSystem, video, sub string, drift float64) string {
	t.Helper()
	subDir := filepath.Join(splitDir, video, sub)
	meta := filepath.Join(subDir, "pos_info")
	require.NoError(t, fsys.WriteFile(filepath.Join(meta, "rgb_0_19.txt"), nil, 0644))

	frames := testutil.LinePoses(20, 2, 0.1)
	rows := []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}
	d := make([]float64, len(rows))
	for i := range d {
		d[i] = drift
	}
	testutil.WritePoseDump(t, fsys, filepath.Join(meta, "PosInfo_0_19"), frames, testutil.KeyFramesFrom(frames, rows, d))
	return subDir
}

func newTestRunner(fsys fsutil.FileSystem) *Runner {
	b := l5examples.NewBuilder()
	b.Declare("P01_01", 20)
	_ = b.AddSegment("P01_01", 2, 3, 5, 7)
	return &Runner{
		FS:      fsys,
		Config:  testConfig(),
		Options: Options{DataRoot: "/data", Split: "train", SaveRoot: "/out"},
		Actions: b.Build(),
	}
}

func TestProcessSubVideo(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	subDir := writeSubVideo(t, fsys, "P01", "P01_01", 0)
	r := newTestRunner(fsys)

	res, err := r.ProcessSubVideo("P01", subDir, l5examples.NewCounter(0))
	require.NoError(t, err)
	assert.Equal(t, 2, res.FPS)
	assert.Equal(t, 20, res.Frames)
	assert.Equal(t, 10, res.KeyFrames)
	// Never diverges: the open segment closes at the last keyframe (row 18).
	assert.Equal(t, 19, res.Valid)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, 18, res.Segments[0].EndIdx)
	assert.False(t, res.FromCache)

	// 19 valid frames in windows of 4.
	require.Len(t, res.Examples, 4)
	for i, e := range res.Examples {
		assert.Equal(t, i, e.WindowID)
		assert.Equal(t, 4*i, e.StartFrame)
		assert.Equal(t, "P01_01", e.VideoID)
		assert.Len(t, e.PastPositions, 2)
		assert.Len(t, e.FuturePositions, 2)
		assert.Equal(t, egodata.Point3{}, e.PastPositions[1])
	}
	first := res.Examples[0]
	assert.Equal(t, filepath.Join(subDir, "frame_0000000000.jpg"), first.ImagePaths[0])
	assert.Equal(t, "/data/flow/train/P01/P01_01/u/frame_0000000000.jpg", first.FlowUPaths[0])
	assert.Equal(t, [][]egodata.Action{{{Verb: 5, Noun: 7}}, {{Verb: 5, Noun: 7}}}, first.ActionLabels)
	assert.True(t, res.Examples[1].ActionLabels[0][0].IsNone())

	meta := filepath.Join(subDir, "pos_info")
	for _, name := range []string{"Frame.csv", "keyFrame.csv", "validFrame.csv"} {
		assert.True(t, fsys.Exists(filepath.Join(meta, name)), name)
	}
}

func TestProcessSubVideoReusesCache(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	subDir := writeSubVideo(t, fsys, "P01", "P01_01", 0)
	r := newTestRunner(fsys)

	fresh, err := r.ProcessSubVideo("P01", subDir, l5examples.NewCounter(0))
	require.NoError(t, err)
	validPath := filepath.Join(subDir, "pos_info", "validFrame.csv")
	before, err := fsys.ReadFile(validPath)
	require.NoError(t, err)

	cached, err := r.ProcessSubVideo("P01", subDir, l5examples.NewCounter(0))
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	if diff := cmp.Diff(fresh.Examples, cached.Examples); diff != "" {
		t.Errorf("cached examples differ (-fresh +cached):\n%s", diff)
	}

	// A forced rerun rewrites the cache byte for byte.
	off := false
	r.Config.ReuseValidCache = &off
	_, err = r.ProcessSubVideo("P01", subDir, l5examples.NewCounter(0))
	require.NoError(t, err)
	after, err := fsys.ReadFile(validPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestProcessSubVideoFailures(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	r := newTestRunner(fsys)

	noMeta := filepath.Join(splitDir, "P01", "P01_02")
	require.NoError(t, fsys.MkdirAll(noMeta, 0755))

	noList := filepath.Join(splitDir, "P01", "P01_04")
	require.NoError(t, fsys.MkdirAll(filepath.Join(noList, "pos_info"), 0755))

	noFrames := writeSubVideo(t, fsys, "P01", "P01_05", 0)
	require.NoError(t, fsys.Remove(filepath.Join(noFrames, "pos_info", "PosInfo_0_19_Frame.txt")))

	// The frame dump exists but the keyframe dump does not.
	noKeys := writeSubVideo(t, fsys, "P01", "P01_06", 0)
	require.NoError(t, fsys.Remove(filepath.Join(noKeys, "pos_info", "PosInfo_0_19_keyFrame.txt")))

	diverged := writeSubVideo(t, fsys, "P01", "P01_03", 1.0)

	tests := []struct {
		name   string
		dir    string
		status string
		what   string
	}{
		{"no metadata dir", noMeta, sqlite.StatusMissingFile, "Metadata directory"},
		{"no frame list", noList, sqlite.StatusMissingFile, "Frame list"},
		{"no frame dump", noFrames, sqlite.StatusMissingFile, "Frames info"},
		{"no keyframe dump", noKeys, sqlite.StatusMissingFile, "Keyframes info"},
		{"never stable", diverged, sqlite.StatusEmpty, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.ProcessSubVideo("P01", tt.dir, l5examples.NewCounter(0))
			require.Error(t, err)
			assert.Equal(t, tt.status, Status(err))
			assert.Empty(t, res.Examples)
			if tt.what != "" {
				var mf *egodata.MissingFileError
				require.True(t, errors.As(err, &mf))
				assert.Equal(t, tt.what, mf.What)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, sqlite.StatusOK, Status(nil))
	assert.Equal(t, sqlite.StatusConsistency, Status(egodata.Consistencyf("x")))
	assert.Equal(t, sqlite.StatusEmpty, Status(&egodata.EmptyResultWarning{Stage: "windows"}))
	assert.Equal(t, sqlite.StatusError, Status(errors.New("boom")))
}

func TestRunAllVideosWithCatalog(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	writeSubVideo(t, fsys, "P01", "P01_01", 0)
	writeSubVideo(t, fsys, "P01", "P01_03", 1.0)
	require.NoError(t, fsys.MkdirAll(filepath.Join(splitDir, "P01", "P01_02"), 0755))
	writeSubVideo(t, fsys, "P02", "P02_01", 0)
	// Not a participant directory.
	require.NoError(t, fsys.WriteFile(filepath.Join(splitDir, "README"), nil, 0644))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	catalog := sqlite.NewCatalog(db, timeutil.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	r := newTestRunner(fsys)
	r.Catalog = catalog
	rep, err := r.Run(AllVideos)
	require.NoError(t, err)

	assert.Equal(t, 8, rep.TotalExamples)
	assert.Equal(t, map[string]int{"P01": 4, "P02": 4}, rep.PerVideo)
	assert.Equal(t, map[string]int{sqlite.StatusMissingFile: 1, sqlite.StatusEmpty: 1}, rep.Skipped)
	assert.Equal(t, 4, rep.SubVideos)
	assert.Equal(t, 2, rep.SkippedTotal())
	assert.Contains(t, rep.String(), "8 examples from 4 sub-videos")

	// Window ids continue across videos.
	p02, err := ReadExamples(fsys, "/out/EgoData_P02.json")
	require.NoError(t, err)
	require.Len(t, p02, 4)
	assert.Equal(t, 4, p02[0].WindowID)
	assert.Equal(t, "P02_01", p02[0].VideoID)

	run, err := catalog.Runs.Get(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, sqlite.RunComplete, run.Status)
	assert.Equal(t, 8, run.TotalExamples)

	subs, err := catalog.SubVideos.ListByRun(rep.RunID)
	require.NoError(t, err)
	require.Len(t, subs, 4)
	n, err := catalog.Examples.CountByRun(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestRunSingleVideoWritesEmptyList(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	writeSubVideo(t, fsys, "P03", "P03_01", 1.0)
	r := newTestRunner(fsys)
	r.Config.FPSOverrides["P03_01"] = 2

	rep, err := r.Run("P03")
	require.NoError(t, err)
	assert.Zero(t, rep.TotalExamples)
	data, err := fsys.ReadFile("/out/EgoData_P03.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

// unreadableDir fails ReadDir for one directory.
type unreadableDir struct {
	*fsutil.MemoryFileSystem
	dir string
}

func (u unreadableDir) ReadDir(name string) ([]fs.DirEntry, error) {
	if filepath.Clean(name) == u.dir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrPermission}
	}
	return u.MemoryFileSystem.ReadDir(name)
}

func TestRunIgnoresStrayFilesInSplit(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile(filepath.Join(splitDir, "P00_notes.txt"), []byte("notes"), 0644))
	writeSubVideo(t, fsys, "P01", "P01_01", 0)

	rep, err := newTestRunner(fsys).Run(AllVideos)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P01": 4}, rep.PerVideo)
	assert.Empty(t, rep.FailedVideos)
	assert.True(t, fsys.Exists("/out/EgoData_P01.json"))
}

func TestRunContinuesPastFailedVideo(t *testing.T) {
	testutil.MuteLogs(t)
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.MkdirAll(filepath.Join(splitDir, "P00"), 0755))
	writeSubVideo(t, mem, "P01", "P01_01", 0)
	fsys := unreadableDir{MemoryFileSystem: mem, dir: filepath.Join(splitDir, "P00")}

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	catalog := sqlite.NewCatalog(db, timeutil.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	r := newTestRunner(fsys)
	r.Catalog = catalog
	rep, err := r.Run(AllVideos)
	require.NoError(t, err)

	assert.Equal(t, []string{"P00"}, rep.FailedVideos)
	assert.Equal(t, 4, rep.TotalExamples)
	assert.Contains(t, rep.String(), "failed videos P00")
	assert.True(t, mem.Exists("/out/EgoData_P01.json"))

	run, err := catalog.Runs.Get(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, sqlite.RunComplete, run.Status)
}

func TestRunUnknownVideo(t *testing.T) {
	testutil.MuteLogs(t)
	r := newTestRunner(fsutil.NewMemoryFileSystem())
	_, err := r.Run("P99")
	assert.Error(t, err)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	r := newTestRunner(fsutil.NewMemoryFileSystem())
	zero := 0
	r.Config.StableWindow = &zero
	_, err := r.Run(AllVideos)
	assert.Error(t, err)
}
