package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l5examples"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/testutil"
)

func TestBuild(t *testing.T) {
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/ann/video_frames_info.csv", []byte("video_id,num_frames\nP01_01,10\nP01_02,4\n"), 0644))
	require.NoError(t, fsys.WriteFile("/ann/labels.csv", []byte(
		"narration_id,video_id,start_frame,stop_frame,verb_class,noun_class\n"+
			"P01_01_0,P01_01,2,4,3,12\n"+
			"P01_01_1,P01_01,4,5,1,0\n"+
			"P09_01_0,P09_01,0,1,1,1\n"), 0644))

	table, err := build(fsys, "/ann/video_frames_info.csv", "/ann/labels.csv", "/out/frame_action.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"P01_01", "P01_02"}, table.Videos())

	loaded, err := l5examples.LoadFrameActions(fsys, "/out/frame_action.json")
	require.NoError(t, err)
	assert.Equal(t, []egodata.Action{{Verb: 3, Noun: 12}, {Verb: 1, Noun: 0}}, loaded.Labels("P01_01", 4))
	assert.True(t, loaded.Labels("P01_02", 0)[0].IsNone())
}

func TestBuildMissingInput(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	_, err := build(fsys, "/none.csv", "/labels.csv", "/out.json")
	assert.Error(t, err)
}
