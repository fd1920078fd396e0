package l5examples

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
	"github.com/minhpvo/ORB-SLAM2/internal/testutil"
)

func sampleTable(t *testing.T) *FrameActionTable {
	t.Helper()
	b := NewBuilder()
	b.Declare("P01_01", 6)
	require.NoError(t, b.AddSegment("P01_01", 1, 3, 2, 7))
	require.NoError(t, b.AddSegment("P01_01", 3, 4, 5, 1))
	return b.Build()
}

func TestBuilderAppendsOverlappingLabels(t *testing.T) {
	table := sampleTable(t)
	none := []egodata.Action{egodata.NoAction}

	want := [][]egodata.Action{
		none,
		{{Verb: 2, Noun: 7}},
		{{Verb: 2, Noun: 7}},
		{{Verb: 2, Noun: 7}, {Verb: 5, Noun: 1}},
		{{Verb: 5, Noun: 1}},
		none,
	}
	if diff := cmp.Diff(want, table.Range("P01_01", 0, 6)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelsOutOfRange(t *testing.T) {
	table := sampleTable(t)
	assert.True(t, table.Labels("P01_01", 6)[0].IsNone())
	assert.True(t, table.Labels("P01_01", -1)[0].IsNone())
	assert.True(t, table.Labels("P99_99", 2)[0].IsNone())

	var nilTable *FrameActionTable
	assert.True(t, nilTable.Labels("P01_01", 2)[0].IsNone())
}

func TestRangeReturnsOwnedSlices(t *testing.T) {
	table := sampleTable(t)
	r := table.Range("P01_01", 1, 1)
	r[0][0].Verb = 99
	assert.Equal(t, 2, table.Labels("P01_01", 1)[0].Verb)
}

func TestBuilderErrors(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	defer func() { monitoring.Logf = original }()

	b := NewBuilder()
	assert.Error(t, b.AddSegment("P01_01", 0, 1, 0, 0))
	b.Declare("P01_01", 3)
	assert.Error(t, b.AddSegment("P01_01", 2, 1, 0, 0))
	require.NoError(t, b.AddSegment("P01_01", 2, 10, 4, 4))

	before := monitoring.WarningCount()
	table := b.Build()
	assert.Equal(t, before+1, monitoring.WarningCount())
	assert.Equal(t, 3, table.NumFrames("P01_01"))
	assert.Equal(t, 4, table.Labels("P01_01", 2)[0].Verb)
}

func TestFrameActionsJSONRoundTrip(t *testing.T) {
	table := sampleTable(t)
	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Equal(t, `{"P01_01":[[[-1,-1]],[[2,7]],[[2,7]],[[2,7],[5,1]],[[5,1]],[[-1,-1]]]}`, string(data))

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, SaveFrameActions(mfs, "/out/frame_action.json", table))
	back, err := LoadFrameActions(mfs, "/out/frame_action.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"P01_01"}, back.Videos())
	if diff := cmp.Diff(table.Range("P01_01", 0, 6), back.Range("P01_01", 0, 6)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	_, err = LoadFrameActions(mfs, "/out/missing.json")
	assert.True(t, errors.Is(err, egodata.ErrMissingFile))
}

func TestLoadAnnotationsCSV(t *testing.T) {
	testutil.MuteLogs(t)
	info := "video,num_frames,duration\nP01_01,5,0.1\nP01_02,3,0.05\n"
	labels := `uid,video_id,narration,start_frame,stop_frame,verb,verb_class,noun,noun_class,all_nouns
0,P01_01,open door,0,1,open,3,door,8,"['door', 'handle']"
1,P01_01,close door,1,2,close,4,door,8,['door']
2,P01_02,take cup,2,2,take,0,cup,13,['cup']
3,P02_09,wash,0,4,wash,2,plate,5,['plate']
`
	table, err := LoadAnnotationsCSV(strings.NewReader(info), strings.NewReader(labels))
	require.NoError(t, err)

	assert.Equal(t, []string{"P01_01", "P01_02"}, table.Videos())
	assert.Equal(t, []egodata.Action{{Verb: 3, Noun: 8}, {Verb: 4, Noun: 8}}, table.Labels("P01_01", 1))
	assert.Equal(t, []egodata.Action{{Verb: 0, Noun: 13}}, table.Labels("P01_02", 2))
	assert.True(t, table.Labels("P01_01", 3)[0].IsNone())
}

func TestLoadAnnotationsCSVErrors(t *testing.T) {
	testutil.MuteLogs(t)
	_, err := LoadAnnotationsCSV(strings.NewReader("video,frames\nP01_01,5\n"), strings.NewReader(""))
	assert.ErrorContains(t, err, `missing column "num_frames"`)

	_, err = LoadAnnotationsCSV(strings.NewReader("video,num_frames\nP01_01,five\n"), strings.NewReader(""))
	assert.ErrorContains(t, err, "num_frames")

	_, err = LoadAnnotationsCSV(strings.NewReader("video,num_frames\nP01_01,5\n"),
		strings.NewReader("video_id,start_frame,stop_frame,verb_class,noun_class\nP01_01,0,x,1,1\n"))
	assert.ErrorContains(t, err, "stop_frame")
}
