package l1poses

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
)

func TestEncodeCSVLayout(t *testing.T) {
	data, err := EncodeCSV([]egodata.FramePose{
		{Index: 7, T: 0.116667, Position: r3.Vector{X: 1.5, Y: -2, Z: 0}, Orientation: egodata.Quaternion{Q3: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, ",t,x,y,z,q0,q1,q2,q3\n7,0.116667,1.5,-2,0,0,0,0,1\n", string(data))
}

func TestCSVRoundTripIsByteStable(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	poses := []egodata.FramePose{
		{Index: 2, T: 1.0 / 30, Position: r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}, Orientation: egodata.Quaternion{Q0: 0.01, Q3: 0.99995}},
		{Index: 9, T: 0.3, Position: r3.Vector{X: -4e-9}},
	}
	require.NoError(t, WriteCSV(mfs, "/v/validFrame.csv", poses))

	got, err := ReadCSV(mfs, "/v/validFrame.csv")
	require.NoError(t, err)
	if diff := cmp.Diff(poses, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	first, _ := mfs.ReadFile("/v/validFrame.csv")
	require.NoError(t, WriteCSV(mfs, "/v/validFrame.csv", got))
	second, _ := mfs.ReadFile("/v/validFrame.csv")
	assert.Equal(t, string(first), string(second))
}

func TestDecodeCSVErrors(t *testing.T) {
	_, err := DecodeCSV([]byte(",t,x,y,z,q0,q1,q2,q3\n3,0,0,0,0,0,0,0,1\n3,0,0,0,0,0,0,0,1\n"), "dup.csv")
	assert.True(t, errors.Is(err, egodata.ErrConsistency))

	_, err = DecodeCSV([]byte(",a,b,y,z,q0,q1,q2,q3\n"), "hdr.csv")
	assert.ErrorContains(t, err, "unexpected header")

	_, err = DecodeCSV(nil, "empty.csv")
	assert.ErrorContains(t, err, "missing header")

	_, err = ReadCSV(fsutil.NewMemoryFileSystem(), "/none.csv")
	assert.True(t, errors.Is(err, egodata.ErrMissingFile))
}
