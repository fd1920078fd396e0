package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
)

// AllVideos selects every participant video of a split.
const AllVideos = "A"

// ListVideos returns the participant directories (P*) of a split directory
// in sorted order.
func ListVideos(fsys fsutil.FileSystem, splitDir string) ([]string, error) {
	entries, err := fsys.ReadDir(splitDir)
	if err != nil {
		return nil, fmt.Errorf("list videos in %s: %w", splitDir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "P") {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// ListSubVideos returns the sub-video directories of a video in sorted order.
func ListSubVideos(fsys fsutil.FileSystem, videoDir string) ([]string, error) {
	entries, err := fsys.ReadDir(videoDir)
	if err != nil {
		return nil, fmt.Errorf("list sub-videos in %s: %w", videoDir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// frameListPattern matches the frame list written next to the dumps, whose
// range names the dump prefix.
var frameListPattern = regexp.MustCompile(`^rgb_(\d+)_(\d+)\.txt$`)

// DiscoverPrefix returns <metaDir>/PosInfo_<s>_<e> from the first
// rgb_<s>_<e>.txt in metaDir.
func DiscoverPrefix(fsys fsutil.FileSystem, metaDir string) (string, error) {
	entries, err := fsys.ReadDir(metaDir)
	if err != nil {
		return "", &egodata.MissingFileError{What: "Metadata directory", Path: metaDir}
	}
	for _, e := range entries {
		if m := frameListPattern.FindStringSubmatch(e.Name()); m != nil {
			return filepath.Join(metaDir, fmt.Sprintf("PosInfo_%s_%s", m[1], m[2])), nil
		}
	}
	return "", &egodata.MissingFileError{What: "Frame list", Path: filepath.Join(metaDir, "rgb_<start>_<end>.txt")}
}
