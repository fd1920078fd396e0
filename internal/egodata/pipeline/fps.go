package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/minhpvo/ORB-SLAM2/internal/config"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
)

// FPSTable holds per-video frame rates read from the dataset's video info
// CSV (columns video and fps).
type FPSTable struct {
	fps map[string]int
}

// ParseFPSTable parses a video info CSV. Rates are rounded to the nearest
// integer.
func ParseFPSTable(data []byte) (*FPSTable, error) {
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse video info: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("parse video info: missing header")
	}
	videoCol, fpsCol := -1, -1
	for i, name := range records[0] {
		switch name {
		case "video":
			videoCol = i
		case "fps":
			fpsCol = i
		}
	}
	if videoCol < 0 || fpsCol < 0 {
		return nil, fmt.Errorf("parse video info: need video and fps columns, got %v", records[0])
	}

	t := &FPSTable{fps: make(map[string]int, len(records)-1)}
	for i, rec := range records[1:] {
		if len(rec) <= max(videoCol, fpsCol) {
			return nil, fmt.Errorf("parse video info row %d: short row", i+1)
		}
		f, err := strconv.ParseFloat(rec[fpsCol], 64)
		if err != nil {
			return nil, fmt.Errorf("parse video info row %d: fps: %w", i+1, err)
		}
		if _, dup := t.fps[rec[videoCol]]; !dup {
			t.fps[rec[videoCol]] = int(math.Round(f))
		}
	}
	return t, nil
}

// LoadFPSTable reads a video info CSV. A missing file yields an empty table,
// so every lookup falls back to the configuration.
func LoadFPSTable(fsys fsutil.FileSystem, path string) (*FPSTable, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		opsf("video info %s not found, using configured frame rates", path)
		return &FPSTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read video info %s: %w", path, err)
	}
	return ParseFPSTable(data)
}

// Lookup returns the frame rate of a sub-video: the video info entry if
// present and positive, otherwise the configured override or default.
func (t *FPSTable) Lookup(subID string, cfg *config.PipelineConfig) int {
	if t != nil {
		if f, ok := t.fps[subID]; ok && f > 0 {
			return f
		}
	}
	return cfg.FPSFor(subID)
}
