package pipeline

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l5examples"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/storage/sqlite"
)

// Report accumulates the totals of a batch run.
type Report struct {
	RunID         string
	TotalExamples int
	// PerVideo maps a participant video to its example count.
	PerVideo map[string]int
	// Skipped counts sub-videos by catalog status.
	Skipped   map[string]int
	SubVideos int
	Outputs   []string
	// FailedVideos lists videos that could not be processed at all.
	FailedVideos []string
}

func newReport() *Report {
	return &Report{PerVideo: make(map[string]int), Skipped: make(map[string]int)}
}

func (rep *Report) add(vr *VideoResult) {
	rep.PerVideo[vr.VideoID] += len(vr.Examples)
	rep.TotalExamples += len(vr.Examples)
	rep.SubVideos += len(vr.SubVideos)
	for k, n := range vr.Skipped {
		rep.Skipped[k] += n
	}
	if vr.OutputPath != "" {
		rep.Outputs = append(rep.Outputs, vr.OutputPath)
	}
}

// SkippedTotal is the number of sub-videos that contributed no examples
// because of an error or an empty result.
func (rep *Report) SkippedTotal() int {
	n := 0
	for _, v := range rep.Skipped {
		n += v
	}
	return n
}

// String renders the report as one log line.
func (rep *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d examples from %d sub-videos", rep.TotalExamples, rep.SubVideos)
	for _, v := range slices.Sorted(maps.Keys(rep.PerVideo)) {
		fmt.Fprintf(&b, ", %s=%d", v, rep.PerVideo[v])
	}
	if len(rep.FailedVideos) > 0 {
		fmt.Fprintf(&b, "; failed videos %s", strings.Join(rep.FailedVideos, ","))
	}
	if len(rep.Skipped) > 0 {
		b.WriteString("; skipped")
		for _, k := range slices.Sorted(maps.Keys(rep.Skipped)) {
			fmt.Fprintf(&b, " %s=%d", k, rep.Skipped[k])
		}
	}
	return b.String()
}

// Run processes one video, or every video of the split when video is
// AllVideos. Window ids are numbered from zero across the whole run.
func (r *Runner) Run(video string) (*Report, error) {
	if r.Config == nil {
		return nil, fmt.Errorf("pipeline: nil config")
	}
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}

	videos := []string{video}
	if video == AllVideos {
		var err error
		if videos, err = ListVideos(r.FS, r.Options.SplitDir()); err != nil {
			return nil, err
		}
	}

	rep := newReport()
	if r.Catalog != nil {
		params, _ := json.Marshal(r.Config)
		id, err := r.Catalog.BeginRun(r.Options.Split, string(params))
		if err != nil {
			return nil, err
		}
		r.runID, rep.RunID = id, id
		defer func() { r.runID = "" }()
	}

	ids := l5examples.NewCounter(0)
	var runErr error
	for _, v := range videos {
		opsf("processing %s", v)
		vr, err := r.ProcessVideo(v, ids)
		if vr != nil {
			rep.add(vr)
		}
		if err != nil {
			opsf("video %s failed: %v", v, err)
			rep.FailedVideos = append(rep.FailedVideos, v)
		}
	}
	// A single named video that fails is the whole run.
	if video != AllVideos && len(rep.FailedVideos) > 0 {
		runErr = fmt.Errorf("video %s failed", video)
	}

	if r.Catalog != nil {
		status := sqlite.RunComplete
		if runErr != nil {
			status = sqlite.RunFailed
		}
		if err := r.Catalog.FinishRun(rep.RunID, rep.TotalExamples, status); err != nil {
			opsf("catalog: %v", err)
		}
	}
	opsf("%s", rep)
	return rep, runErr
}
