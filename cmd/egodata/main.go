// Command egodata turns ORB-SLAM2 pose dumps into egocentric trajectory
// examples, one EgoData_<video>.json per participant video.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/minhpvo/ORB-SLAM2/internal/config"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l5examples"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/monitor"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/pipeline"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/storage/sqlite"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
	"github.com/minhpvo/ORB-SLAM2/internal/security"
	"github.com/minhpvo/ORB-SLAM2/internal/timeutil"
	"github.com/minhpvo/ORB-SLAM2/internal/version"
)

var (
	dataRoot     = flag.String("data-root", "", "dataset root holding rgb/ and flow/ (required)")
	split        = flag.String("split", "train", "dataset split")
	video        = flag.String("video", pipeline.AllVideos, "participant video to process, or A for all")
	saveRoot     = flag.String("save-root", "", "output directory for EgoData_<video>.json (default <data-root>/egodata)")
	configPath   = flag.String("config", "", "pipeline config JSON (default: built-in defaults)")
	videoInfo    = flag.String("video-info", "", "video info CSV with video and fps columns (default <data-root>/EPIC_100_video_info.csv)")
	frameActions = flag.String("frame-actions", "", "frame-action table JSON from frame-actions (optional)")
	dbPath       = flag.String("db", "", "SQLite run catalog (optional)")
	diagLog      = flag.Bool("diag", false, "log per-sub-video diagnostics")
	showVersion  = flag.Bool("version", false, "print version and exit")

	// Overrides of config file values; applied only when set.
	stableWindow    = flag.Int("stable-window", 5, "keyframes that must agree before a segment opens")
	stableThreshold = flag.Float64("stable-threshold", 0.01, "frame/keyframe distance below which poses agree")
	pastSeconds     = flag.Int("past", 2, "seconds of observed trajectory per example")
	futureSeconds   = flag.Int("future", 5, "seconds of predicted trajectory per example")
	quatOrder       = flag.String("quaternion-order", "xyzw", "quaternion column order of the dumps: xyzw or wxyz")
	noCache         = flag.Bool("no-cache", false, "recompute validFrame.csv even when it exists")
	noVis           = flag.Bool("no-vis", false, "skip vis.png and vis.html")
)

// loadConfig reads the config file, if any, and applies explicitly set flags.
func loadConfig(path string, set map[string]bool) (*config.PipelineConfig, error) {
	cfg := config.DefaultPipelineConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadPipelineConfig(path); err != nil {
			return nil, err
		}
	}
	if set["stable-window"] {
		cfg.StableWindow = stableWindow
	}
	if set["stable-threshold"] {
		cfg.StableThreshold = stableThreshold
	}
	if set["past"] {
		cfg.PastSeconds = pastSeconds
	}
	if set["future"] {
		cfg.FutureSeconds = futureSeconds
	}
	if set["quaternion-order"] {
		cfg.QuaternionOrder = quatOrder
	}
	if *noCache {
		off := false
		cfg.ReuseValidCache = &off
	}
	if *noVis {
		off := false
		cfg.WriteDiagnostics = &off
	}
	return cfg, cfg.Validate()
}

func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// runBatch runs the pipeline and closes the catalog, if any, before
// returning so the caller may exit immediately.
func runBatch(runner *pipeline.Runner, db *sqlite.DB, video string) (*pipeline.Report, error) {
	rep, err := runner.Run(video)
	if db != nil {
		if cerr := db.Close(); cerr != nil {
			log.Printf("close catalog: %v", cerr)
		}
	}
	return rep, err
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("egodata", version.String())
		return
	}
	if *dataRoot == "" {
		log.Fatalf("-data-root is required")
	}

	cfg, err := loadConfig(*configPath, setFlags())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var diag io.Writer
	if *diagLog {
		diag = os.Stderr
	}
	pipeline.SetLogWriters(os.Stderr, diag)
	monitoring.SetLogger(log.Printf)

	out := *saveRoot
	if out == "" {
		out = filepath.Join(*dataRoot, "egodata")
	}
	if *video != pipeline.AllVideos && security.SanitizeFilename(*video) != *video {
		log.Fatalf("invalid video id %q", *video)
	}

	fsys := fsutil.OSFileSystem{}
	infoPath := *videoInfo
	if infoPath == "" {
		infoPath = filepath.Join(*dataRoot, "EPIC_100_video_info.csv")
	}
	fps, err := pipeline.LoadFPSTable(fsys, infoPath)
	if err != nil {
		log.Fatalf("video info: %v", err)
	}

	var actions *l5examples.FrameActionTable
	if *frameActions != "" {
		if actions, err = l5examples.LoadFrameActions(fsys, *frameActions); err != nil {
			log.Fatalf("frame actions: %v", err)
		}
	}

	runner := &pipeline.Runner{
		FS:          fsys,
		Config:      cfg,
		Options:     pipeline.Options{DataRoot: *dataRoot, Split: *split, SaveRoot: out},
		Actions:     actions,
		FPS:         fps,
		Diagnostics: monitor.VisWriter{Threshold: cfg.GetStableThreshold()},
	}

	var db *sqlite.DB
	if *dbPath != "" {
		if db, err = sqlite.Open(*dbPath); err != nil {
			log.Fatalf("open catalog: %v", err)
		}
		runner.Catalog = sqlite.NewCatalog(db, timeutil.RealClock{})
	}

	rep, err := runBatch(runner, db, *video)
	if err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("%d examples, %d sub-videos skipped\n", rep.TotalExamples, rep.SkippedTotal())
	if monitoring.WarningCount() > 0 {
		fmt.Printf("%d warnings\n", monitoring.WarningCount())
	}
}
