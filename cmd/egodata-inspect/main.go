// Command egodata-inspect serves the run catalog, per-sub-video charts and
// example lists over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/minhpvo/ORB-SLAM2/internal/config"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l2stability"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/monitor"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/storage/sqlite"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/monitoring"
	"github.com/minhpvo/ORB-SLAM2/internal/version"
)

var (
	listen      = flag.String("listen", "localhost:8090", "listen address")
	dataRoot    = flag.String("data-root", ".", "dataset root; chart dir= parameters are resolved under it")
	outputRoot  = flag.String("save-root", "", "directory of EgoData_<video>.json files (default <data-root>/egodata)")
	dbPath      = flag.String("db", "", "SQLite run catalog (optional)")
	configPath  = flag.String("config", "", "pipeline config JSON used to re-segment charts")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println("egodata-inspect", version.String())
		return
	}
	monitoring.SetLogger(log.Printf)

	cfg := config.DefaultPipelineConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadPipelineConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	out := *outputRoot
	if out == "" {
		out = filepath.Join(*dataRoot, "egodata")
	}

	wsConfig := monitor.WebServerConfig{
		Address:    *listen,
		FS:         fsutil.OSFileSystem{},
		DataRoot:   *dataRoot,
		OutputRoot: out,
		Params: l2stability.Params{
			Window:    cfg.GetStableWindow(),
			Threshold: cfg.GetStableThreshold(),
		},
	}
	if *dbPath != "" {
		db, err := sqlite.Open(*dbPath)
		if err != nil {
			log.Fatalf("open catalog: %v", err)
		}
		defer db.Close()
		wsConfig.DB = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := monitor.NewWebServer(wsConfig).Start(ctx); err != nil {
		log.Fatalf("inspect server: %v", err)
	}
	log.Printf("inspect server stopped")
}
