package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l1poses"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l2stability"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/storage/sqlite"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
	"github.com/minhpvo/ORB-SLAM2/internal/httputil"
	"github.com/minhpvo/ORB-SLAM2/internal/security"
	"github.com/minhpvo/ORB-SLAM2/internal/version"
)

// WebServer serves the run catalog, rendered diagnostics and the example
// lists of a dataset.
type WebServer struct {
	address    string
	server     *http.Server
	db         *sqlite.DB
	catalog    *sqlite.Catalog
	fsys       fsutil.FileSystem
	dataRoot   string
	outputRoot string
	params     l2stability.Params
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	// DB is optional; catalog endpoints answer 503 without it.
	DB *sqlite.DB
	FS fsutil.FileSystem
	// DataRoot bounds every dir= query parameter.
	DataRoot string
	// OutputRoot holds the EgoData_<video>.json files.
	OutputRoot string
	// Params re-segments sub-videos for the chart pages.
	Params l2stability.Params
}

// NewWebServer creates a web server for the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:    config.Address,
		db:         config.DB,
		fsys:       config.FS,
		dataRoot:   config.DataRoot,
		outputRoot: config.OutputRoot,
		params:     config.Params,
	}
	if ws.fsys == nil {
		ws.fsys = fsutil.OSFileSystem{}
	}
	if ws.params.Window == 0 {
		ws.params = l2stability.DefaultParams()
	}
	if ws.db != nil {
		ws.catalog = sqlite.NewCatalog(ws.db, nil)
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Start serves until ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("inspect server listening on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("inspect server shutdown error: %v", err)
		return ws.server.Close()
	}
	return nil
}

// Handler returns the route table.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/subvideos", ws.handleSubVideos)
	mux.HandleFunc("/api/segments", ws.handleSegments)
	mux.HandleFunc("/api/examples", ws.handleExamples)
	mux.HandleFunc("/api/output", ws.handleOutput)
	mux.HandleFunc("/charts/subvideo", ws.handleSubVideoChart)
	mux.HandleFunc("/files/vis.png", ws.handleVisPNG)
	if ws.db != nil {
		if err := ws.db.AttachAdminRoutes(mux); err != nil {
			log.Printf("admin routes unavailable: %v", err)
		}
	}
	return mux
}

// get rejects non-GET requests and a missing catalog when needCatalog.
func (ws *WebServer) get(w http.ResponseWriter, r *http.Request, needCatalog bool) bool {
	if !httputil.RequireGET(w, r) {
		return false
	}
	if needCatalog && ws.catalog == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no catalog database configured")
		return false
	}
	return true
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.String(),
		"catalog": ws.catalog != nil,
	})
}

func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, true) {
		return
	}
	runs, err := ws.catalog.Runs.List(httputil.QueryInt(r, "limit", 20, 1, 500))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

func (ws *WebServer) handleSubVideos(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, true) {
		return
	}
	runID, ok := httputil.RequireParam(w, r, "run_id")
	if !ok {
		return
	}
	subs, err := ws.catalog.SubVideos.ListByRun(runID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subs)
}

func (ws *WebServer) handleSegments(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, true) {
		return
	}
	runID, ok := httputil.RequireParam(w, r, "run_id")
	if !ok {
		return
	}
	subID, ok := httputil.RequireParam(w, r, "sub_id")
	if !ok {
		return
	}
	segs, err := ws.catalog.SubVideos.Segments(runID, subID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, segs)
}

func (ws *WebServer) handleExamples(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, true) {
		return
	}
	runID, ok := httputil.RequireParam(w, r, "run_id")
	if !ok {
		return
	}
	videoID, ok := httputil.RequireParam(w, r, "video_id")
	if !ok {
		return
	}
	rows, err := ws.catalog.Examples.ListByVideo(runID, videoID)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

// handleOutput returns the examples written for one video. Query params:
//   - video (required)
//   - limit (optional) caps the number of examples returned
func (ws *WebServer) handleOutput(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, false) {
		return
	}
	video, ok := httputil.RequireParam(w, r, "video")
	if !ok {
		return
	}
	path := filepath.Join(ws.outputRoot, "EgoData_"+security.SanitizeFilename(video)+".json")
	data, err := ws.fsys.ReadFile(path)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "no output for video")
		return
	}
	var examples []egodata.Example
	if err := json.Unmarshal(data, &examples); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := len(examples)
	if n := httputil.QueryInt(r, "limit", total, 0, total); n < total {
		examples = examples[:n]
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"video":    video,
		"total":    total,
		"examples": examples,
	})
}

// metaDir resolves the dir= parameter against the data root.
func (ws *WebServer) metaDir(w http.ResponseWriter, r *http.Request) (string, bool) {
	rel, ok := httputil.RequireParam(w, r, "dir")
	if !ok {
		return "", false
	}
	dir, err := security.ResolveWithin(ws.dataRoot, rel)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "invalid dir")
		return "", false
	}
	return dir, true
}

// loadExported reads the Frame.csv and keyFrame.csv exported into dir.
func (ws *WebServer) loadExported(dir string) (*egodata.Trajectory, error) {
	frames, err := l1poses.ReadCSV(ws.fsys, filepath.Join(dir, "Frame.csv"))
	if err != nil {
		return nil, err
	}
	keyFrames, err := l1poses.ReadCSV(ws.fsys, filepath.Join(dir, "keyFrame.csv"))
	if err != nil {
		return nil, err
	}
	return egodata.NewTrajectory(frames, keyFrames), nil
}

// handleSubVideoChart re-segments the exported trajectory of a sub-video and
// renders the echarts page. Query params:
//   - dir (required) metadata directory relative to the data root
func (ws *WebServer) handleSubVideoChart(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, false) {
		return
	}
	dir, ok := ws.metaDir(w, r)
	if !ok {
		return
	}
	traj, err := ws.loadExported(dir)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	res, err := l2stability.Segment(traj, ws.params)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	fig := NewFigure(filepath.Base(filepath.Dir(dir)), traj, res, ws.params.Threshold)
	var buf bytes.Buffer
	if err := fig.WriteHTML(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (ws *WebServer) handleVisPNG(w http.ResponseWriter, r *http.Request) {
	if !ws.get(w, r, false) {
		return
	}
	dir, ok := ws.metaDir(w, r)
	if !ok {
		return
	}
	data, err := ws.fsys.ReadFile(filepath.Join(dir, PNGName))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "no vis.png in dir")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}
