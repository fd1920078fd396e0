package monitor

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/minhpvo/ORB-SLAM2/internal/egodata"
	"github.com/minhpvo/ORB-SLAM2/internal/egodata/l2stability"
	"github.com/minhpvo/ORB-SLAM2/internal/fsutil"
)

// Output file names, written into the sub-video metadata directory.
const (
	PNGName  = "vis.png"
	HTMLName = "vis.html"
)

var (
	frameColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	keyColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	stableColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	limitColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	mutedColor  = color.RGBA{R: 190, G: 190, B: 190, A: 255}
)

// Figure holds the series of one sub-video diagnostic.
type Figure struct {
	Title     string
	Frames    plotter.XYs
	KeyFrames plotter.XYs
	Stable    plotter.XYs
	// Distances is keyframe timestamp against frame/keyframe distance.
	Distances plotter.XYs
	Threshold float64
	Segments  []egodata.StableSegment
}

// topDown projects positions onto the ground plane as (-y, x). Degenerate
// rows are left out.
func topDown(poses []egodata.FramePose) plotter.XYs {
	pts := make(plotter.XYs, 0, len(poses))
	for _, p := range poses {
		if p.IsDegenerate() {
			continue
		}
		pts = append(pts, plotter.XY{X: -p.Position.Y, Y: p.Position.X})
	}
	return pts
}

// NewFigure collects the series for traj and its segmentation result.
func NewFigure(title string, traj *egodata.Trajectory, res *l2stability.Result, threshold float64) *Figure {
	f := &Figure{
		Title:     title,
		Frames:    topDown(traj.Frames),
		KeyFrames: topDown(traj.KeyFrames),
		Threshold: threshold,
	}
	if res != nil {
		if res.Valid != nil {
			f.Stable = topDown(res.Valid.Rows)
		}
		f.Segments = res.Segments
		f.Distances = make(plotter.XYs, len(res.Distances))
		for i, d := range res.Distances {
			f.Distances[i] = plotter.XY{X: traj.KeyFrames[i].T, Y: d}
		}
	}
	return f
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.Color = c
	l.Width = vg.Points(1)
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

func addScatter(p *plot.Plot, name string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}

func addLimit(p *plot.Plot, name string, y float64, dashed bool) {
	fn := plotter.NewFunction(func(float64) float64 { return y })
	fn.Color = limitColor
	fn.Width = vg.Points(1)
	if dashed {
		fn.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	p.Add(fn)
	p.Legend.Add(name, fn)
}

func newPanel(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

// Plots builds the three panels, top to bottom.
func (f *Figure) Plots() ([]*plot.Plot, error) {
	raw := newPanel(f.Title+" - frames vs keyframes", "-y", "x")
	if err := addLine(raw, "frames", f.Frames, frameColor); err != nil {
		return nil, err
	}
	if err := addScatter(raw, "keyframes", f.KeyFrames, keyColor); err != nil {
		return nil, err
	}

	stable := newPanel(fmt.Sprintf("Stable frames (%d segments)", len(f.Segments)), "-y", "x")
	if err := addLine(stable, "all frames", f.Frames, mutedColor); err != nil {
		return nil, err
	}
	if err := addScatter(stable, "stable", f.Stable, stableColor); err != nil {
		return nil, err
	}

	dist := newPanel("Frame/keyframe distance", "keyframe t", "distance")
	if err := addLine(dist, "distance", f.Distances, frameColor); err != nil {
		return nil, err
	}
	if f.Threshold > 0 && len(f.Distances) > 0 {
		addLimit(dist, "open", f.Threshold, false)
		addLimit(dist, "close", 2*f.Threshold, true)
	}
	return []*plot.Plot{raw, stable, dist}, nil
}

// WritePNG renders the stacked panels as a PNG image.
func (f *Figure) WritePNG(w io.Writer) error {
	panels, err := f.Plots()
	if err != nil {
		return err
	}
	grid := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		grid[i] = []*plot.Plot{p}
	}

	img := vgimg.New(8*vg.Inch, vg.Length(4*len(panels))*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		grid[i][0].Draw(canvases[i][0])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// VisWriter writes vis.png and vis.html for a sub-video.
type VisWriter struct {
	// Threshold is the open threshold drawn on the distance panel.
	Threshold float64
	// SkipHTML disables vis.html.
	SkipHTML bool
}

// WriteDiagnostics renders both figures into dir.
func (v VisWriter) WriteDiagnostics(fsys fsutil.FileSystem, dir string, traj *egodata.Trajectory, res *l2stability.Result) error {
	fig := NewFigure(filepath.Base(filepath.Dir(dir)), traj, res, v.Threshold)
	if err := writeFile(fsys, filepath.Join(dir, PNGName), fig.WritePNG); err != nil {
		return err
	}
	if v.SkipHTML {
		return nil
	}
	return writeFile(fsys, filepath.Join(dir, HTMLName), fig.WriteHTML)
}

func writeFile(fsys fsutil.FileSystem, path string, render func(io.Writer) error) error {
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(w); err != nil {
		w.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
