package l5examples

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Layout resolves per-frame artefact paths for one sub-video directory, e.g.
// <root>/rgb/train/P01/P01_01. Flow lives in the parallel flow/ tree with u
// and v subdirectories and one flow image per pair of RGB frames.
type Layout struct {
	SubDir string
}

// FrameName formats an extracted frame file name.
func FrameName(index int) string {
	return fmt.Sprintf("frame_%010d.jpg", index)
}

// ImagePath returns the RGB frame path for an original frame index.
func (l Layout) ImagePath(index int) string {
	return filepath.Join(l.SubDir, FrameName(index))
}

// FlowDir returns the flow directory matching SubDir.
func (l Layout) FlowDir() string {
	return strings.ReplaceAll(l.SubDir, "rgb/", "flow/")
}

// ImagePaths returns n consecutive frame paths starting at start.
func (l Layout) ImagePaths(start, n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = l.ImagePath(start + i)
	}
	return paths
}

// FlowPaths returns the u and v flow paths covering n RGB frames from start.
// Flow is indexed at half the frame rate: indices start/2 .. start/2+n/2-1.
func (l Layout) FlowPaths(start, n int) (u, v []string) {
	dir := l.FlowDir()
	first, count := start/2, n/2
	u = make([]string, count)
	v = make([]string, count)
	for i := 0; i < count; i++ {
		name := FrameName(first + i)
		u[i] = filepath.Join(dir, "u", name)
		v[i] = filepath.Join(dir, "v", name)
	}
	return u, v
}
