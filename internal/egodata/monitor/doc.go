// Package monitor renders per-sub-video diagnostics and serves the inspect
// web UI over the run catalog.
//
// The figure has three panels: the raw frame trajectory against the keyframe
// trajectory seen from above (x against -y), the frames kept as stable, and
// the frame/keyframe distance curve with the open and close thresholds. It is
// written as vis.png (gonum/plot) and vis.html (go-echarts) next to the pose
// dumps.
package monitor
