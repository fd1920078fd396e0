// Package pipeline drives the batch curation of pose dumps into examples.
//
// This package is the composition root: it imports the layer packages
// (l1poses through l5examples) and the sqlite catalog types, but none of
// those packages import pipeline/. Diagnostics rendering is injected through
// the DiagnosticsWriter interface so the monitor package stays optional.
//
// Work is strictly sequential: one sub-video is loaded, segmented, windowed,
// re-anchored and assembled before the next begins. A failure is scoped to
// the sub-video that produced it.
package pipeline
