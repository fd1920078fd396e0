// Package egodata holds the shared data model for turning visual-odometry
// pose dumps into egocentric trajectory examples.
//
// The pipeline is layered, leaves first:
//
//	l1poses      - pose-dump loading (Frame.txt / keyFrame.txt)
//	l2stability  - frame/keyframe divergence and stable segments
//	l3windows    - contiguous runs and fixed-length windows
//	l4egocentric - pivot-relative re-anchoring
//	l5examples   - example records with image/flow paths and action labels
//
// Dependency rule: a layer may depend on lower layers and on this package,
// never on a higher layer. The pipeline package is the composition root.
package egodata
