// Package l4egocentric owns Layer 4 (Egocentric) of the trajectory data model.
//
// Responsibilities: building the body-to-world rotation of a pivot frame
// from its quaternion and re-expressing every position of a window relative
// to that pivot.
//
// Dependency rule: L4 may depend on L1-L3 and the egodata root package, never
// on L5+.
package l4egocentric
