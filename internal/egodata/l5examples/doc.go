// Package l5examples owns Layer 5 (Examples) of the trajectory data model.
//
// Responsibilities: dataset path conventions for images and optical flow,
// the per-video frame-action table, and assembly of re-anchored windows into
// serialisable example records.
//
// Dependency rule: L5 may depend on L1-L4 and the egodata root package.
package l5examples
