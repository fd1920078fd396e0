// Package l3windows owns Layer 3 (Windows) of the trajectory data model.
//
// Responsibilities: finding maximal runs of contiguous original frame
// indices in the valid-frame table and cutting them into fixed-length,
// non-overlapping windows.
//
// Dependency rule: L3 may depend on L1-L2 and the egodata root package, never
// on L4+.
package l3windows
