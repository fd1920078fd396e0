// Package l2stability owns Layer 2 (Stability) of the trajectory data model.
//
// Responsibilities: the frame/keyframe divergence metric, the hysteresis
// state machine that marks converged keyframe ranges, and reduction of those
// ranges to the valid-frame table (validFrame.csv) consumed by windowing.
//
// Dependency rule: L2 may depend on L1 and the egodata root package, never on
// L3+.
package l2stability
