// Package l1poses owns Layer 1 (Poses) of the trajectory data model.
//
// Responsibilities: parsing the estimator's pose dumps (<prefix>_Frame.txt
// and <prefix>_keyFrame.txt) into typed rows, and the tabular CSV codec
// shared by Frame.csv, keyFrame.csv and validFrame.csv.
//
// Dependency rule: L1 depends only on the egodata root package.
package l1poses
