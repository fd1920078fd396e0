// Package sqlite contains the SQLite catalog of batch runs.
//
// Every run, every processed sub-video (with its outcome and stability
// diagnostics) and every emitted example is recorded here so that the
// inspect server can browse past runs without re-reading the JSON output.
// The schema is managed by embedded golang-migrate migrations.
package sqlite
