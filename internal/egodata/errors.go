package egodata

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure classes of a sub-video run. All of
// them are scoped to the sub-video being processed.
var (
	// ErrMissingFile marks a required pose dump or table that does not exist.
	ErrMissingFile = errors.New("missing file")
	// ErrConsistency marks stability bookkeeping that does not add up, or a
	// keyframe timestamp absent from the frame table.
	ErrConsistency = errors.New("consistency error")
	// ErrEmptyResult marks a sub-video that produced no valid frames or no
	// windows. It is reported, never fatal.
	ErrEmptyResult = errors.New("empty result")
)

// MissingFileError names the absent file.
type MissingFileError struct {
	What string
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s file doesn't exist: %s", e.What, e.Path)
}

func (e *MissingFileError) Unwrap() error { return ErrMissingFile }

// ConsistencyError describes a violated pipeline invariant.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string { return "consistency: " + e.Msg }

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// Consistencyf builds a ConsistencyError.
func Consistencyf(format string, args ...any) error {
	return &ConsistencyError{Msg: fmt.Sprintf(format, args...)}
}

// EmptyResultWarning reports a stage that produced nothing.
type EmptyResultWarning struct {
	Stage string
}

func (e *EmptyResultWarning) Error() string {
	return fmt.Sprintf("%s produced no results", e.Stage)
}

func (e *EmptyResultWarning) Unwrap() error { return ErrEmptyResult }
