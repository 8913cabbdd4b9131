package controller

import (
	"fmt"
)

// Stage names the part of the run loop a frame failed in.
type Stage int

const (
	// StageSource is a failure reading the frame.
	StageSource Stage = iota
	// StageProcess is a failure detecting, tracking or rendering the frame.
	StageProcess
	// StageSink is a failure writing the frame or closing the sink.
	StageSink
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageSource:
		return "source"
	case StageProcess:
		return "process"
	case StageSink:
		return "sink"
	default:
		return "unknown"
	}
}

// FrameError reports which frame a run stopped on and where.
type FrameError struct {
	// Index is the 0-based frame index within the run.
	Index int
	Stage Stage
	Err   error
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %s: %v", e.Index, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *FrameError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for github.com/pkg/errors.Cause.
func (e *FrameError) Cause() error {
	return e.Err
}
