package firmware

import "time"

// Upload phases reported through Progress.Phase.
const (
	PhaseStarting = "starting"
	PhaseSending  = "sending"
	PhaseEnding   = "ending"
	PhaseComplete = "complete"
)

// Progress contains information about the upload progress.
// Passed to ProgressCallback during Program.
type Progress struct {
	// Phase describes the current operation phase:
	//   "starting" - Opening the upload session
	//   "sending"  - Sending image segments
	//   "ending"   - Closing the upload session
	//   "complete" - Operation completed successfully
	Phase string

	// CurrentSegment is the number of segments sent so far
	CurrentSegment int

	// TotalSegments is the total number of segments to send
	TotalSegments int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the total number of image bytes sent so far
	BytesWritten int

	// ElapsedTime is the time elapsed since the upload started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each phase change and each segment.
// Implementations should return quickly; the upload waits for them.
//
// Example:
//
//	prog := firmware.New(dev,
//	    firmware.WithProgressCallback(func(p firmware.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Segment %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentSegment, p.TotalSegments)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// programmer. Any xtalk.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
