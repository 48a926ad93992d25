// Package progress reports pipeline progress to the terminal.
package progress

import "time"

// Stage identifies which pipeline stage is active.
type Stage string

const (
	StageLoad     Stage = "load"
	StageClassify Stage = "classify"
	StageEvaluate Stage = "evaluate"
	StageComplete Stage = "complete"
)

// Event carries progress information from the pipeline to the renderer.
type Event struct {
	Stage   Stage
	Message string
	Done    int
	Total   int
	Elapsed time.Duration
	Error   error
}

// Percent returns Done/Total in [0, 1], or 0 when Total is unknown.
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	p := float64(e.Done) / float64(e.Total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}
