package pipeline

import "time"

// Outcome is the sole externally observable result of a run. Created once at
// the end of a run and immutable thereafter.
type Outcome struct {
	// Item is the work item in its final state.
	Item *Item

	// Location is the persisted article location. Set only on success.
	Location string

	// FailedAt is the state at which the run stopped. Set only on failure.
	FailedAt DocState

	// Message is the human-readable failure message. Set only on failure.
	Message string

	// DebugLocation is where partial artifacts were persisted, if any.
	DebugLocation string

	// Elapsed is the total run duration.
	Elapsed time.Duration

	success bool
}

// Succeeded reports whether the run completed with a published article.
func (o *Outcome) Succeeded() bool {
	return o.success
}

func successOutcome(item *Item, location string, elapsed time.Duration) *Outcome {
	return &Outcome{
		Item:     item,
		Location: location,
		Elapsed:  elapsed,
		success:  true,
	}
}

func failureOutcome(item *Item, failedAt DocState, message, debugLocation string, elapsed time.Duration) *Outcome {
	return &Outcome{
		Item:          item,
		FailedAt:      failedAt,
		Message:       message,
		DebugLocation: debugLocation,
		Elapsed:       elapsed,
	}
}
