// Package approval provides Approver implementations for the pipeline's
// checkpoints: an always-approve stub for unattended runs, an interactive
// console prompt, and a NATS request/reply bridge to a remote reviewer.
package approval

import (
	"context"
	"time"

	"github.com/pressroomhq/pressroom/pipeline"
)

// AutoApprover approves every checkpoint. Used for unattended runs where the
// gate configuration still wants decision records in the log.
type AutoApprover struct {
	// Actor is the name recorded on decisions. Defaults to "auto".
	Actor string
}

// Decide approves the request unconditionally.
func (a *AutoApprover) Decide(_ context.Context, _ pipeline.ApprovalRequest) (pipeline.Decision, error) {
	actor := a.Actor
	if actor == "" {
		actor = "auto"
	}
	return pipeline.Decision{
		Kind:      pipeline.DecisionApproved,
		Actor:     actor,
		DecidedAt: time.Now(),
	}, nil
}
