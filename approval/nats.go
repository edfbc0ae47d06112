package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pressroomhq/pressroom/pipeline"
)

// DefaultApprovalSubject is the request subject used when none is configured.
const DefaultApprovalSubject = "pressroom.approval.request"

// natsDecision is the wire form of a remote reviewer's reply.
type natsDecision struct {
	Kind     string `json:"kind"`
	Actor    string `json:"actor"`
	Reason   string `json:"reason,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// NATSApprover forwards checkpoint decisions to a remote reviewer over NATS
// request/reply. The approval request is published as JSON and the reviewer
// answers on the reply inbox with a decision payload.
type NATSApprover struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NATSOption configures a NATSApprover.
type NATSOption func(*NATSApprover)

// WithSubject overrides the request subject.
func WithSubject(subject string) NATSOption {
	return func(a *NATSApprover) {
		a.subject = subject
	}
}

// WithTimeout caps how long to wait for a reviewer reply.
func WithTimeout(d time.Duration) NATSOption {
	return func(a *NATSApprover) {
		a.timeout = d
	}
}

// NewNATSApprover creates an approver over an established NATS connection.
func NewNATSApprover(conn *nats.Conn, opts ...NATSOption) *NATSApprover {
	a := &NATSApprover{
		conn:    conn,
		subject: DefaultApprovalSubject,
		timeout: 10 * time.Minute, // Human reviewers are slow
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Decide publishes the approval request and waits for the reviewer's reply.
func (a *NATSApprover) Decide(ctx context.Context, req pipeline.ApprovalRequest) (pipeline.Decision, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return pipeline.Decision{}, fmt.Errorf("marshal approval request: %w", err)
	}

	reqCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	msg, err := a.conn.RequestWithContext(reqCtx, a.subject, payload)
	if err != nil {
		return pipeline.Decision{}, fmt.Errorf("request approval on %s: %w", a.subject, err)
	}

	var reply natsDecision
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return pipeline.Decision{}, fmt.Errorf("parse approval reply: %w", err)
	}

	kind := pipeline.DecisionKind(reply.Kind)
	switch kind {
	case pipeline.DecisionApproved, pipeline.DecisionRejected, pipeline.DecisionChangesRequested:
	default:
		return pipeline.Decision{}, fmt.Errorf("invalid decision kind %q in approval reply", reply.Kind)
	}

	actor := reply.Actor
	if actor == "" {
		actor = "nats"
	}

	return pipeline.Decision{
		Kind:      kind,
		Actor:     actor,
		Reason:    reply.Reason,
		Feedback:  reply.Feedback,
		DecidedAt: time.Now(),
	}, nil
}
