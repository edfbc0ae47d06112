package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Checkpoint names a point in the pipeline where an external decision may
// halt or pass the run.
type Checkpoint string

const (
	// CheckpointAfterResearch follows the research phase.
	CheckpointAfterResearch Checkpoint = "after-research"
	// CheckpointAfterDraft follows the drafting phase.
	CheckpointAfterDraft Checkpoint = "after-draft"
	// CheckpointAfterFactCheck follows the fact-check phase.
	CheckpointAfterFactCheck Checkpoint = "after-fact-check"
	// CheckpointBeforePublish follows the editing phase, once the final
	// article exists.
	CheckpointBeforePublish Checkpoint = "before-publish"
)

// NotRequiredActor is the sentinel actor attributed to automatic approvals
// at checkpoints that are not configured as required.
const NotRequiredActor = "not-required"

// CheckpointForState maps a lifecycle state to its checkpoint, or empty for
// states with no defined checkpoint.
func CheckpointForState(s DocState) Checkpoint {
	switch s {
	case StateResearching:
		return CheckpointAfterResearch
	case StateDrafting:
		return CheckpointAfterDraft
	case StateFactChecking:
		return CheckpointAfterFactCheck
	case StateEditing:
		return CheckpointBeforePublish
	}
	return ""
}

// DecisionKind classifies an approval decision.
type DecisionKind string

const (
	// DecisionApproved passes the checkpoint.
	DecisionApproved DecisionKind = "approved"
	// DecisionRejected stops the run. Carries a reason.
	DecisionRejected DecisionKind = "rejected"
	// DecisionChangesRequested asks for rework. Carries feedback.
	DecisionChangesRequested DecisionKind = "changes_requested"
)

// Decision is the outcome of consulting a decision-maker at a checkpoint.
type Decision struct {
	Kind      DecisionKind `json:"kind"`
	Actor     string       `json:"actor"`
	Reason    string       `json:"reason,omitempty"`
	Feedback  string       `json:"feedback,omitempty"`
	DecidedAt time.Time    `json:"decided_at"`
}

// ApprovalRequest is the context handed to an external decision-maker.
type ApprovalRequest struct {
	Checkpoint Checkpoint `json:"checkpoint"`
	ItemID     string     `json:"item_id"`
	Name       string     `json:"name"`
	Topic      string     `json:"topic"`
	State      DocState   `json:"state"`
	Revisions  int        `json:"revisions"`

	// Summary is a short description of the artifact under review.
	Summary string `json:"summary,omitempty"`
}

// Approver is the external decision-maker consulted at required checkpoints:
// a human console, an always-approve stub, or a remote review service.
type Approver interface {
	Decide(ctx context.Context, req ApprovalRequest) (Decision, error)
}

// GateConfig enumerates which checkpoints require approval.
type GateConfig struct {
	AfterResearch  bool
	AfterDraft     bool
	AfterFactCheck bool
	BeforePublish  bool
}

// DefaultGateConfig requires approval only before publishing.
func DefaultGateConfig() GateConfig {
	return GateConfig{BeforePublish: true}
}

// Gate applies per-checkpoint approval configuration, consulting the
// external decision-maker only where approval is required.
type Gate struct {
	config   GateConfig
	approver Approver
	logger   *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the gate logger.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates an approval gate. The approver may be nil if no
// checkpoint is configured as required.
func NewGate(config GateConfig, approver Approver, opts ...GateOption) *Gate {
	g := &Gate{
		config:   config,
		approver: approver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsRequired reports whether the checkpoint at the given state requires an
// external decision. States with no defined checkpoint are never required.
func (g *Gate) IsRequired(s DocState) bool {
	switch CheckpointForState(s) {
	case CheckpointAfterResearch:
		return g.config.AfterResearch
	case CheckpointAfterDraft:
		return g.config.AfterDraft
	case CheckpointAfterFactCheck:
		return g.config.AfterFactCheck
	case CheckpointBeforePublish:
		return g.config.BeforePublish
	}
	return false
}

// Decide resolves the checkpoint at the item's current state. Checkpoints
// that are not required auto-pass with the sentinel actor, without
// consulting the decision-maker.
func (g *Gate) Decide(ctx context.Context, item *Item) (Decision, error) {
	checkpoint := CheckpointForState(item.State())

	if !g.IsRequired(item.State()) {
		g.logger.Debug("Checkpoint not required, auto-approving",
			"checkpoint", checkpoint,
			"item", item.Name(),
			"state", item.State())
		return Decision{
			Kind:      DecisionApproved,
			Actor:     NotRequiredActor,
			DecidedAt: time.Now(),
		}, nil
	}

	if g.approver == nil {
		return Decision{}, fmt.Errorf("checkpoint %s requires approval but no approver is configured", checkpoint)
	}

	req := ApprovalRequest{
		Checkpoint: checkpoint,
		ItemID:     item.ID(),
		Name:       item.Name(),
		Topic:      item.Request().Topic,
		State:      item.State(),
		Revisions:  item.Revisions(),
		Summary:    summarizeForApproval(item),
	}

	decision, err := g.approver.Decide(ctx, req)
	if err != nil {
		return Decision{}, fmt.Errorf("approval decision at %s: %w", checkpoint, err)
	}

	g.logger.Info("Checkpoint decided",
		"checkpoint", checkpoint,
		"item", item.Name(),
		"decision", decision.Kind,
		"actor", decision.Actor)

	return decision, nil
}

// CheckAndApprove is the convenience wrapper used around Decide: it returns
// true on approve, an error on reject, and false (non-fatal) on
// request-changes.
func (g *Gate) CheckAndApprove(ctx context.Context, item *Item) (bool, error) {
	decision, err := g.Decide(ctx, item)
	if err != nil {
		return false, err
	}

	switch decision.Kind {
	case DecisionApproved:
		return true, nil
	case DecisionRejected:
		return false, &RejectionError{Actor: decision.Actor, Reason: decision.Reason}
	case DecisionChangesRequested:
		return false, nil
	default:
		return false, fmt.Errorf("unknown approval decision %q from %s", decision.Kind, decision.Actor)
	}
}

// summarizeForApproval picks the most relevant artifact summary for the
// item's current state.
func summarizeForApproval(item *Item) string {
	switch item.State() {
	case StateResearching:
		if r := item.Research(); r != nil {
			return r.Summary
		}
	case StateDrafting:
		if d := item.Draft(); d != nil {
			return fmt.Sprintf("draft of %d words", d.WordCount)
		}
	case StateFactChecking:
		if r := item.FactCheck(); r != nil {
			return fmt.Sprintf("fact-check verdict %s with %d issues", r.Verdict, len(r.Issues))
		}
	case StateEditing:
		if a := item.Article(); a != nil {
			return fmt.Sprintf("final article, quality score %.2f", a.Score)
		}
	}
	return ""
}
