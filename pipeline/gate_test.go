package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedApprover returns queued decisions in order and records the
// requests it saw.
type scriptedApprover struct {
	decisions []Decision
	err       error
	requests  []ApprovalRequest
}

func (s *scriptedApprover) Decide(_ context.Context, req ApprovalRequest) (Decision, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return Decision{}, s.err
	}

	d := s.decisions[0]
	if len(s.decisions) > 1 {
		s.decisions = s.decisions[1:]
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now()
	}
	return d, nil
}

func approve(actor string) Decision {
	return Decision{Kind: DecisionApproved, Actor: actor}
}

func TestCheckpointForState(t *testing.T) {
	tests := []struct {
		state DocState
		want  Checkpoint
	}{
		{StateResearching, CheckpointAfterResearch},
		{StateDrafting, CheckpointAfterDraft},
		{StateFactChecking, CheckpointAfterFactCheck},
		{StateEditing, CheckpointBeforePublish},
		{StateCreated, ""},
		{StateCritiquing, ""},
		{StatePublished, ""},
		{StateRejected, ""},
	}

	for _, tt := range tests {
		if got := CheckpointForState(tt.state); got != tt.want {
			t.Errorf("CheckpointForState(%s) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestGateNotRequiredAutoApproves(t *testing.T) {
	approver := &scriptedApprover{decisions: []Decision{approve("human")}}
	gate := NewGate(GateConfig{}, approver)

	item := itemInState(t, StateResearching)

	decision, err := gate.Decide(context.Background(), item)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Kind != DecisionApproved {
		t.Errorf("Kind = %s, want approved", decision.Kind)
	}
	if decision.Actor != NotRequiredActor {
		t.Errorf("Actor = %q, want %q", decision.Actor, NotRequiredActor)
	}
	if len(approver.requests) != 0 {
		t.Error("approver must not be consulted for a non-required checkpoint")
	}
}

func TestGateRequiredConsultsApprover(t *testing.T) {
	approver := &scriptedApprover{decisions: []Decision{approve("reviewer")}}
	gate := NewGate(GateConfig{AfterResearch: true}, approver)

	item := itemInState(t, StateResearching)
	if err := item.AttachResearch(&Research{Summary: "the findings"}); err != nil {
		t.Fatal(err)
	}

	decision, err := gate.Decide(context.Background(), item)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Actor != "reviewer" {
		t.Errorf("Actor = %q, want reviewer", decision.Actor)
	}

	if len(approver.requests) != 1 {
		t.Fatalf("expected 1 approval request, got %d", len(approver.requests))
	}
	req := approver.requests[0]
	if req.Checkpoint != CheckpointAfterResearch {
		t.Errorf("Checkpoint = %s, want after-research", req.Checkpoint)
	}
	if req.Summary != "the findings" {
		t.Errorf("Summary = %q, want the research summary", req.Summary)
	}
	if req.Topic != "test topic" {
		t.Errorf("Topic = %q, want test topic", req.Topic)
	}
}

func TestGateRequiredWithoutApprover(t *testing.T) {
	gate := NewGate(GateConfig{BeforePublish: true}, nil)
	item := itemInState(t, StateEditing)

	if _, err := gate.Decide(context.Background(), item); err == nil {
		t.Fatal("expected error when required checkpoint has no approver")
	}
}

func TestGateApproverError(t *testing.T) {
	wantErr := errors.New("reviewer unreachable")
	gate := NewGate(GateConfig{AfterDraft: true}, &scriptedApprover{err: wantErr})
	item := itemInState(t, StateDrafting)

	_, err := gate.Decide(context.Background(), item)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped approver error, got %v", err)
	}
}

func TestCheckAndApprove(t *testing.T) {
	item := itemInState(t, StateDrafting)

	t.Run("approved", func(t *testing.T) {
		gate := NewGate(GateConfig{AfterDraft: true},
			&scriptedApprover{decisions: []Decision{approve("reviewer")}})

		ok, err := gate.CheckAndApprove(context.Background(), item)
		if err != nil || !ok {
			t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		gate := NewGate(GateConfig{AfterDraft: true}, &scriptedApprover{decisions: []Decision{
			{Kind: DecisionRejected, Actor: "reviewer", Reason: "off-topic"},
		}})

		ok, err := gate.CheckAndApprove(context.Background(), item)
		if ok {
			t.Error("rejected decision must not approve")
		}
		var rejection *RejectionError
		if !errors.As(err, &rejection) {
			t.Fatalf("expected RejectionError, got %v", err)
		}
		if rejection.Actor != "reviewer" || rejection.Reason != "off-topic" {
			t.Errorf("unexpected rejection: %+v", rejection)
		}
	})

	t.Run("changes requested", func(t *testing.T) {
		gate := NewGate(GateConfig{AfterDraft: true}, &scriptedApprover{decisions: []Decision{
			{Kind: DecisionChangesRequested, Actor: "reviewer", Feedback: "tighten intro"},
		}})

		ok, err := gate.CheckAndApprove(context.Background(), item)
		if ok || err != nil {
			t.Fatalf("got (%v, %v), want (false, nil)", ok, err)
		}
	})
}

func TestGateIsRequired(t *testing.T) {
	gate := NewGate(GateConfig{AfterDraft: true, BeforePublish: true}, nil)

	if gate.IsRequired(StateResearching) {
		t.Error("after-research should not be required")
	}
	if !gate.IsRequired(StateDrafting) {
		t.Error("after-draft should be required")
	}
	if !gate.IsRequired(StateEditing) {
		t.Error("before-publish should be required")
	}
	if gate.IsRequired(StateCritiquing) {
		t.Error("critiquing has no checkpoint")
	}
}
