// Package pipeline implements the article production pipeline: the document
// state machine, the work item it tracks, and the orchestrator that drives a
// work item from topic request to published article.
package pipeline

// DocState represents the lifecycle state of a document in the pipeline.
type DocState string

const (
	// StateCreated indicates the work item has been created but no stage has run.
	StateCreated DocState = "created"
	// StateResearching indicates the research stage is gathering findings.
	StateResearching DocState = "researching"
	// StateDrafting indicates the writer stage is producing a draft.
	StateDrafting DocState = "drafting"
	// StateFactChecking indicates the draft is being fact-checked.
	StateFactChecking DocState = "fact_checking"
	// StateEditing indicates the editor stage is producing the final article.
	StateEditing DocState = "editing"
	// StateCritiquing indicates the article is under critique review.
	StateCritiquing DocState = "critiquing"
	// StatePublished indicates the article has been persisted. Terminal.
	StatePublished DocState = "published"
	// StateRejected indicates the run was stopped by a failure or a rejected
	// approval. Terminal.
	StateRejected DocState = "rejected"
)

// String returns the string representation of the state.
func (s DocState) String() string {
	return string(s)
}

// IsValid checks if a state is one of the enumerated lifecycle states.
func (s DocState) IsValid() bool {
	switch s {
	case StateCreated, StateResearching, StateDrafting, StateFactChecking,
		StateEditing, StateCritiquing, StatePublished, StateRejected:
		return true
	}
	return false
}

// IsTerminal returns true for states with no legal outgoing transition.
func (s DocState) IsTerminal() bool {
	return s == StatePublished || s == StateRejected
}

// Next returns the immediate forward successor in the production order,
// or empty for terminal states.
func (s DocState) Next() DocState {
	switch s {
	case StateCreated:
		return StateResearching
	case StateResearching:
		return StateDrafting
	case StateDrafting:
		return StateFactChecking
	case StateFactChecking:
		return StateEditing
	case StateEditing:
		return StateCritiquing
	case StateCritiquing:
		return StatePublished
	}
	return ""
}

// CanTransitionTo returns true if the state can legally transition to target.
// Forward transitions follow the production order. Two backward transitions
// exist for revision loops: fact_checking -> drafting and
// critiquing -> editing. Rejected is reachable from any non-terminal state.
func (s DocState) CanTransitionTo(target DocState) bool {
	switch s {
	case StateCreated:
		return target == StateResearching || target == StateRejected
	case StateResearching:
		return target == StateDrafting || target == StateRejected
	case StateDrafting:
		return target == StateFactChecking || target == StateRejected
	case StateFactChecking:
		// Backward edge to drafting is used by the fact-check revision loop.
		return target == StateEditing || target == StateDrafting || target == StateRejected
	case StateEditing:
		return target == StateCritiquing || target == StateRejected
	case StateCritiquing:
		// Backward edge to editing is used by the critique revision loop.
		return target == StatePublished || target == StateEditing || target == StateRejected
	case StatePublished, StateRejected:
		// Terminal states have no outgoing transitions.
		return false
	}
	return false
}
