// Package model provides capability-based model selection for pipeline
// stages. Instead of hardcoding model names, stages specify capabilities
// (research, writing, critique) and the registry resolves them to available
// models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityResearch is for gathering and summarizing background material.
	CapabilityResearch Capability = "research"

	// CapabilityWriting is for long-form article drafting.
	CapabilityWriting Capability = "writing"

	// CapabilityFactCheck is for claim verification against the draft.
	CapabilityFactCheck Capability = "factcheck"

	// CapabilityEditing is for polishing and cross-linking the final article.
	CapabilityEditing Capability = "editing"

	// CapabilityCritique is for quality review and per-dimension scoring.
	CapabilityCritique Capability = "critique"
)

// StageCapabilities maps pipeline stage names to their default capability.
var StageCapabilities = map[string]Capability{
	"research":   CapabilityResearch,
	"writer":     CapabilityWriting,
	"fact-check": CapabilityFactCheck,
	"editor":     CapabilityEditing,
	"critic":     CapabilityCritique,
}

// CapabilityForStage returns the default capability for a stage name.
// Returns CapabilityWriting as fallback for unknown stages.
func CapabilityForStage(stage string) Capability {
	if c, ok := StageCapabilities[stage]; ok {
		return c
	}
	return CapabilityWriting
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityResearch, CapabilityWriting, CapabilityFactCheck,
		CapabilityEditing, CapabilityCritique:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// invalid values.
func ParseCapability(s string) Capability {
	c := Capability(s)
	if c.IsValid() {
		return c
	}
	return ""
}
