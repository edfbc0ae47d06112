package model

import "testing"

func testRegistry() *Registry {
	return NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityWriting: {
				Preferred: []string{"big-model"},
				Fallback:  []string{"small-model"},
			},
			CapabilityFactCheck: {
				Preferred: []string{"small-model"},
			},
		},
		map[string]*EndpointConfig{
			"big-model":   {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
			"small-model": {Provider: "ollama", URL: "http://localhost:11434/v1", Model: "llama3.2"},
		},
	)
}

func TestResolve(t *testing.T) {
	r := testRegistry()

	if got := r.Resolve(CapabilityWriting); got != "big-model" {
		t.Errorf("Resolve(writing) = %q, want big-model", got)
	}

	// Unconfigured capabilities fall back to the default model.
	r.SetDefault("small-model")
	if got := r.Resolve(CapabilityCritique); got != "small-model" {
		t.Errorf("Resolve(critique) = %q, want default small-model", got)
	}
}

func TestFallbackChain(t *testing.T) {
	r := testRegistry()

	chain := r.FallbackChain(CapabilityWriting)
	want := []string{"big-model", "small-model"}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("chain[%d] = %q, want %q", i, chain[i], want[i])
		}
	}

	// Unknown capability yields just the default.
	r.SetDefault("small-model")
	chain = r.FallbackChain(CapabilityEditing)
	if len(chain) != 1 || chain[0] != "small-model" {
		t.Errorf("chain for unconfigured capability = %v", chain)
	}
}

func TestEndpoint(t *testing.T) {
	r := testRegistry()

	ep := r.Endpoint("big-model")
	if ep == nil || ep.Provider != "anthropic" {
		t.Errorf("Endpoint(big-model) = %+v", ep)
	}
	if r.Endpoint("missing") != nil {
		t.Error("unknown endpoint should be nil")
	}
}

func TestSettersOnEmptyRegistry(t *testing.T) {
	r := NewRegistry(nil, nil)

	r.SetCapability(CapabilityResearch, &CapabilityConfig{Preferred: []string{"m"}})
	r.SetEndpoint("m", &EndpointConfig{Provider: "ollama", Model: "llama3.2"})

	if got := r.Resolve(CapabilityResearch); got != "m" {
		t.Errorf("Resolve after SetCapability = %q", got)
	}
	if r.Endpoint("m") == nil {
		t.Error("Endpoint after SetEndpoint should exist")
	}
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	// Every stage capability resolves to a configured endpoint.
	for _, c := range []Capability{CapabilityResearch, CapabilityWriting,
		CapabilityFactCheck, CapabilityEditing, CapabilityCritique} {
		for _, name := range r.FallbackChain(c) {
			if r.Endpoint(name) == nil {
				t.Errorf("capability %s references unconfigured endpoint %q", c, name)
			}
		}
	}
}

func TestCapabilityParsing(t *testing.T) {
	if ParseCapability("writing") != CapabilityWriting {
		t.Error("ParseCapability(writing) failed")
	}
	if ParseCapability("nope") != "" {
		t.Error("ParseCapability should reject unknown values")
	}

	if CapabilityForStage("fact-check") != CapabilityFactCheck {
		t.Error("CapabilityForStage(fact-check) failed")
	}
	if CapabilityForStage("unknown-stage") != CapabilityWriting {
		t.Error("unknown stages default to writing")
	}
}
