package model

import (
	"testing"
	"time"
)

func TestEndpointHealthCircuitBreaker(t *testing.T) {
	r := testRegistry()
	r.SetHealthConfig(HealthConfig{FailureThreshold: 3, RecoveryTimeout: time.Hour})

	if !r.IsEndpointAvailable("big-model") {
		t.Fatal("fresh endpoint should be available")
	}

	r.MarkEndpointFailure("big-model")
	r.MarkEndpointFailure("big-model")
	if !r.IsEndpointAvailable("big-model") {
		t.Error("endpoint should stay available below the failure threshold")
	}

	r.MarkEndpointFailure("big-model")
	if r.IsEndpointAvailable("big-model") {
		t.Error("circuit should open at the failure threshold")
	}

	health := r.GetEndpointHealth("big-model")
	if health == nil || !health.CircuitOpen || health.FailureCount != 3 {
		t.Errorf("unexpected health: %+v", health)
	}

	// Success resets the circuit.
	r.MarkEndpointSuccess("big-model")
	if !r.IsEndpointAvailable("big-model") {
		t.Error("success should close the circuit")
	}
	health = r.GetEndpointHealth("big-model")
	if health.FailureCount != 0 || health.CircuitOpen {
		t.Errorf("unexpected health after success: %+v", health)
	}
}

func TestEndpointHealthHalfOpen(t *testing.T) {
	r := testRegistry()
	r.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Millisecond})

	r.MarkEndpointFailure("big-model")
	if r.IsEndpointAvailable("big-model") {
		t.Fatal("circuit should be open")
	}

	// After the recovery timeout a test request is allowed.
	time.Sleep(5 * time.Millisecond)
	if !r.IsEndpointAvailable("big-model") {
		t.Error("endpoint should be half-open after the recovery timeout")
	}
}

func TestAvailableFallbackChain(t *testing.T) {
	r := testRegistry()
	r.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	chain := r.AvailableFallbackChain(CapabilityWriting)
	if len(chain) != 2 {
		t.Fatalf("expected full chain, got %v", chain)
	}

	r.MarkEndpointFailure("big-model")
	chain = r.AvailableFallbackChain(CapabilityWriting)
	if len(chain) != 1 || chain[0] != "small-model" {
		t.Errorf("expected open circuit to be filtered, got %v", chain)
	}

	// With every endpoint down the full chain comes back.
	r.MarkEndpointFailure("small-model")
	chain = r.AvailableFallbackChain(CapabilityWriting)
	if len(chain) != 2 {
		t.Errorf("expected full chain when everything is down, got %v", chain)
	}
}

func TestHealthTrackingLazyInit(t *testing.T) {
	r := testRegistry()

	// Without any recorded outcome everything is available and unknown.
	if !r.IsEndpointAvailable("big-model") {
		t.Error("endpoint should be available with no health state")
	}
	if r.GetEndpointHealth("big-model") != nil {
		t.Error("expected nil health before any outcome is recorded")
	}
}
