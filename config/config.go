// Package config provides configuration loading and management for Pressroom.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Pressroom configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Approval ApprovalConfig `yaml:"approval"`
	Model    ModelConfig    `yaml:"model"`
	Output   OutputConfig   `yaml:"output"`
	Research ResearchConfig `yaml:"research"`
}

// PipelineConfig controls the revision loops and quality bar.
type PipelineConfig struct {
	// MaxRevisionCycles bounds fact-check and critique revision loops.
	MaxRevisionCycles int `yaml:"max_revision_cycles"`
	// MinEditorScore is the minimum acceptable quality score (0.0-1.0).
	MinEditorScore float64 `yaml:"min_editor_score"`
	// StageTimeout is the maximum time for a single stage invocation.
	StageTimeout time.Duration `yaml:"stage_timeout"`
}

// ApprovalConfig controls the checkpoint gates.
type ApprovalConfig struct {
	// Mode selects the decision-maker: "auto", "console" or "nats".
	Mode string `yaml:"mode"`
	// AfterResearch requires approval after the research phase.
	AfterResearch bool `yaml:"after_research"`
	// AfterDraft requires approval after the drafting phase.
	AfterDraft bool `yaml:"after_draft"`
	// AfterFactCheck requires approval after the fact-check phase.
	AfterFactCheck bool `yaml:"after_fact_check"`
	// BeforePublish requires approval before publishing (default: true).
	BeforePublish bool `yaml:"before_publish"`
	// OnRequestChanges selects what a request-changes decision does:
	// "fail" stops the run, "revise" loops back where a revision edge exists.
	OnRequestChanges string `yaml:"on_request_changes"`
	// NATS configures the remote reviewer transport for mode "nats".
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS connection for remote approvals.
type NATSConfig struct {
	// URL is the NATS server URL.
	URL string `yaml:"url"`
	// Subject is the approval request subject.
	Subject string `yaml:"subject"`
	// Timeout is the maximum wait for a reviewer reply.
	Timeout time.Duration `yaml:"timeout"`
}

// ModelConfig configures capability-to-model resolution.
type ModelConfig struct {
	// Default is the model used for unconfigured capabilities.
	Default string `yaml:"default"`
	// Endpoints maps model names to their provider endpoints.
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
	// Capabilities maps capability names to model preference chains.
	Capabilities map[string]CapabilityConfig `yaml:"capabilities"`
}

// EndpointConfig defines one model endpoint.
type EndpointConfig struct {
	// Provider is the model provider (anthropic, ollama, openai).
	Provider string `yaml:"provider"`
	// URL is the API endpoint URL (empty uses the provider default).
	URL string `yaml:"url"`
	// Model is the model identifier sent to the provider.
	Model string `yaml:"model"`
	// MaxTokens is the context window size.
	MaxTokens int `yaml:"max_tokens"`
}

// CapabilityConfig defines model preferences for one capability.
type CapabilityConfig struct {
	// Preferred lists models in order of preference.
	Preferred []string `yaml:"preferred"`
	// Fallback lists backup models if all preferred fail.
	Fallback []string `yaml:"fallback"`
}

// OutputConfig configures article persistence.
type OutputConfig struct {
	// Dir is the directory published articles are written to.
	Dir string `yaml:"dir"`
}

// ResearchConfig configures source fetching for the research stage.
type ResearchConfig struct {
	// FetchSources enables downloading the request's source URLs.
	FetchSources bool `yaml:"fetch_sources"`
	// MaxExcerptBytes caps the readable excerpt kept per source.
	MaxExcerptBytes int `yaml:"max_excerpt_bytes"`
	// FetchTimeout is the per-source download timeout.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			MaxRevisionCycles: 3,
			MinEditorScore:    0.7,
			StageTimeout:      5 * time.Minute,
		},
		Approval: ApprovalConfig{
			Mode:             "auto",
			BeforePublish:    true,
			OnRequestChanges: "fail",
			NATS: NATSConfig{
				URL:     "nats://localhost:4222",
				Subject: "pressroom.approval.request",
				Timeout: 10 * time.Minute,
			},
		},
		Model: ModelConfig{
			Default: "", // Empty uses the built-in registry defaults
		},
		Output: OutputConfig{
			Dir: "articles",
		},
		Research: ResearchConfig{
			FetchSources:    true,
			MaxExcerptBytes: 8000,
			FetchTimeout:    30 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Pipeline.MaxRevisionCycles < 0 {
		return fmt.Errorf("pipeline.max_revision_cycles must not be negative")
	}
	if c.Pipeline.MinEditorScore < 0 || c.Pipeline.MinEditorScore > 1 {
		return fmt.Errorf("pipeline.min_editor_score must be between 0 and 1")
	}

	switch c.Approval.Mode {
	case "auto", "console", "nats":
	default:
		return fmt.Errorf("approval.mode must be auto, console or nats, got %q", c.Approval.Mode)
	}

	switch c.Approval.OnRequestChanges {
	case "fail", "revise":
	default:
		return fmt.Errorf("approval.on_request_changes must be fail or revise, got %q", c.Approval.OnRequestChanges)
	}

	if c.Approval.Mode == "nats" && c.Approval.NATS.URL == "" {
		return fmt.Errorf("approval.nats.url is required for approval mode nats")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	for name, ep := range c.Model.Endpoints {
		if ep.Provider == "" {
			return fmt.Errorf("model.endpoints.%s.provider is required", name)
		}
		if ep.Model == "" {
			return fmt.Errorf("model.endpoints.%s.model is required", name)
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Checkpoint booleans are taken from other verbatim, so a
// project config can switch the before-publish gate off.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Pipeline
	if other.Pipeline.MaxRevisionCycles != 0 {
		c.Pipeline.MaxRevisionCycles = other.Pipeline.MaxRevisionCycles
	}
	if other.Pipeline.MinEditorScore != 0 {
		c.Pipeline.MinEditorScore = other.Pipeline.MinEditorScore
	}
	if other.Pipeline.StageTimeout != 0 {
		c.Pipeline.StageTimeout = other.Pipeline.StageTimeout
	}

	// Approval
	if other.Approval.Mode != "" {
		c.Approval.Mode = other.Approval.Mode
	}
	c.Approval.AfterResearch = other.Approval.AfterResearch
	c.Approval.AfterDraft = other.Approval.AfterDraft
	c.Approval.AfterFactCheck = other.Approval.AfterFactCheck
	c.Approval.BeforePublish = other.Approval.BeforePublish
	if other.Approval.OnRequestChanges != "" {
		c.Approval.OnRequestChanges = other.Approval.OnRequestChanges
	}
	if other.Approval.NATS.URL != "" {
		c.Approval.NATS.URL = other.Approval.NATS.URL
	}
	if other.Approval.NATS.Subject != "" {
		c.Approval.NATS.Subject = other.Approval.NATS.Subject
	}
	if other.Approval.NATS.Timeout != 0 {
		c.Approval.NATS.Timeout = other.Approval.NATS.Timeout
	}

	// Model
	if other.Model.Default != "" {
		c.Model.Default = other.Model.Default
	}
	if len(other.Model.Endpoints) > 0 {
		c.Model.Endpoints = other.Model.Endpoints
	}
	if len(other.Model.Capabilities) > 0 {
		c.Model.Capabilities = other.Model.Capabilities
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}

	// Research
	c.Research.FetchSources = other.Research.FetchSources
	if other.Research.MaxExcerptBytes != 0 {
		c.Research.MaxExcerptBytes = other.Research.MaxExcerptBytes
	}
	if other.Research.FetchTimeout != 0 {
		c.Research.FetchTimeout = other.Research.FetchTimeout
	}
}
