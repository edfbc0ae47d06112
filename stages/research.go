package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressroomhq/pressroom/llm"
	"github.com/pressroomhq/pressroom/model"
	"github.com/pressroomhq/pressroom/pipeline"
)

// ResearchStage gathers background material for the topic. When the request
// lists source URLs and a fetcher is configured, readable excerpts are pulled
// in and supplied to the model alongside the topic.
type ResearchStage struct {
	completer Completer
	fetcher   *SourceFetcher
	logger    *slog.Logger
}

// ResearchOption configures a ResearchStage.
type ResearchOption func(*ResearchStage)

// WithSourceFetcher enables source URL fetching for research.
func WithSourceFetcher(f *SourceFetcher) ResearchOption {
	return func(s *ResearchStage) {
		s.fetcher = f
	}
}

// WithResearchLogger sets the logger.
func WithResearchLogger(logger *slog.Logger) ResearchOption {
	return func(s *ResearchStage) {
		s.logger = logger
	}
}

// NewResearchStage creates the research stage.
func NewResearchStage(completer Completer, opts ...ResearchOption) *ResearchStage {
	s := &ResearchStage{
		completer: completer,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the stage name.
func (s *ResearchStage) Name() string { return "research" }

// Process researches the topic and attaches the findings.
func (s *ResearchStage) Process(ctx context.Context, item *pipeline.Item) error {
	req := item.Request()

	var notes []pipeline.SourceNote
	if s.fetcher != nil && len(req.Sources) > 0 {
		notes = s.fetcher.Fetch(ctx, req.Sources)
		s.logger.Info("Fetched source material",
			"requested", len(req.Sources),
			"readable", len(notes))
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Capability: model.CapabilityResearch.String(),
		Messages: []llm.Message{
			{Role: "system", Content: researchSystemPrompt},
			{Role: "user", Content: researchPrompt(req, notes)},
		},
	})
	if err != nil {
		return fmt.Errorf("research completion: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return fmt.Errorf("extract research JSON: %w", err)
	}

	var parsed struct {
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"key_points"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("parse research response: %w", err)
	}

	return item.AttachResearch(&pipeline.Research{
		Summary:   parsed.Summary,
		KeyPoints: parsed.KeyPoints,
		Sources:   notes,
	})
}

// Validate reports whether the attached research is usable downstream.
func (s *ResearchStage) Validate(item *pipeline.Item) bool {
	r := item.Research()
	return r != nil && strings.TrimSpace(r.Summary) != ""
}
