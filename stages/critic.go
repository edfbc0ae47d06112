package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pressroomhq/pressroom/llm"
	"github.com/pressroomhq/pressroom/model"
	"github.com/pressroomhq/pressroom/pipeline"
)

// CriticStage reviews the finished article, scoring accuracy, clarity,
// completeness and structure, and classifies it as pass, revise or reject.
type CriticStage struct {
	completer Completer
	logger    *slog.Logger
}

// NewCriticStage creates the critic stage.
func NewCriticStage(completer Completer, logger *slog.Logger) *CriticStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &CriticStage{completer: completer, logger: logger}
}

// Name returns the stage name.
func (s *CriticStage) Name() string { return "critic" }

// Process reviews the article and attaches the critique.
func (s *CriticStage) Process(ctx context.Context, item *pipeline.Item) error {
	article := item.Article()
	if article == nil {
		return fmt.Errorf("no article to review")
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Capability:  model.CapabilityCritique.String(),
		Temperature: lowTemperature(),
		Messages: []llm.Message{
			{Role: "system", Content: criticSystemPrompt},
			{Role: "user", Content: criticPrompt(item.Request(), article)},
		},
	})
	if err != nil {
		return fmt.Errorf("critique completion: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return fmt.Errorf("extract critique JSON: %w", err)
	}

	var parsed struct {
		Verdict string             `json:"verdict"`
		Scores  map[string]float64 `json:"scores"`
		Notes   []string           `json:"notes"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("parse critique response: %w", err)
	}

	verdict, err := verdictFromString(parsed.Verdict)
	if err != nil {
		return fmt.Errorf("critique verdict: %w", err)
	}

	for dim, score := range parsed.Scores {
		parsed.Scores[dim] = clampScore(score)
	}

	s.logger.Info("Critique complete",
		"verdict", verdict,
		"dimensions", len(parsed.Scores))

	return item.AttachCritique(&pipeline.CritiqueReport{
		Verdict: verdict,
		Scores:  parsed.Scores,
		Notes:   parsed.Notes,
	})
}

// Validate reports whether the critique carries a usable classification.
func (s *CriticStage) Validate(item *pipeline.Item) bool {
	r := item.Critique()
	return r != nil && r.Verdict.IsValid()
}
