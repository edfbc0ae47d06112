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

// FactCheckStage verifies the draft's claims against the research material
// and classifies the result as pass, revise or reject.
type FactCheckStage struct {
	completer Completer
	logger    *slog.Logger
}

// NewFactCheckStage creates the fact-check stage.
func NewFactCheckStage(completer Completer, logger *slog.Logger) *FactCheckStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactCheckStage{completer: completer, logger: logger}
}

// Name returns the stage name.
func (s *FactCheckStage) Name() string { return "fact-check" }

// Process checks the draft and attaches the report.
func (s *FactCheckStage) Process(ctx context.Context, item *pipeline.Item) error {
	research := item.Research()
	draft := item.Draft()
	if research == nil || draft == nil {
		return fmt.Errorf("fact-check requires both research and a draft")
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Capability:  model.CapabilityFactCheck.String(),
		Temperature: lowTemperature(),
		Messages: []llm.Message{
			{Role: "system", Content: factCheckSystemPrompt},
			{Role: "user", Content: factCheckPrompt(research, draft)},
		},
	})
	if err != nil {
		return fmt.Errorf("fact-check completion: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return fmt.Errorf("extract fact-check JSON: %w", err)
	}

	var parsed struct {
		Verdict string           `json:"verdict"`
		Summary string           `json:"summary"`
		Issues  []pipeline.Issue `json:"issues"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("parse fact-check response: %w", err)
	}

	verdict, err := verdictFromString(parsed.Verdict)
	if err != nil {
		return fmt.Errorf("fact-check verdict: %w", err)
	}

	s.logger.Info("Fact-check complete",
		"verdict", verdict,
		"issues", len(parsed.Issues))

	return item.AttachFactCheck(&pipeline.FactCheckReport{
		Verdict: verdict,
		Issues:  parsed.Issues,
		Summary: parsed.Summary,
	})
}

// Validate reports whether the report carries a usable classification.
func (s *FactCheckStage) Validate(item *pipeline.Item) bool {
	r := item.FactCheck()
	return r != nil && r.Verdict.IsValid()
}
