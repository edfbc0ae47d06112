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

// EditorStage polishes the draft into the final article, cross-linking it
// against existing articles, and scores the result. The orchestrator supplies
// the reference list before the stage runs.
type EditorStage struct {
	completer  Completer
	references []string
	logger     *slog.Logger
}

// NewEditorStage creates the editor stage.
func NewEditorStage(completer Completer, logger *slog.Logger) *EditorStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditorStage{completer: completer, logger: logger}
}

// Name returns the stage name.
func (s *EditorStage) Name() string { return "editor" }

// SetReferenceContext supplies the names of existing articles available for
// cross-linking.
func (s *EditorStage) SetReferenceContext(refs []string) {
	s.references = refs
}

// Process edits the draft and attaches the final article.
func (s *EditorStage) Process(ctx context.Context, item *pipeline.Item) error {
	draft := item.Draft()
	if draft == nil {
		return fmt.Errorf("no draft to edit")
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Capability: model.CapabilityEditing.String(),
		Messages: []llm.Message{
			{Role: "system", Content: editorSystemPrompt},
			{Role: "user", Content: editorPrompt(item.Request(), draft, s.references)},
		},
	})
	if err != nil {
		return fmt.Errorf("edit completion: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		return fmt.Errorf("extract editor JSON: %w", err)
	}

	var parsed struct {
		Article string  `json:"article"`
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("parse editor response: %w", err)
	}

	s.logger.Info("Editing complete",
		"score", parsed.Score,
		"references", len(s.references))

	return item.AttachArticle(&pipeline.Article{
		Content: strings.TrimSpace(parsed.Article),
		Score:   clampScore(parsed.Score),
		Summary: parsed.Summary,
	})
}

// Validate reports whether the edited article is non-empty.
func (s *EditorStage) Validate(item *pipeline.Item) bool {
	a := item.Article()
	return a != nil && strings.TrimSpace(a.Content) != ""
}

// clampScore forces a model-reported score into [0, 1]. Models occasionally
// answer on a 0-10 or percentage scale despite the instructions.
func clampScore(s float64) float64 {
	if s > 1 && s <= 10 {
		s = s / 10
	} else if s > 10 && s <= 100 {
		s = s / 100
	}

	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
