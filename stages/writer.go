package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressroomhq/pressroom/llm"
	"github.com/pressroomhq/pressroom/model"
	"github.com/pressroomhq/pressroom/pipeline"
)

// WriterStage drafts the article from the research findings. On a revision
// cycle the previous fact-check report is folded into the prompt so the
// rewrite addresses the flagged claims.
type WriterStage struct {
	completer Completer
	logger    *slog.Logger
}

// NewWriterStage creates the writer stage.
func NewWriterStage(completer Completer, logger *slog.Logger) *WriterStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriterStage{completer: completer, logger: logger}
}

// Name returns the stage name.
func (s *WriterStage) Name() string { return "writer" }

// Process drafts the article and attaches it.
func (s *WriterStage) Process(ctx context.Context, item *pipeline.Item) error {
	research := item.Research()
	if research == nil {
		return fmt.Errorf("no research findings to write from")
	}

	// Present on revision cycles only; the first draft has no feedback.
	feedback := item.FactCheck()
	if feedback != nil {
		s.logger.Info("Rewriting draft with fact-check feedback",
			"issues", len(feedback.Issues),
			"revision", item.Revisions())
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Capability: model.CapabilityWriting.String(),
		Messages: []llm.Message{
			{Role: "system", Content: writerSystemPrompt},
			{Role: "user", Content: writerPrompt(item.Request(), research, feedback)},
		},
	})
	if err != nil {
		return fmt.Errorf("draft completion: %w", err)
	}

	content := strings.TrimSpace(resp.Content)

	return item.AttachDraft(&pipeline.Draft{
		Content:   content,
		WordCount: wordCount(content),
	})
}

// Validate reports whether the draft has substance worth checking.
func (s *WriterStage) Validate(item *pipeline.Item) bool {
	d := item.Draft()
	return d != nil && d.WordCount >= 50
}
