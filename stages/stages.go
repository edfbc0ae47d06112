// Package stages implements the content-generation collaborators invoked by
// the pipeline orchestrator: research, writer, fact-check, editor and
// critic. Each stage attaches its artifact through the work item's attach
// contract and reports its own validity; none is aware of retries or
// approvals.
package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/pressroomhq/pressroom/llm"
	"github.com/pressroomhq/pressroom/pipeline"
)

// Completer is the slice of the model client the stages need.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// verdictFromString normalizes the verdict strings models actually produce
// into the three pipeline classifications.
func verdictFromString(s string) (pipeline.Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "passed", "approve", "approved", "ok":
		return pipeline.VerdictPass, nil
	case "revise", "revision", "needs_revision", "needs-revision":
		return pipeline.VerdictRevise, nil
	case "reject", "rejected", "fail", "failed", "needs_rework", "needs-rework":
		return pipeline.VerdictReject, nil
	}
	return "", fmt.Errorf("unrecognized verdict %q", s)
}

// lowTemperature is shared by the checking stages, which should be as
// deterministic as the endpoint allows.
func lowTemperature() *float64 {
	t := 0.1
	return &t
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
