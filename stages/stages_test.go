package stages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/pressroom/llm"
	"github.com/pressroomhq/pressroom/pipeline"
)

// fakeCompleter returns scripted responses in order and records the requests
// it received.
type fakeCompleter struct {
	responses []string
	err       error
	requests  []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	content := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &llm.Response{Content: content, Model: "test-model"}, nil
}

func (f *fakeCompleter) lastPrompt() string {
	req := f.requests[len(f.requests)-1]
	return req.Messages[len(req.Messages)-1].Content
}

// itemInState creates a work item and walks it forward to the given state.
func itemInState(t *testing.T, req pipeline.Request, target pipeline.DocState) *pipeline.Item {
	t.Helper()

	item, err := pipeline.NewItem(req)
	require.NoError(t, err)

	for item.State() != target {
		next := item.State().Next()
		require.NotEmpty(t, next, "cannot walk from %s to %s", item.State(), target)
		require.NoError(t, item.TransitionTo(next))
	}
	return item
}

func TestVerdictFromString(t *testing.T) {
	tests := []struct {
		in   string
		want pipeline.Verdict
	}{
		{"pass", pipeline.VerdictPass},
		{"PASS", pipeline.VerdictPass},
		{" approved ", pipeline.VerdictPass},
		{"revise", pipeline.VerdictRevise},
		{"needs_revision", pipeline.VerdictRevise},
		{"reject", pipeline.VerdictReject},
		{"failed", pipeline.VerdictReject},
	}

	for _, tt := range tests {
		got, err := verdictFromString(tt.in)
		require.NoError(t, err, "verdictFromString(%q)", tt.in)
		assert.Equal(t, tt.want, got, "verdictFromString(%q)", tt.in)
	}

	_, err := verdictFromString("maybe")
	assert.Error(t, err)
}

func TestResearchStage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		"```json\n{\"summary\": \"Raft is a consensus algorithm.\", \"key_points\": [\"leader election\", \"log replication\"]}\n```",
	}}
	stage := NewResearchStage(completer)

	item := itemInState(t, pipeline.Request{
		Topic:    "raft consensus",
		Audience: "engineers",
		Sections: []string{"Overview"},
	}, pipeline.StateResearching)

	require.NoError(t, stage.Process(context.Background(), item))
	require.True(t, stage.Validate(item))

	research := item.Research()
	require.NotNil(t, research)
	assert.Equal(t, "Raft is a consensus algorithm.", research.Summary)
	assert.Len(t, research.KeyPoints, 2)

	prompt := completer.lastPrompt()
	assert.Contains(t, prompt, "raft consensus")
	assert.Contains(t, prompt, "engineers")
	assert.Contains(t, prompt, "Overview")
}

func TestResearchStageBadResponse(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"I could not find anything."}}
	stage := NewResearchStage(completer)
	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateResearching)

	err := stage.Process(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrNoJSON)
}

func TestWriterStage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		strings.Repeat("word ", 200),
	}}
	stage := NewWriterStage(completer, nil)

	item := itemInState(t, pipeline.Request{Topic: "t", TargetWords: 800}, pipeline.StateResearching)
	require.NoError(t, item.AttachResearch(&pipeline.Research{
		Summary:   "the research",
		KeyPoints: []string{"point one"},
	}))
	require.NoError(t, item.TransitionTo(pipeline.StateDrafting))

	require.NoError(t, stage.Process(context.Background(), item))
	require.True(t, stage.Validate(item))

	draft := item.Draft()
	require.NotNil(t, draft)
	assert.Equal(t, 200, draft.WordCount)

	prompt := completer.lastPrompt()
	assert.Contains(t, prompt, "the research")
	assert.Contains(t, prompt, "point one")
	assert.Contains(t, prompt, "800")
	assert.NotContains(t, prompt, "failed fact-checking")
}

func TestWriterStageIncludesFeedbackOnRevision(t *testing.T) {
	completer := &fakeCompleter{responses: []string{strings.Repeat("word ", 100)}}
	stage := NewWriterStage(completer, nil)

	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateResearching)
	require.NoError(t, item.AttachResearch(&pipeline.Research{Summary: "s"}))
	require.NoError(t, item.TransitionTo(pipeline.StateDrafting))
	require.NoError(t, item.AttachDraft(&pipeline.Draft{Content: "old", WordCount: 1}))
	require.NoError(t, item.TransitionTo(pipeline.StateFactChecking))
	require.NoError(t, item.AttachFactCheck(&pipeline.FactCheckReport{
		Verdict: pipeline.VerdictRevise,
		Issues: []pipeline.Issue{
			{Claim: "the moon is cheese", Problem: "it is not", Suggestion: "remove the claim"},
		},
	}))
	require.NoError(t, item.RevertForRevision())

	require.NoError(t, stage.Process(context.Background(), item))

	prompt := completer.lastPrompt()
	assert.Contains(t, prompt, "failed fact-checking")
	assert.Contains(t, prompt, "the moon is cheese")
	assert.Contains(t, prompt, "remove the claim")
}

func TestWriterStageRequiresResearch(t *testing.T) {
	stage := NewWriterStage(&fakeCompleter{responses: []string{"x"}}, nil)
	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateResearching)

	err := stage.Process(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no research")
}

func TestWriterValidateRejectsThinDrafts(t *testing.T) {
	stage := NewWriterStage(nil, nil)
	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateDrafting)
	require.NoError(t, item.AttachDraft(&pipeline.Draft{Content: "too short", WordCount: 2}))

	assert.False(t, stage.Validate(item))
}

func TestFactCheckStage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"verdict": "revise", "summary": "two claims need work", "issues": [
			{"claim": "c1", "problem": "p1", "suggestion": "s1"},
			{"claim": "c2", "problem": "p2"}
		]}`,
	}}
	stage := NewFactCheckStage(completer, nil)

	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateResearching)
	require.NoError(t, item.AttachResearch(&pipeline.Research{Summary: "s"}))
	require.NoError(t, item.TransitionTo(pipeline.StateDrafting))
	require.NoError(t, item.AttachDraft(&pipeline.Draft{Content: "draft body", WordCount: 2}))
	require.NoError(t, item.TransitionTo(pipeline.StateFactChecking))

	require.NoError(t, stage.Process(context.Background(), item))
	require.True(t, stage.Validate(item))

	report := item.FactCheck()
	require.NotNil(t, report)
	assert.Equal(t, pipeline.VerdictRevise, report.Verdict)
	assert.Len(t, report.Issues, 2)

	// The checking stages pin a low temperature.
	req := completer.requests[0]
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.1, *req.Temperature, 0.001)
}

func TestEditorStage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"article": "# Final\n\nBody with [[Paxos]] link.", "score": 0.85, "summary": "an article"}`,
	}}
	stage := NewEditorStage(completer, nil)
	stage.SetReferenceContext([]string{"Paxos", "TwoPhaseCommit"})

	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateDrafting)
	require.NoError(t, item.AttachDraft(&pipeline.Draft{Content: "draft", WordCount: 1}))
	require.NoError(t, item.TransitionTo(pipeline.StateFactChecking))
	require.NoError(t, item.TransitionTo(pipeline.StateEditing))

	require.NoError(t, stage.Process(context.Background(), item))
	require.True(t, stage.Validate(item))

	article := item.Article()
	require.NotNil(t, article)
	assert.Equal(t, 0.85, article.Score)
	assert.Contains(t, article.Content, "[[Paxos]]")

	assert.Contains(t, completer.lastPrompt(), "Paxos, TwoPhaseCommit")
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.7, 0.7},
		{0, 0},
		{1, 1},
		{-0.5, 0},
		{8.5, 0.85}, // 0-10 scale
		{85, 0.85},  // percentage scale
		{150, 1},    // nonsense clamps high
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, clampScore(tt.in), 0.001, "clampScore(%v)", tt.in)
	}
}

func TestCriticStage(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"verdict": "pass", "scores": {"accuracy": 0.9, "clarity": 0.8, "completeness": 0.85, "structure": 0.9}, "notes": ["solid"]}`,
	}}
	stage := NewCriticStage(completer, nil)

	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateEditing)
	require.NoError(t, item.AttachArticle(&pipeline.Article{Content: "final", Score: 0.9}))
	require.NoError(t, item.TransitionTo(pipeline.StateCritiquing))

	require.NoError(t, stage.Process(context.Background(), item))
	require.True(t, stage.Validate(item))

	report := item.Critique()
	require.NotNil(t, report)
	assert.Equal(t, pipeline.VerdictPass, report.Verdict)
	assert.Len(t, report.Scores, 4)
	assert.Equal(t, 0.9, report.Scores["accuracy"])
}

func TestStageCompleterError(t *testing.T) {
	wantErr := errors.New("all endpoints failed")
	completer := &fakeCompleter{err: wantErr}

	item := itemInState(t, pipeline.Request{Topic: "t"}, pipeline.StateResearching)

	err := NewResearchStage(completer).Process(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "research", NewResearchStage(nil).Name())
	assert.Equal(t, "writer", NewWriterStage(nil, nil).Name())
	assert.Equal(t, "fact-check", NewFactCheckStage(nil, nil).Name())
	assert.Equal(t, "editor", NewEditorStage(nil, nil).Name())
	assert.Equal(t, "critic", NewCriticStage(nil, nil).Name())
}
