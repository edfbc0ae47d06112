package stages

import (
	"fmt"
	"strings"

	"github.com/pressroomhq/pressroom/pipeline"
)

// Prompt builders for the content-generation stages. Each returns the user
// message for one model call; the system message comes from the stage.

const researchSystemPrompt = `You are a research assistant preparing background
material for a technical encyclopedia article. Be factual and specific; prefer
widely accepted definitions and cite concrete mechanisms over vague claims.
Respond with a JSON object:
{
  "summary": "two to four paragraph overview of the topic",
  "key_points": ["specific fact or concept the article must cover", ...]
}`

func researchPrompt(req pipeline.Request, notes []pipeline.SourceNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the topic: %s\n", req.Topic)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Intended audience: %s\n", req.Audience)
	}
	if len(req.Sections) > 0 {
		fmt.Fprintf(&b, "The article must cover these sections: %s\n",
			strings.Join(req.Sections, ", "))
	}
	for _, n := range notes {
		fmt.Fprintf(&b, "\nSource (%s", n.URL)
		if n.Title != "" {
			fmt.Fprintf(&b, " — %s", n.Title)
		}
		b.WriteString("):\n")
		b.WriteString(n.Excerpt)
		b.WriteString("\n")
	}
	return b.String()
}

const writerSystemPrompt = `You are a technical writer producing an
encyclopedia article in Markdown. Write clear, well-structured prose with
headings. Do not invent facts beyond the supplied research. Output only the
article body, no preamble and no code fences around the whole document.`

func writerPrompt(req pipeline.Request, research *pipeline.Research, feedback *pipeline.FactCheckReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an article titled %q.\n", req.Topic)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	}
	if req.TargetWords > 0 {
		fmt.Fprintf(&b, "Target length: about %d words.\n", req.TargetWords)
	}
	if len(req.Sections) > 0 {
		fmt.Fprintf(&b, "Required sections: %s\n", strings.Join(req.Sections, ", "))
	}

	b.WriteString("\nResearch summary:\n")
	b.WriteString(research.Summary)
	if len(research.KeyPoints) > 0 {
		b.WriteString("\n\nKey points to cover:\n")
		for _, p := range research.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	if feedback != nil && len(feedback.Issues) > 0 {
		b.WriteString("\nA previous draft failed fact-checking. Rewrite the draft addressing these issues:\n")
		for _, issue := range feedback.Issues {
			fmt.Fprintf(&b, "- Claim: %s\n  Problem: %s\n", issue.Claim, issue.Problem)
			if issue.Suggestion != "" {
				fmt.Fprintf(&b, "  Suggestion: %s\n", issue.Suggestion)
			}
		}
	}

	return b.String()
}

const factCheckSystemPrompt = `You are a fact-checker reviewing a draft
article against its research material. Identify claims that are wrong,
unsupported, or contradict the research. Respond with a JSON object:
{
  "verdict": "pass" | "revise" | "reject",
  "summary": "one-paragraph assessment",
  "issues": [
    {"claim": "the problematic claim", "problem": "what is wrong", "suggestion": "how to fix it"}
  ]
}
Use "pass" when the draft is accurate, "revise" when specific claims need
correction, and "reject" only when the draft is unsalvageable.`

func factCheckPrompt(research *pipeline.Research, draft *pipeline.Draft) string {
	var b strings.Builder
	b.WriteString("Research material:\n")
	b.WriteString(research.Summary)
	b.WriteString("\n\nDraft to check:\n")
	b.WriteString(draft.Content)
	return b.String()
}

const editorSystemPrompt = `You are a copy editor finalizing an encyclopedia
article. Improve flow, fix grammar, ensure consistent heading structure, and
add [[WikiLinks]] to the related articles you are given where the text
naturally mentions them. Then score the result between 0.0 and 1.0 for
overall quality. Respond with a JSON object:
{
  "article": "the full edited article in Markdown",
  "score": 0.0,
  "summary": "one-sentence description of the article"
}`

func editorPrompt(req pipeline.Request, draft *pipeline.Draft, references []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Edit the following article on %q.\n", req.Topic)
	if len(references) > 0 {
		fmt.Fprintf(&b, "Existing related articles available for linking: %s\n",
			strings.Join(references, ", "))
	}
	b.WriteString("\nArticle:\n")
	b.WriteString(draft.Content)
	return b.String()
}

const criticSystemPrompt = `You are a reviewer scoring a finished
encyclopedia article. Score each dimension between 0.0 and 1.0 and classify
the article. Respond with a JSON object:
{
  "verdict": "pass" | "revise" | "reject",
  "scores": {"accuracy": 0.0, "clarity": 0.0, "completeness": 0.0, "structure": 0.0},
  "notes": ["specific observation", ...]
}
Use "revise" when targeted editing would fix the problems and "reject" only
when the article needs a full rework.`

func criticPrompt(req pipeline.Request, article *pipeline.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review this article on %q", req.Topic)
	if req.Audience != "" {
		fmt.Fprintf(&b, " written for %s", req.Audience)
	}
	b.WriteString(".\n\n")
	b.WriteString(article.Content)
	return b.String()
}
