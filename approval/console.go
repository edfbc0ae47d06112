package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pressroomhq/pressroom/pipeline"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
)

// ConsoleApprover prompts a human on the terminal for each checkpoint
// decision: approve, reject (with a reason) or request changes (with
// feedback).
type ConsoleApprover struct {
	// Actor is the name recorded on decisions. Defaults to "console".
	Actor string

	in  io.Reader
	out io.Writer
}

// ConsoleOption configures a ConsoleApprover.
type ConsoleOption func(*ConsoleApprover)

// WithConsoleIO overrides the input and output streams, primarily for tests.
func WithConsoleIO(in io.Reader, out io.Writer) ConsoleOption {
	return func(c *ConsoleApprover) {
		c.in = in
		c.out = out
	}
}

// NewConsoleApprover creates an interactive approver on stdin/stdout.
func NewConsoleApprover(opts ...ConsoleOption) *ConsoleApprover {
	c := &ConsoleApprover{
		Actor: "console",
		in:    os.Stdin,
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decide prompts for a decision, re-asking on unrecognized input.
func (c *ConsoleApprover) Decide(ctx context.Context, req pipeline.ApprovalRequest) (pipeline.Decision, error) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, headerStyle.Render(fmt.Sprintf("Checkpoint: %s", req.Checkpoint)))
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("Article:"), req.Name)
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("Topic:"), req.Topic)
	if req.Revisions > 0 {
		fmt.Fprintf(c.out, "%s %d\n", labelStyle.Render("Revisions:"), req.Revisions)
	}
	if req.Summary != "" {
		fmt.Fprintln(c.out, summaryStyle.Render(req.Summary))
	}

	reader := bufio.NewReader(c.in)

	for {
		if err := ctx.Err(); err != nil {
			return pipeline.Decision{}, err
		}

		fmt.Fprint(c.out, promptStyle.Render("[a]pprove / [r]eject / [c]hanges: "))

		line, err := reader.ReadString('\n')
		if err != nil {
			return pipeline.Decision{}, fmt.Errorf("read decision: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve", "y", "yes":
			return pipeline.Decision{
				Kind:      pipeline.DecisionApproved,
				Actor:     c.Actor,
				DecidedAt: time.Now(),
			}, nil

		case "r", "reject", "n", "no":
			reason, err := c.readLine(reader, "Reason: ")
			if err != nil {
				return pipeline.Decision{}, err
			}
			return pipeline.Decision{
				Kind:      pipeline.DecisionRejected,
				Actor:     c.Actor,
				Reason:    reason,
				DecidedAt: time.Now(),
			}, nil

		case "c", "changes":
			feedback, err := c.readLine(reader, "Feedback: ")
			if err != nil {
				return pipeline.Decision{}, err
			}
			return pipeline.Decision{
				Kind:      pipeline.DecisionChangesRequested,
				Actor:     c.Actor,
				Feedback:  feedback,
				DecidedAt: time.Now(),
			}, nil
		}

		fmt.Fprintln(c.out, "Unrecognized choice.")
	}
}

func (c *ConsoleApprover) readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(c.out, promptStyle.Render(prompt))
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
