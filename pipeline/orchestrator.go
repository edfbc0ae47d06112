package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressroomhq/pressroom/metrics"
)

// Stage is a content-generation collaborator. Process mutates the item by
// attaching its artifact through the attach contract; Validate reflects the
// stage's own judgement of minimal completeness. Stages must not hold a
// reference to the item beyond the call.
type Stage interface {
	Name() string
	Process(ctx context.Context, item *Item) error
	Validate(item *Item) bool
}

// ReferenceAware is implemented by stages that accept a list of sibling
// article names for cross-linking before they run.
type ReferenceAware interface {
	SetReferenceContext(names []string)
}

// Store persists finished articles and, best-effort, partial artifacts of
// failed runs.
type Store interface {
	Write(ctx context.Context, item *Item) (string, error)
	WriteDebugSnapshot(ctx context.Context, item *Item, state DocState, message string) (string, error)
	ListExisting() ([]string, error)
}

// Stages bundles the five collaborators invoked by the orchestrator.
type Stages struct {
	Research  Stage
	Writer    Stage
	FactCheck Stage
	Editor    Stage
	Critic    Stage
}

// ChangesPolicy selects how an approval "request changes" decision is
// handled. The checkpoint helper reports it as a non-fatal false; whether
// that stops the run or loops back for rework is an explicit policy choice.
type ChangesPolicy string

const (
	// ChangesFail stops the run with a failure at the checkpoint's state.
	ChangesFail ChangesPolicy = "fail"
	// ChangesRevise consumes a revision cycle and loops back, where the
	// checkpoint follows a revisable phase. Elsewhere it behaves as fail.
	ChangesRevise ChangesPolicy = "revise"
)

// Config holds the orchestrator's run parameters. Read at construction,
// immutable for the run, and safe to share across runs.
type Config struct {
	// MaxRevisionCycles bounds the revision loops. Once the item's revision
	// counter reaches this value, a "revise" verdict degrades instead of
	// looping.
	MaxRevisionCycles int

	// MinEditorScore is the quality floor for the editor's article score.
	MinEditorScore float64

	// OnRequestChanges selects the approval request-changes policy.
	OnRequestChanges ChangesPolicy

	// StageTimeout bounds a single stage invocation. 0 disables the bound.
	StageTimeout time.Duration
}

// DefaultConfig returns the default run parameters.
func DefaultConfig() Config {
	return Config{
		MaxRevisionCycles: 3,
		MinEditorScore:    0.7,
		OnRequestChanges:  ChangesFail,
	}
}

// Orchestrator drives one work item from created to a final outcome. It owns
// the item for the duration of the run; stage calls are synchronous and
// blocking.
type Orchestrator struct {
	stages Stages
	gate   *Gate
	store  Store
	config Config
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an orchestrator with the given collaborators.
func New(stages Stages, gate *Gate, store Store, config Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages: stages,
		gate:   gate,
		store:  store,
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one production run for the given request and returns its
// outcome. All failures are caught here and converted to a failure outcome;
// none propagate to the caller.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Outcome {
	start := time.Now()
	metrics.RunsStarted.Inc()

	item, err := NewItem(req)
	if err != nil {
		metrics.RunsCompleted.WithLabelValues("failure").Inc()
		return failureOutcome(nil, StateCreated, err.Error(), "", time.Since(start))
	}

	o.logger.Info("Run started",
		"item", item.Name(),
		"topic", req.Topic,
		"id", item.ID())

	location, err := o.execute(ctx, item)
	if err != nil {
		return o.fail(ctx, item, err, start)
	}

	elapsed := time.Since(start)
	metrics.RunsCompleted.WithLabelValues("success").Inc()
	o.logger.Info("Run published",
		"item", item.Name(),
		"location", location,
		"revisions", item.Revisions(),
		"elapsed", elapsed)

	return successOutcome(item, location, elapsed)
}

// execute runs the phases in order and returns the published location.
func (o *Orchestrator) execute(ctx context.Context, item *Item) (string, error) {
	if err := o.runPhase(ctx, item, StateResearching, o.stages.Research); err != nil {
		return "", err
	}
	if _, err := o.checkpoint(ctx, item, false); err != nil {
		return "", err
	}

	if err := o.runPhase(ctx, item, StateDrafting, o.stages.Writer); err != nil {
		return "", err
	}
	if _, err := o.checkpoint(ctx, item, false); err != nil {
		return "", err
	}

	if err := o.factCheckLoop(ctx, item); err != nil {
		return "", err
	}

	o.prepareEditor(item)
	if err := o.runPhase(ctx, item, StateEditing, o.stages.Editor); err != nil {
		return "", err
	}
	if err := o.checkQuality(item); err != nil {
		return "", err
	}
	if _, err := o.checkpoint(ctx, item, false); err != nil {
		return "", err
	}

	if err := o.critiqueLoop(ctx, item); err != nil {
		return "", err
	}

	return o.publish(ctx, item)
}

// runPhase transitions into the phase's state and runs the stage body.
func (o *Orchestrator) runPhase(ctx context.Context, item *Item, state DocState, stage Stage) error {
	if err := item.TransitionTo(state); err != nil {
		return err
	}
	return o.runStageBody(ctx, item, stage)
}

// runStageBody invokes a stage without a state transition, records its
// contribution, and checks its self-validation. Used directly when a
// revision re-runs a producing phase the item was reverted into.
func (o *Orchestrator) runStageBody(ctx context.Context, item *Item, stage Stage) error {
	if o.config.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.StageTimeout)
		defer cancel()
	}

	started := time.Now()
	err := stage.Process(ctx, item)
	elapsed := time.Since(started)

	item.RecordContribution(stage.Name(), elapsed)
	metrics.StageDuration.WithLabelValues(stage.Name()).Observe(elapsed.Seconds())

	if err != nil {
		return NewStageError(item.State(), fmt.Errorf("%s stage: %w", stage.Name(), err), true)
	}
	if !stage.Validate(item) {
		return Stagef(item.State(), "%s stage reported its output as unusable", stage.Name())
	}

	o.logger.Debug("Stage completed",
		"stage", stage.Name(),
		"item", item.Name(),
		"duration", elapsed)
	return nil
}

// factCheckLoop runs the fact-check phase inside the bounded revision loop.
func (o *Orchestrator) factCheckLoop(ctx context.Context, item *Item) error {
	for {
		if err := o.runPhase(ctx, item, StateFactChecking, o.stages.FactCheck); err != nil {
			return err
		}

		report := item.FactCheck()
		if report == nil {
			return Stagef(StateFactChecking, "fact-check stage attached no report")
		}

		switch report.Verdict {
		case VerdictReject:
			return Stagef(StateFactChecking, "fact-check rejected draft: %s", report.Summary)
		case VerdictRevise:
			if !item.CanRevise(o.config.MaxRevisionCycles) {
				o.degrade(item, "fact-check", len(report.Issues), report.Summary)
				return nil
			}
			if err := o.reviseDraft(ctx, item); err != nil {
				return err
			}
			continue
		case VerdictPass:
			// Fall through to the checkpoint.
		default:
			return Stagef(StateFactChecking, "fact-check returned unknown verdict %q", report.Verdict)
		}

		revise, err := o.checkpoint(ctx, item, true)
		if err != nil {
			return err
		}
		if revise {
			if err := o.reviseDraft(ctx, item); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

// critiqueLoop runs the critique phase inside the bounded revision loop.
// A "reject" verdict here means the critic judged the article to need
// rework beyond what revision can fix.
func (o *Orchestrator) critiqueLoop(ctx context.Context, item *Item) error {
	for {
		if err := o.runPhase(ctx, item, StateCritiquing, o.stages.Critic); err != nil {
			return err
		}

		report := item.Critique()
		if report == nil {
			return Stagef(StateCritiquing, "critic stage attached no report")
		}

		switch report.Verdict {
		case VerdictReject:
			return Stagef(StateCritiquing, "critic judged article as needing rework: %s",
				joinNotes(report.Notes))
		case VerdictRevise:
			if !item.CanRevise(o.config.MaxRevisionCycles) {
				o.degrade(item, "critique", len(report.Notes), joinNotes(report.Notes))
				return nil
			}
			if err := o.reviseArticle(ctx, item); err != nil {
				return err
			}
			continue
		case VerdictPass:
			return nil
		default:
			return Stagef(StateCritiquing, "critic returned unknown verdict %q", report.Verdict)
		}
	}
}

// reviseDraft sends the item back to drafting and re-runs the writer.
func (o *Orchestrator) reviseDraft(ctx context.Context, item *Item) error {
	if err := item.RevertForRevision(); err != nil {
		return err
	}
	metrics.RevisionCycles.WithLabelValues("fact_check").Inc()
	o.logger.Info("Revision cycle: re-drafting",
		"item", item.Name(),
		"revision", item.Revisions())
	return o.runStageBody(ctx, item, o.stages.Writer)
}

// reviseArticle sends the item back to editing and re-runs the editor,
// re-applying the quality floor to the new article.
func (o *Orchestrator) reviseArticle(ctx context.Context, item *Item) error {
	if err := item.RevertForRevision(); err != nil {
		return err
	}
	metrics.RevisionCycles.WithLabelValues("critique").Inc()
	o.logger.Info("Revision cycle: re-editing",
		"item", item.Name(),
		"revision", item.Revisions())
	if err := o.runStageBody(ctx, item, o.stages.Editor); err != nil {
		return err
	}
	return o.checkQuality(item)
}

// degrade records that the revision budget is exhausted and lets the run
// continue with the imperfect artifact. The outstanding issues are a
// recorded risk, not a reason to abandon an otherwise-complete article.
func (o *Orchestrator) degrade(item *Item, phase string, issueCount int, summary string) {
	metrics.DegradedRuns.Inc()
	o.logger.Warn("Revision budget exhausted, continuing with outstanding issues",
		"item", item.Name(),
		"phase", phase,
		"revisions", item.Revisions(),
		"outstanding_issues", issueCount,
		"summary", summary)
}

// checkpoint resolves the approval checkpoint at the item's current state.
// The returned bool asks the caller to run a revision cycle; it can only be
// true under the revise policy at a checkpoint following a revisable phase.
func (o *Orchestrator) checkpoint(ctx context.Context, item *Item, revisable bool) (bool, error) {
	decision, err := o.gate.Decide(ctx, item)
	if err != nil {
		return false, NewStageError(item.State(), err, false)
	}

	switch decision.Kind {
	case DecisionApproved:
		return false, nil
	case DecisionRejected:
		return false, NewStageError(item.State(),
			&RejectionError{Actor: decision.Actor, Reason: decision.Reason}, false)
	case DecisionChangesRequested:
		if o.config.OnRequestChanges == ChangesRevise && revisable &&
			item.CanRevise(o.config.MaxRevisionCycles) {
			o.logger.Info("Approval requested changes, looping back",
				"item", item.Name(),
				"actor", decision.Actor,
				"feedback", decision.Feedback)
			return true, nil
		}
		return false, Stagef(item.State(), "approval requested changes (%s): %s",
			decision.Actor, decision.Feedback)
	default:
		return false, Stagef(item.State(), "unknown approval decision %q", decision.Kind)
	}
}

// checkQuality applies the configured quality floor to the editor's article.
func (o *Orchestrator) checkQuality(item *Item) error {
	article := item.Article()
	if article == nil {
		return Stagef(StateEditing, "editor attached no article")
	}
	if article.Score < o.config.MinEditorScore {
		return Stagef(StateEditing, "editor quality score %.2f below minimum %.2f",
			article.Score, o.config.MinEditorScore)
	}
	return nil
}

// prepareEditor hands the editor the names of existing sibling articles for
// cross-linking. Listing failures are not fatal.
func (o *Orchestrator) prepareEditor(item *Item) {
	ra, ok := o.stages.Editor.(ReferenceAware)
	if !ok {
		return
	}

	names := append([]string(nil), item.Request().Related...)
	existing, err := o.store.ListExisting()
	if err != nil {
		o.logger.Warn("Failed to list existing articles for cross-linking", "error", err)
	} else {
		names = append(names, existing...)
	}
	ra.SetReferenceContext(names)
}

// publish persists the final article and moves the item to published.
// Persistence failures surface at the editing state; publishing has no
// dedicated failure state of its own.
func (o *Orchestrator) publish(ctx context.Context, item *Item) (string, error) {
	location, err := o.store.Write(ctx, item)
	if err != nil {
		return "", NewStageError(StateEditing, fmt.Errorf("persist article: %w", err), true)
	}
	if err := item.TransitionTo(StatePublished); err != nil {
		return "", err
	}
	return location, nil
}

// fail converts any error raised during the phases into a failure outcome,
// best-effort persisting a debug snapshot when any artifact exists.
func (o *Orchestrator) fail(ctx context.Context, item *Item, err error, start time.Time) *Outcome {
	serr, ok := AsStageError(err)
	if !ok {
		// Unexpected failure: attribute it to the item's current state.
		serr = NewStageError(item.State(), err, false)
	}

	var debugLocation string
	if item.HasArtifacts() {
		loc, derr := o.store.WriteDebugSnapshot(ctx, item, serr.State, serr.Message())
		if derr != nil {
			o.logger.Warn("Failed to write debug snapshot",
				"item", item.Name(),
				"error", derr)
		} else {
			debugLocation = loc
			o.logger.Info("Debug snapshot written",
				"item", item.Name(),
				"location", loc)
		}
	}

	if !item.State().IsTerminal() {
		_ = item.TransitionTo(StateRejected)
	}

	elapsed := time.Since(start)
	metrics.RunsCompleted.WithLabelValues("failure").Inc()
	o.logger.Error("Run failed",
		"item", item.Name(),
		"state", serr.State,
		"error", serr.Message(),
		"elapsed", elapsed)

	return failureOutcome(item, serr.State, serr.Message(), debugLocation, elapsed)
}

func joinNotes(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	out := notes[0]
	for _, n := range notes[1:] {
		out += "; " + n
	}
	return out
}
