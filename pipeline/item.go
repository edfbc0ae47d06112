package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Request is the originating topic request for one production run.
type Request struct {
	// Topic is the subject of the article.
	Topic string `json:"topic" yaml:"topic"`

	// Audience describes the intended readership.
	Audience string `json:"audience,omitempty" yaml:"audience"`

	// TargetWords is the desired article length. 0 leaves it to the writer.
	TargetWords int `json:"target_words,omitempty" yaml:"target_words"`

	// Sections lists headings the article must contain.
	Sections []string `json:"sections,omitempty" yaml:"sections"`

	// Related lists sibling article names for cross-linking.
	Related []string `json:"related,omitempty" yaml:"related"`

	// Sources lists URLs the research stage may consult.
	Sources []string `json:"sources,omitempty" yaml:"sources"`
}

// Validate checks that the request is usable.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrTopicRequired
	}
	return nil
}

// Contribution records one stage invocation on a work item.
type Contribution struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Item is the mutable unit of work progressing through the pipeline.
// It is exclusively owned by one orchestrator run; stage collaborators
// mutate it only through the attach/transition contract.
type Item struct {
	id        string
	name      string
	req       Request
	state     DocState
	createdAt time.Time
	updatedAt time.Time

	research  *Research
	draft     *Draft
	factCheck *FactCheckReport
	article   *Article
	critique  *CritiqueReport

	revisions     int
	contributions []Contribution
}

// NewItem creates a work item in the created state.
func NewItem(req Request) (*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Item{
		id:        uuid.New().String(),
		name:      CanonicalName(req.Topic),
		req:       req,
		state:     StateCreated,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// CanonicalName derives the short article name from a topic: non-alphanumeric
// separators are collapsed and each word is capitalized, so
// "event driven architecture" becomes "EventDrivenArchitecture".
func CanonicalName(topic string) string {
	words := strings.FieldsFunc(topic, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}

// ID returns the opaque unique identifier.
func (i *Item) ID() string { return i.id }

// Name returns the canonical short name derived from the topic.
func (i *Item) Name() string { return i.name }

// Request returns the originating request.
func (i *Item) Request() Request { return i.req }

// State returns the current lifecycle state.
func (i *Item) State() DocState { return i.state }

// CreatedAt returns the creation timestamp.
func (i *Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last mutation timestamp.
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

// Revisions returns the revision-cycle counter. It never decreases.
func (i *Item) Revisions() int { return i.revisions }

// Contributions returns a copy of the stage contribution log.
func (i *Item) Contributions() []Contribution {
	out := make([]Contribution, len(i.contributions))
	copy(out, i.contributions)
	return out
}

// Research returns the attached research findings, or nil.
func (i *Item) Research() *Research { return i.research }

// Draft returns the attached draft, or nil.
func (i *Item) Draft() *Draft { return i.draft }

// FactCheck returns the attached fact-check report, or nil.
func (i *Item) FactCheck() *FactCheckReport { return i.factCheck }

// Article returns the attached final article, or nil.
func (i *Item) Article() *Article { return i.article }

// Critique returns the attached critique report, or nil.
func (i *Item) Critique() *CritiqueReport { return i.critique }

// TransitionTo moves the item to the next state, validating legality.
func (i *Item) TransitionTo(next DocState) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown state %q", ErrStateContract, next)
	}
	if !i.state.CanTransitionTo(next) {
		return fmt.Errorf("%w: illegal transition %s -> %s", ErrStateContract, i.state, next)
	}
	i.state = next
	i.touch()
	return nil
}

// AttachResearch stores research findings. Legal only while researching.
func (i *Item) AttachResearch(r *Research) error {
	if err := i.requireState(StateResearching, "research findings"); err != nil {
		return err
	}
	i.research = r
	i.touch()
	return nil
}

// AttachDraft stores draft content. Legal only while drafting.
func (i *Item) AttachDraft(d *Draft) error {
	if err := i.requireState(StateDrafting, "draft"); err != nil {
		return err
	}
	i.draft = d
	i.touch()
	return nil
}

// AttachFactCheck stores a fact-check report. Legal only while fact-checking.
func (i *Item) AttachFactCheck(r *FactCheckReport) error {
	if err := i.requireState(StateFactChecking, "fact-check report"); err != nil {
		return err
	}
	i.factCheck = r
	i.touch()
	return nil
}

// AttachArticle stores the final article. Legal only while editing.
func (i *Item) AttachArticle(a *Article) error {
	if err := i.requireState(StateEditing, "final article"); err != nil {
		return err
	}
	i.article = a
	i.touch()
	return nil
}

// AttachCritique stores a critique report. Legal only while critiquing.
func (i *Item) AttachCritique(r *CritiqueReport) error {
	if err := i.requireState(StateCritiquing, "critique report"); err != nil {
		return err
	}
	i.critique = r
	i.touch()
	return nil
}

// RevertForRevision sends the item backward one phase for a revision cycle:
// fact_checking -> drafting or critiquing -> editing. Increments the
// revision counter.
func (i *Item) RevertForRevision() error {
	var target DocState
	switch i.state {
	case StateFactChecking:
		target = StateDrafting
	case StateCritiquing:
		target = StateEditing
	default:
		return fmt.Errorf("%w: cannot revert for revision from %s", ErrStateContract, i.state)
	}

	i.revisions++
	i.state = target
	i.touch()
	return nil
}

// CanRevise returns true if the item is not terminal and the revision
// counter is strictly below maxCycles.
func (i *Item) CanRevise(maxCycles int) bool {
	if i.state.IsTerminal() {
		return false
	}
	return i.revisions < maxCycles
}

// RecordContribution appends a stage invocation to the contribution log.
func (i *Item) RecordContribution(stage string, d time.Duration) {
	i.contributions = append(i.contributions, Contribution{Stage: stage, Duration: d})
	i.touch()
}

// HasArtifacts reports whether any artifact beyond the request exists.
// Used to decide whether a debug snapshot is worth writing.
func (i *Item) HasArtifacts() bool {
	return i.research != nil || i.draft != nil || i.factCheck != nil ||
		i.article != nil || i.critique != nil
}

func (i *Item) requireState(want DocState, artifact string) error {
	if i.state != want {
		return fmt.Errorf("%w: cannot attach %s in state %s (requires %s)",
			ErrStateContract, artifact, i.state, want)
	}
	return nil
}

func (i *Item) touch() {
	i.updatedAt = time.Now()
}

// itemSnapshot is the serialized view of an item for debug artifacts.
type itemSnapshot struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	State         DocState         `json:"state"`
	Request       Request          `json:"request"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Revisions     int              `json:"revisions"`
	Research      *Research        `json:"research,omitempty"`
	Draft         *Draft           `json:"draft,omitempty"`
	FactCheck     *FactCheckReport `json:"fact_check,omitempty"`
	Article       *Article         `json:"article,omitempty"`
	Critique      *CritiqueReport  `json:"critique,omitempty"`
	Contributions []Contribution   `json:"contributions,omitempty"`
}

// MarshalJSON serializes the item for debug snapshots and diagnostics.
func (i *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemSnapshot{
		ID:            i.id,
		Name:          i.name,
		State:         i.state,
		Request:       i.req,
		CreatedAt:     i.createdAt,
		UpdatedAt:     i.updatedAt,
		Revisions:     i.revisions,
		Research:      i.research,
		Draft:         i.draft,
		FactCheck:     i.factCheck,
		Article:       i.article,
		Critique:      i.critique,
		Contributions: i.contributions,
	})
}
