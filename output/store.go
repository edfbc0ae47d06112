// Package output persists published articles and debug snapshots to a
// directory of Markdown files with YAML frontmatter.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/pressroomhq/pressroom/pipeline"
)

// debugDirName is the subdirectory holding failure snapshots.
const debugDirName = "debug"

// frontmatter is the metadata block written at the top of each published
// article.
type frontmatter struct {
	Title     string    `yaml:"title"`
	Topic     string    `yaml:"topic"`
	Summary   string    `yaml:"summary,omitempty"`
	Audience  string    `yaml:"audience,omitempty"`
	Score     float64   `yaml:"score"`
	Revisions int       `yaml:"revisions,omitempty"`
	Published time.Time `yaml:"published"`
	ItemID    string    `yaml:"item_id"`
}

// Store writes articles to a flat directory, one Markdown file per article,
// named after the article's canonical name.
type Store struct {
	dir    string
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Write persists the item's final article as <Name>.md with YAML
// frontmatter, returning the file path.
func (s *Store) Write(ctx context.Context, item *pipeline.Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	article := item.Article()
	if article == nil {
		return "", fmt.Errorf("item %s has no article to write", item.Name())
	}

	req := item.Request()
	meta := frontmatter{
		Title:     item.Name(),
		Topic:     req.Topic,
		Summary:   article.Summary,
		Audience:  req.Audience,
		Score:     article.Score,
		Revisions: item.Revisions(),
		Published: time.Now(),
		ItemID:    item.ID(),
	}

	metaBytes, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(metaBytes)
	b.WriteString("---\n\n")
	b.WriteString(article.Content)
	b.WriteString("\n")

	path := filepath.Join(s.dir, item.Name()+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write article: %w", err)
	}

	s.logger.Info("Article written", "path", path, "score", article.Score)
	return path, nil
}

// WriteDebugSnapshot dumps the item's full state as JSON under the debug
// subdirectory, for diagnosing failed runs. Returns the snapshot path.
func (s *Store) WriteDebugSnapshot(ctx context.Context, item *pipeline.Item, failedAt pipeline.DocState, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	debugDir := filepath.Join(s.dir, debugDirName)
	if err := os.MkdirAll(debugDir, 0o755); err != nil {
		return "", fmt.Errorf("create debug directory: %w", err)
	}

	snapshot := struct {
		FailedAt pipeline.DocState `json:"failed_at"`
		Message  string            `json:"message"`
		Item     *pipeline.Item    `json:"item"`
	}{
		FailedAt: failedAt,
		Message:  message,
		Item:     item,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal debug snapshot: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", item.Name(), time.Now().Format("20060102-150405"))
	path := filepath.Join(debugDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write debug snapshot: %w", err)
	}

	return path, nil
}

// ListExisting returns the canonical names of already-published articles, for
// cross-linking. Debug snapshots are excluded.
func (s *Store) ListExisting() ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(s.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".md"))
	}
	return names, nil
}
