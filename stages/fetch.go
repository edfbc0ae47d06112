package stages

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/pressroomhq/pressroom/pipeline"
)

// maxSourceBytes limits how much of a source page is downloaded.
const maxSourceBytes = 2 * 1024 * 1024 // 2MB

// SourceFetcher downloads source URLs and extracts readable excerpts for the
// research stage. Fetching is best-effort: an unreachable or unparsable
// source is logged and skipped, never failing the stage.
type SourceFetcher struct {
	httpClient *http.Client
	converter  *md.Converter
	maxExcerpt int
	logger     *slog.Logger
}

// FetcherOption configures a SourceFetcher.
type FetcherOption func(*SourceFetcher)

// WithFetchHTTPClient sets a custom HTTP client for source downloads.
func WithFetchHTTPClient(c *http.Client) FetcherOption {
	return func(f *SourceFetcher) {
		f.httpClient = c
	}
}

// WithMaxExcerpt caps the excerpt length in bytes per source.
func WithMaxExcerpt(n int) FetcherOption {
	return func(f *SourceFetcher) {
		f.maxExcerpt = n
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *SourceFetcher) {
		f.logger = logger
	}
}

// NewSourceFetcher creates a fetcher with sensible defaults.
func NewSourceFetcher(opts ...FetcherOption) *SourceFetcher {
	f := &SourceFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		converter:  md.NewConverter("", true, nil),
		maxExcerpt: 8000,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves readable content for each source URL. The returned notes
// are in the order of the input; failed sources are omitted.
func (f *SourceFetcher) Fetch(ctx context.Context, sources []string) []pipeline.SourceNote {
	notes := make([]pipeline.SourceNote, 0, len(sources))

	for _, src := range sources {
		note, err := f.fetchOne(ctx, src)
		if err != nil {
			f.logger.Warn("Skipping unreadable source", "url", src, "error", err)
			continue
		}
		notes = append(notes, note)
	}

	return notes
}

func (f *SourceFetcher) fetchOne(ctx context.Context, src string) (pipeline.SourceNote, error) {
	parsed, err := url.Parse(src)
	if err != nil {
		return pipeline.SourceNote{}, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return pipeline.SourceNote{}, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return pipeline.SourceNote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return pipeline.SourceNote{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pipeline.SourceNote{}, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return pipeline.SourceNote{}, fmt.Errorf("read body: %w", err)
	}

	title := extractTitle(body)

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return pipeline.SourceNote{}, fmt.Errorf("extract readable content: %w", err)
	}
	if article.Title != "" {
		title = article.Title
	}

	excerpt, err := f.converter.ConvertString(article.Content)
	if err != nil {
		// Fall back to the plain-text extraction when the HTML defeats the
		// Markdown converter.
		excerpt = article.TextContent
	}
	excerpt = strings.TrimSpace(excerpt)
	if len(excerpt) > f.maxExcerpt {
		excerpt = excerpt[:f.maxExcerpt]
	}

	return pipeline.SourceNote{
		URL:     src,
		Title:   title,
		Excerpt: excerpt,
	}, nil
}

// extractTitle pulls the document title from raw HTML. Returns "" when the
// document has none.
func extractTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
