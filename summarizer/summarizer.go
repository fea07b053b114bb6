// Package summarizer turns processed records into short Ukrainian summaries
// with a chat completion API.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pevans/nbudigest/newsfeed"
)

// ErrEmptySummary is returned when the API answers with no text.
var ErrEmptySummary = errors.New("empty summary")

const (
	SystemPrompt = "Ти допомагаєш створювати короткі вижимки (підсумки) новин."
	UserPrompt   = "Створи коротку вижимку цієї новини 1-2 речення. Не обрізай підсумок на полуслові!:\n\n"

	// maxDocumentRunes bounds the PDF text sent in one prompt.
	maxDocumentRunes = 12000
)

// DocumentFetcher downloads a file. discovery.Fetcher satisfies it.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Summarizer reads the processed list and writes the summarized list.
type Summarizer struct {
	completer Completer
	input     *newsfeed.RecordStore
	output    *newsfeed.RecordStore
	logger    *slog.Logger
	now       func() time.Time

	// documents is nil unless PDF summaries are enabled.
	documents DocumentFetcher
}

// Option customizes a Summarizer.
type Option func(*Summarizer)

// WithDocumentFetcher enables summarizing the text of linked PDF files.
func WithDocumentFetcher(f DocumentFetcher) Option {
	return func(s *Summarizer) { s.documents = f }
}

// WithClock overrides the processing timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) { s.now = now }
}

// New creates a summarizer.
func New(completer Completer, input, output *newsfeed.RecordStore, logger *slog.Logger, opts ...Option) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Summarizer{
		completer: completer,
		input:     input,
		output:    output,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run summarizes every stored processed record and overwrites the summarized
// list with those that got a summary.
func (s *Summarizer) Run(ctx context.Context) ([]newsfeed.NewsRecord, error) {
	records, err := s.input.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load processed records: %w", err)
	}

	summarized := s.Summarize(ctx, records)
	if err := s.output.Save(summarized); err != nil {
		return summarized, fmt.Errorf("failed to save summarized records: %w", err)
	}

	s.logger.Info("summarized records",
		"input", len(records), "output", len(summarized))
	return summarized, nil
}

// Summarize returns the records that received a summary, in input order.
// Records whose summary request fails are dropped.
func (s *Summarizer) Summarize(ctx context.Context, records []newsfeed.NewsRecord) []newsfeed.NewsRecord {
	out := make([]newsfeed.NewsRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Content.Usable() {
			s.logger.Warn("skipping record without content", "title", rec.Title)
			continue
		}

		summary, err := s.summarizeOne(ctx, &rec)
		if err != nil {
			s.logger.Error("failed to summarize record",
				"title", rec.Title, "error", err)
			continue
		}

		processedAt := s.now()
		rec.Summary = summary
		rec.ProcessedAt = &processedAt
		out = append(out, rec)
	}
	return out
}

func (s *Summarizer) summarizeOne(ctx context.Context, rec *newsfeed.NewsRecord) (string, error) {
	var body string
	switch rec.Content.Status {
	case newsfeed.StatusText:
		body = rec.Content.Text
	case newsfeed.StatusDocument:
		body = s.documentText(ctx, rec.Content.Text)
	}

	// Records with nothing to read are described by their content label.
	if strings.TrimSpace(body) == "" {
		return rec.Content.String(), nil
	}

	summary, err := s.completer.Complete(ctx, SystemPrompt, UserPrompt+body)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// documentText downloads and extracts a linked PDF. Any failure yields ""
// so the record falls back to its label.
func (s *Summarizer) documentText(ctx context.Context, link string) string {
	if s.documents == nil || !strings.HasSuffix(strings.ToLower(link), ".pdf") {
		return ""
	}

	data, err := s.documents.Fetch(ctx, link)
	if err != nil {
		s.logger.Warn("failed to download document", "url", link, "error", err)
		return ""
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		s.logger.Warn("failed to extract document text", "url", link, "error", err)
		return ""
	}
	return truncateRunes(text, maxDocumentRunes)
}
