package discovery

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/pevans/nbudigest/newsfeed"
	"github.com/pevans/nbudigest/scraper"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps in-flight enrichment fetches.
const DefaultConcurrency = 5

// Enricher fills in each candidate's content by following its link.
type Enricher struct {
	fetcher     *Fetcher
	site        scraper.SiteConfig
	base        *url.URL
	concurrency int
	readability bool
	logger      *slog.Logger
}

// NewEnricher creates an enricher. A concurrency below one uses
// DefaultConcurrency.
func NewEnricher(
	fetcher *Fetcher,
	site scraper.SiteConfig,
	base *url.URL,
	concurrency int,
	readability bool,
	logger *slog.Logger,
) *Enricher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		fetcher:     fetcher,
		site:        site,
		base:        base,
		concurrency: concurrency,
		readability: readability,
		logger:      logger,
	}
}

// Enrich sets Content on every candidate. Tasks are admitted in slice order
// with at most the configured number running; Enrich returns once all of
// them have finished. Failures are recorded in the content, never returned.
func (e *Enricher) Enrich(ctx context.Context, cands []Candidate) {
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i := range cands {
		cand := &cands[i]
		g.Go(func() error {
			e.enrichOne(ctx, cand)
			return nil
		})
	}

	_ = g.Wait()
}

func (e *Enricher) enrichOne(ctx context.Context, cand *Candidate) {
	rec := &cand.Record

	switch {
	case cand.Category.Kind == scraper.KindDocument && rec.Link != nil:
		rec.Content = newsfeed.DocumentContent(*rec.Link)
	case rec.IsReport:
		e.resolveReport(ctx, rec)
	case rec.Link == nil:
		e.logger.Warn("record has no link", "title", rec.Title)
		rec.Content = newsfeed.FailedContent(newsfeed.StatusNoLink)
	case e.site.IsDocumentURL(*rec.Link):
		rec.Content = newsfeed.DocumentContent(*rec.Link)
	default:
		rec.Content = e.fetchArticle(ctx, *rec.Link)
	}
}

// resolveReport follows the report's post page to its download link.
func (e *Enricher) resolveReport(ctx context.Context, rec *newsfeed.NewsRecord) {
	if rec.PostLink == nil {
		rec.Content = newsfeed.FailedContent(newsfeed.StatusAbsent)
		return
	}

	doc, _, err := e.fetcher.FetchHTML(ctx, *rec.PostLink)
	if err != nil {
		e.logger.Error("failed to fetch report page",
			"url", *rec.PostLink, "error", err)
		rec.Content = newsfeed.FailedContent(newsfeed.StatusFetchFailed)
		return
	}

	link := findDownloadLink(doc.Find("a"), e.site.DownloadMarker, e.base)
	if link == "" {
		e.logger.Warn("report page has no download link", "url", *rec.PostLink)
		rec.Content = newsfeed.FailedContent(newsfeed.StatusAbsent)
		return
	}

	rec.Link = &link
	rec.Content = newsfeed.DocumentContent(link)
}

func (e *Enricher) fetchArticle(ctx context.Context, link string) *newsfeed.Content {
	doc, body, err := e.fetcher.FetchHTML(ctx, link)
	if err != nil {
		e.logger.Error("failed to fetch article", "url", link, "error", err)
		return newsfeed.FailedContent(newsfeed.StatusFetchFailed)
	}

	text, found := ExtractArticleText(doc, e.site.ContentSelector)
	if found && text != "" {
		return newsfeed.TextContent(text)
	}

	if e.readability {
		readable, err := ExtractReadableText(body, link)
		if err == nil && readable != "" {
			e.logger.Debug("used readability fallback", "url", link)
			return newsfeed.TextContent(readable)
		}
	}

	e.logger.Warn("article content not found", "url", link)
	return newsfeed.FailedContent(newsfeed.StatusMissing)
}
