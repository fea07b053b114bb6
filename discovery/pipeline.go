package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pevans/nbudigest/newsfeed"
	"github.com/pevans/nbudigest/scraper"
)

// ErrListingUnavailable means the listing page could not be fetched. The run
// still completes with an empty result.
var ErrListingUnavailable = errors.New("listing page unavailable")

// Options are the per-run switches of the pipeline.
type Options struct {
	Mode       FilterMode
	IgnoreDate bool
	// DedupLinks enables the (link, category) pass before enrichment.
	DedupLinks          bool
	Concurrency         int
	ReadabilityFallback bool
	Location            *time.Location
}

// DefaultOptions returns the daily-digest configuration.
func DefaultOptions() Options {
	return Options{
		Mode:        FilterToday,
		DedupLinks:  true,
		Concurrency: DefaultConcurrency,
		Location:    time.Local,
	}
}

// PipelineConfig wires a pipeline's collaborators.
type PipelineConfig struct {
	Site       scraper.SiteConfig
	Categories []scraper.Category
	Options    Options
	Client     *http.Client
	Tracked    *newsfeed.TrackedStore
	Output     *newsfeed.RecordStore
	Logger     *slog.Logger
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Pipeline turns the listing page into the processed record list.
type Pipeline struct {
	site       scraper.SiteConfig
	categories []scraper.Category
	opts       Options
	base       *url.URL
	fetcher    *Fetcher
	tracked    *newsfeed.TrackedStore
	output     *newsfeed.RecordStore
	logger     *slog.Logger
	now        func() time.Time
}

// Result summarizes one pipeline run.
type Result struct {
	Records        []newsfeed.NewsRecord
	Extracted      int
	TrackedSkipped int
	FilteredOut    int
	Duplicates     int
	Dropped        int
}

// NewPipeline validates cfg and builds a pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	base, err := url.Parse(cfg.Site.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.Site.BaseURL)
	}
	if cfg.Tracked == nil || cfg.Output == nil {
		return nil, errors.New("pipeline requires tracked and output stores")
	}

	opts := cfg.Options
	if opts.Mode == "" {
		opts.Mode = FilterToday
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		site:       cfg.Site,
		categories: cfg.Categories,
		opts:       opts,
		base:       base,
		fetcher:    NewFetcher(cfg.Client, cfg.Site.UserAgent),
		tracked:    cfg.Tracked,
		output:     cfg.Output,
		logger:     logger,
		now:        now,
	}, nil
}

// Run executes one full pass and persists its output. Per-record failures
// never fail the run. An error is returned when the listing is unavailable
// or the output cannot be written; Result is non-nil in both cases.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	now := p.now().In(p.opts.Location)
	result := &Result{Records: []newsfeed.NewsRecord{}}

	doc, _, err := p.fetcher.FetchHTML(ctx, p.site.ListingURL)
	if err != nil {
		p.logger.Error("failed to fetch listing page", "url", p.site.ListingURL, "error", err)
		if saveErr := p.output.Save(result.Records); saveErr != nil {
			p.logger.Error("failed to save processed records", "error", saveErr)
		}
		return result, fmt.Errorf("%w: %v", ErrListingUnavailable, err)
	}

	known, err := p.tracked.Load()
	if err != nil {
		p.logger.Warn("tracked documents unreadable, starting empty", "error", err)
	}

	extractor := NewExtractor(p.site, p.base, now, p.logger)
	filter := DateFilter{Mode: p.opts.Mode, IgnoreDate: p.opts.IgnoreDate, Now: now}

	var (
		cands []Candidate
		found []string
		seen  = map[string]bool{}
	)
	for _, category := range p.categories {
		strategy := extractor.StrategyFor(category, p.opts.Mode)
		for _, cand := range extractor.ExtractCategory(doc, category, strategy) {
			result.Extracted++

			if category.Tracked {
				link := cand.Record.LinkString()
				if !seen[link] {
					seen[link] = true
					found = append(found, link)
				}
				if known[link] {
					result.TrackedSkipped++
					continue
				}
			}

			if strategy.Dated() && !filter.Keep(cand.Date) {
				result.FilteredOut++
				continue
			}
			cands = append(cands, cand)
		}
	}

	if err := p.tracked.Save(found); err != nil {
		p.logger.Error("failed to save tracked documents", "error", err)
	}

	p.logger.Info("collected records from categories",
		"extracted", result.Extracted, "kept", len(cands))

	if p.opts.DedupLinks {
		before := len(cands)
		cands = DedupByLink(cands)
		result.Duplicates += before - len(cands)
	}

	NewEnricher(p.fetcher, p.site, p.base, p.opts.Concurrency, p.opts.ReadabilityFallback, p.logger).
		Enrich(ctx, cands)

	records := make([]newsfeed.NewsRecord, 0, len(cands))
	for _, cand := range cands {
		if !cand.Record.Content.Usable() {
			result.Dropped++
			continue
		}
		records = append(records, cand.Record)
	}

	before := len(records)
	records = DedupByContent(records)
	result.Duplicates += before - len(records)
	result.Records = records

	p.logger.Info("pipeline finished",
		"records", len(records), "dropped", result.Dropped, "duplicates", result.Duplicates)

	if err := p.output.Save(records); err != nil {
		p.logger.Error("failed to save processed records", "error", err)
		return result, fmt.Errorf("failed to save processed records: %w", err)
	}
	return result, nil
}
