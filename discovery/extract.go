package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/pevans/nbudigest/locale"
	"github.com/pevans/nbudigest/newsfeed"
	"github.com/pevans/nbudigest/scraper"
)

// Row-level extraction errors. A row that fails with one of these is skipped.
var (
	ErrMissingTitle       = errors.New("row has no title")
	ErrMissingLink        = errors.New("row has no usable link")
	ErrMissingDescription = errors.New("row has no description")
)

// Candidate is a record as read from the listing, before filtering and
// enrichment.
type Candidate struct {
	Record   newsfeed.NewsRecord
	Category scraper.Category
	// Date is the parsed publication day, or nil if the marker could not be
	// parsed. Only used for filtering.
	Date *time.Time
}

// Strategy reads one listing row into a candidate.
type Strategy interface {
	Extract(row *goquery.Selection, category scraper.Category) (*Candidate, error)
	// Dated reports whether candidates from this strategy go through the
	// date filter.
	Dated() bool
}

// Extractor holds what every strategy needs to read rows: the layout, the
// base URL for relative links, and the reference time for "today".
type Extractor struct {
	site   scraper.SiteConfig
	base   *url.URL
	now    time.Time
	logger *slog.Logger
}

// NewExtractor creates an extractor for one run.
func NewExtractor(site scraper.SiteConfig, base *url.URL, now time.Time, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{site: site, base: base, now: now, logger: logger}
}

// StrategyFor picks the strategy for a category. Feed categories are read
// without date parsing when the run does not filter by date.
func (e *Extractor) StrategyFor(category scraper.Category, mode FilterMode) Strategy {
	switch category.Kind {
	case scraper.KindReport:
		return &ReportStrategy{e}
	case scraper.KindDocument:
		return &DocumentStrategy{Extractor: e, dated: category.DateFromLink && !category.Tracked}
	default:
		if mode == FilterNone {
			return &UndatedFeedStrategy{e}
		}
		return &FeedStrategy{e}
	}
}

// ExtractCategory reads every row of the category's container. A missing
// container or a broken row is logged and skipped.
func (e *Extractor) ExtractCategory(doc *goquery.Document, category scraper.Category, strategy Strategy) []Candidate {
	container := doc.Find("#" + category.ID)
	if container.Length() == 0 {
		e.logger.Warn("category container not found",
			"category", category.Name, "id", category.ID)
		return nil
	}

	var out []Candidate
	container.Find(e.site.RowSelector).Each(func(i int, row *goquery.Selection) {
		cand, err := strategy.Extract(row, category)
		if err != nil {
			e.logger.Warn("skipping row",
				"category", category.Name, "row", i, "error", err)
			return
		}
		out = append(out, *cand)
	})
	return out
}

func (e *Extractor) newCandidate(category scraper.Category, title string) *Candidate {
	return &Candidate{
		Record: newsfeed.NewsRecord{
			ID:           uuid.New(),
			Title:        title,
			Category:     category.Name,
			DiscoveredAt: e.now,
		},
		Category: category,
	}
}

// anchor reads the title and resolved href of the first element matching
// selector.
func (e *Extractor) anchor(row *goquery.Selection, selector string) (string, string, error) {
	a := row.Find(selector).First()
	title := normalizeSpace(a.Text())
	if title == "" {
		return "", "", ErrMissingTitle
	}

	href, _ := a.Attr("href")
	link, err := ResolveLink(e.base, href)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMissingLink, err)
	}
	return title, link, nil
}

// parseMarker parses the row's time marker. Unparseable dates are logged and
// left nil.
func (e *Extractor) parseMarker(row *goquery.Selection, category scraper.Category) (*time.Time, *string) {
	marker := strings.TrimSpace(row.Find(e.site.TimeSelector).First().Text())
	parsed, err := locale.ParseDate(marker, e.now)
	if err != nil {
		e.logger.Warn("invalid date format",
			"category", category.Name, "marker", marker, "error", err)
		return nil, nil
	}
	display := locale.FormatDisplay(parsed)
	return &parsed, &display
}

// FeedStrategy reads news rows: a paragraph anchor and a time marker.
type FeedStrategy struct{ *Extractor }

func (s *FeedStrategy) Extract(row *goquery.Selection, category scraper.Category) (*Candidate, error) {
	title, link, err := s.anchor(row, s.site.TitleSelector)
	if err != nil {
		return nil, err
	}

	cand := s.newCandidate(category, title)
	cand.Record.Link = &link
	cand.Date, cand.Record.Date = s.parseMarker(row, category)
	return cand, nil
}

func (s *FeedStrategy) Dated() bool { return true }

// UndatedFeedStrategy reads news rows but keeps the raw time marker as the
// display date.
type UndatedFeedStrategy struct{ *Extractor }

func (s *UndatedFeedStrategy) Extract(row *goquery.Selection, category scraper.Category) (*Candidate, error) {
	title, link, err := s.anchor(row, s.site.TitleSelector)
	if err != nil {
		return nil, err
	}

	cand := s.newCandidate(category, title)
	cand.Record.Link = &link
	cand.Record.Date = newsfeed.StringPtr(strings.TrimSpace(row.Find(s.site.TimeSelector).First().Text()))
	return cand, nil
}

func (s *UndatedFeedStrategy) Dated() bool { return false }

// ReportStrategy reads report rows. The anchor leads to a post page; the
// downloadable file is resolved during enrichment.
type ReportStrategy struct{ *Extractor }

func (s *ReportStrategy) Extract(row *goquery.Selection, category scraper.Category) (*Candidate, error) {
	title, postLink, err := s.anchor(row, s.site.ReportSelector)
	if err != nil {
		return nil, err
	}

	cand := s.newCandidate(category, title)
	cand.Record.PostLink = &postLink
	cand.Record.IsReport = true
	cand.Date, cand.Record.Date = s.parseMarker(row, category)
	return cand, nil
}

func (s *ReportStrategy) Dated() bool { return true }

// DocumentStrategy reads download rows: a description and an anchor whose
// text carries the download marker.
type DocumentStrategy struct {
	*Extractor
	dated bool
}

func (s *DocumentStrategy) Extract(row *goquery.Selection, category scraper.Category) (*Candidate, error) {
	description := row.Find(s.site.DescriptionSelector)
	if description.Length() == 0 {
		return nil, ErrMissingDescription
	}
	title := normalizeSpace(description.Text())
	if title == "" {
		return nil, ErrMissingTitle
	}

	link := findDownloadLink(row.Find("a"), s.site.DownloadMarker, s.base)
	if link == "" {
		return nil, ErrMissingLink
	}

	cand := s.newCandidate(category, title)
	cand.Record.Link = &link

	if category.DateFromLink {
		parsed, err := locale.DateFromLink(link, s.now.Location())
		if err != nil {
			s.logger.Warn("could not read date from link",
				"category", category.Name, "link", link, "error", err)
		} else {
			display := locale.FormatDisplay(parsed)
			cand.Date, cand.Record.Date = &parsed, &display
		}
	}
	return cand, nil
}

func (s *DocumentStrategy) Dated() bool { return s.dated }
