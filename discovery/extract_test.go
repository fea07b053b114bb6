package discovery

import (
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/pevans/nbudigest/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kyivZone = time.FixedZone("EET", 2*60*60)
	testNow  = time.Date(2025, 2, 4, 15, 0, 0, 0, kyivZone)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	base, err := url.Parse("https://bank.gov.ua")
	require.NoError(t, err)
	return NewExtractor(scraper.DefaultSiteConfig(), base, testNow, quietLogger())
}

func feedCategory() scraper.Category {
	return scraper.Category{ID: "tabs-news-feed-4-1", Name: "Новини", Kind: scraper.KindFeed}
}

func feedRow(title, href, marker string) string {
	return `<div class="collection-item post-inline">
		<div class="mark"><time>` + marker + `</time></div>
		<div class="content"><p><a href="` + href + `">` + title + `</a></p></div>
	</div>`
}

func documentRow(description, href string) string {
	return `<div class="collection-item post-inline">
		<div class="description">` + description + `</div>
		<a href="/about">Детальніше</a>
		<a href="` + href + `">Завантажити</a>
	</div>`
}

func container(id string, rows ...string) string {
	out := `<div id="` + id + `">`
	for _, r := range rows {
		out += r
	}
	return out + `</div>`
}

// TestFeedStrategy verifies title, link and date extraction for news rows
func TestFeedStrategy(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, container("tabs-news-feed-4-1",
		feedRow("Rate unchanged", "/news/rate", "4 лют. 2025 10:09"),
		feedRow("Fresh", "/news/fresh", "12:30"),
		feedRow("Bad date", "/news/bad", "вчора"),
	))

	cat := feedCategory()
	strategy := e.StrategyFor(cat, FilterToday)
	require.IsType(t, &FeedStrategy{}, strategy)
	assert.True(t, strategy.Dated())

	cands := e.ExtractCategory(doc, cat, strategy)
	require.Len(t, cands, 3)

	first := cands[0]
	assert.Equal(t, "Rate unchanged", first.Record.Title)
	assert.Equal(t, "https://bank.gov.ua/news/rate", first.Record.LinkString())
	assert.Equal(t, "04.02.2025", first.Record.DateString())
	assert.Equal(t, "Новини", first.Record.Category)
	require.NotNil(t, first.Date)
	assert.Equal(t, time.Date(2025, 2, 4, 0, 0, 0, 0, kyivZone), *first.Date)

	assert.Equal(t, "04.02.2025", cands[1].Record.DateString(), "bare clock means today")

	assert.Nil(t, cands[2].Date, "unparseable marker leaves date nil")
	assert.Nil(t, cands[2].Record.Date)
}

// TestFeedStrategy_SkipsBrokenRows verifies rows without title or link are
// skipped rather than aborting the category
func TestFeedStrategy_SkipsBrokenRows(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, container("tabs-news-feed-4-1",
		feedRow("", "/news/empty-title", "10:00"),
		`<div class="collection-item post-inline"><p><a>No href</a></p></div>`,
		feedRow("Good", "/news/good", "10:00"),
	))

	cat := feedCategory()
	cands := e.ExtractCategory(doc, cat, e.StrategyFor(cat, FilterToday))
	require.Len(t, cands, 1)
	assert.Equal(t, "Good", cands[0].Record.Title)
}

// TestExtractCategory_MissingContainer verifies an absent tab yields nothing
func TestExtractCategory_MissingContainer(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, `<html><body></body></html>`)

	cat := feedCategory()
	assert.Empty(t, e.ExtractCategory(doc, cat, e.StrategyFor(cat, FilterToday)))
}

// TestUndatedFeedStrategy verifies the raw marker is stored unparsed
func TestUndatedFeedStrategy(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, container("tabs-news-feed-4-1",
		feedRow("Rate unchanged", "/news/rate", "4 лют. 2025 10:09"),
	))

	cat := feedCategory()
	strategy := e.StrategyFor(cat, FilterNone)
	require.IsType(t, &UndatedFeedStrategy{}, strategy)
	assert.False(t, strategy.Dated())

	cands := e.ExtractCategory(doc, cat, strategy)
	require.Len(t, cands, 1)
	assert.Equal(t, "4 лют. 2025 10:09", cands[0].Record.DateString())
	assert.Nil(t, cands[0].Date)
}

// TestReportStrategy verifies reports defer link resolution
func TestReportStrategy(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, container("tabs-documents-5-0",
		`<div class="collection-item post-inline">
			<div class="mark"><time>4 лют. 2025 10:09</time></div>
			<p>Звіт: <a href="/ua/news/all/inflation-report">Інфляційний звіт</a></p>
		</div>`,
	))

	cat := scraper.Category{ID: "tabs-documents-5-0", Name: "Останні Звіти", Kind: scraper.KindReport}
	strategy := e.StrategyFor(cat, FilterToday)
	require.IsType(t, &ReportStrategy{}, strategy)

	cands := e.ExtractCategory(doc, cat, strategy)
	require.Len(t, cands, 1)

	rec := cands[0].Record
	assert.True(t, rec.IsReport)
	assert.Nil(t, rec.Link)
	require.NotNil(t, rec.PostLink)
	assert.Equal(t, "https://bank.gov.ua/ua/news/all/inflation-report", *rec.PostLink)
	assert.Equal(t, "Інфляційний звіт", rec.Title)
	assert.Equal(t, "04.02.2025", rec.DateString())
}

// TestDocumentStrategy_Tracked verifies strategic documents are undated
func TestDocumentStrategy_Tracked(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, container("tabs-documents-5-1",
		documentRow("Стратегія НБУ", "/admin_uploads/strategy.pdf"),
		`<div class="collection-item post-inline"><a href="/x.pdf">Завантажити</a></div>`,
		`<div class="collection-item post-inline"><div class="description">Без файлу</div></div>`,
	))

	cat := scraper.Category{ID: "tabs-documents-5-1", Name: "Стратегічні Документи", Kind: scraper.KindDocument, Tracked: true}
	strategy := e.StrategyFor(cat, FilterToday)
	assert.False(t, strategy.Dated())

	cands := e.ExtractCategory(doc, cat, strategy)
	require.Len(t, cands, 1, "rows without description or download link are skipped")
	assert.Equal(t, "Стратегія НБУ", cands[0].Record.Title)
	assert.Equal(t, "https://bank.gov.ua/admin_uploads/strategy.pdf", cands[0].Record.LinkString())
	assert.Nil(t, cands[0].Record.Date)
}

// TestDocumentStrategy_DateFromLink verifies dates are read from file names
func TestDocumentStrategy_DateFromLink(t *testing.T) {
	e := testExtractor(t)
	doc := mustDoc(t, container("tabs-documents-5-2",
		documentRow("Огляд", "/admin_uploads/review_2025-02-04.pdf"),
		documentRow("Без дати", "/admin_uploads/review.pdf"),
	))

	cat := scraper.Category{ID: "tabs-documents-5-2", Name: "Інші", Kind: scraper.KindDocument, DateFromLink: true}
	strategy := e.StrategyFor(cat, FilterToday)
	assert.True(t, strategy.Dated())

	cands := e.ExtractCategory(doc, cat, strategy)
	require.Len(t, cands, 2)
	assert.Equal(t, "04.02.2025", cands[0].Record.DateString())
	require.NotNil(t, cands[0].Date)
	assert.Nil(t, cands[1].Date)
}
