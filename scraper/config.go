package scraper

import "strings"

// Kind selects how rows in a category container are read.
type Kind string

const (
	// KindFeed rows carry a paragraph anchor and a time marker.
	KindFeed Kind = "feed"
	// KindReport rows link to a post page that holds the real download link.
	KindReport Kind = "report"
	// KindDocument rows are a description plus a download link.
	KindDocument Kind = "document"
)

// Category describes one tab on the listing page.
type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`
	// Tracked document links are remembered between runs and only reported
	// the first time they are seen. Tracked categories are never
	// date-filtered.
	Tracked bool `yaml:"tracked" json:"tracked"`
	// DateFromLink reads the publication date from a YYYY-MM-DD fragment of
	// the download URL instead of a time marker.
	DateFromLink bool `yaml:"date_from_link" json:"date_from_link"`
}

// SiteConfig defines where the listing lives and how to read it.
type SiteConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	ListingURL string `yaml:"listing_url" json:"listing_url"`
	UserAgent  string `yaml:"user_agent" json:"user_agent"`

	RowSelector         string `yaml:"row_selector" json:"row_selector"`
	TimeSelector        string `yaml:"time_selector" json:"time_selector"`
	TitleSelector       string `yaml:"title_selector" json:"title_selector"`
	ReportSelector      string `yaml:"report_selector" json:"report_selector"`
	DescriptionSelector string `yaml:"description_selector" json:"description_selector"`
	ContentSelector     string `yaml:"content_selector" json:"content_selector"`
	DownloadMarker      string `yaml:"download_marker" json:"download_marker"`

	DocumentExtensions []string `yaml:"document_extensions" json:"document_extensions"`
}

// DefaultSiteConfig returns the layout of bank.gov.ua as of 2025.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		BaseURL:             "https://bank.gov.ua",
		ListingURL:          "https://bank.gov.ua/#4-novyny",
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		RowSelector:         ".collection-item.post-inline",
		TimeSelector:        ".mark time",
		TitleSelector:       "p > a",
		ReportSelector:      "p a",
		DescriptionSelector: ".description",
		ContentSelector:     ".article-content",
		DownloadMarker:      "Завантажити",
		DocumentExtensions:  []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip"},
	}
}

// DefaultCategories returns the tabs of the news and documents sections.
func DefaultCategories() []Category {
	return []Category{
		{ID: "tabs-news-feed-4-0", Name: "Усі", Kind: KindFeed},
		{ID: "tabs-news-feed-4-1", Name: "Новини", Kind: KindFeed},
		{ID: "tabs-news-feed-4-2", Name: "Повідомлення", Kind: KindFeed},
		{ID: "tabs-news-feed-4-3", Name: "Пряма Мова", Kind: KindFeed},
		{ID: "tabs-documents-5-0", Name: "Останні Звіти", Kind: KindReport},
		{ID: "tabs-documents-5-1", Name: "Стратегічні Документи", Kind: KindDocument, Tracked: true},
		{ID: "tabs-documents-5-2", Name: "Інші", Kind: KindDocument, DateFromLink: true},
	}
}

// IsDocumentURL reports whether link points at a downloadable file rather
// than an HTML page. Query strings and fragments are ignored.
func (c SiteConfig) IsDocumentURL(link string) bool {
	path := strings.ToLower(link)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range c.DocumentExtensions {
		if strings.HasSuffix(path, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFeed, KindReport, KindDocument:
		return true
	}
	return false
}
