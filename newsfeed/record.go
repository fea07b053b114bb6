package newsfeed

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status names the outcome of fetching a record's body.
type Status string

const (
	// StatusText means the article body was extracted.
	StatusText Status = "text"
	// StatusDocument means the record points at a downloadable file; Text
	// holds its URL.
	StatusDocument Status = "document"
	// StatusAbsent means a report post page had no download link.
	StatusAbsent Status = "absent"
	// StatusNoLink means the record never had a link to follow.
	StatusNoLink Status = "no_link"
	// StatusMissing means the page loaded but had no content region.
	StatusMissing Status = "missing"
	// StatusFetchFailed means the page could not be retrieved.
	StatusFetchFailed Status = "fetch_failed"
)

// Content is the enrichment outcome for a record.
type Content struct {
	Status Status `json:"status"`
	Text   string `json:"text,omitempty"`
}

// TextContent wraps an extracted article body.
func TextContent(body string) *Content {
	return &Content{Status: StatusText, Text: body}
}

// DocumentContent wraps a document download URL.
func DocumentContent(link string) *Content {
	return &Content{Status: StatusDocument, Text: link}
}

// FailedContent records a non-text outcome.
func FailedContent(status Status) *Content {
	return &Content{Status: status}
}

// Usable reports whether the record should survive enrichment. Missing and
// failed bodies are dropped.
func (c *Content) Usable() bool {
	if c == nil {
		return false
	}
	return c.Status != StatusMissing && c.Status != StatusFetchFailed
}

// String renders the outcome as the text shown to readers.
func (c *Content) String() string {
	if c == nil {
		return ""
	}
	switch c.Status {
	case StatusText:
		return c.Text
	case StatusDocument:
		if strings.HasSuffix(strings.ToLower(c.Text), ".pdf") {
			return "PDF-файл: " + c.Text
		}
		return "Документ: " + c.Text
	case StatusAbsent:
		return "Контент відсутній."
	case StatusNoLink:
		return "Посилання відсутнє."
	case StatusMissing:
		return "Текст новини відсутній."
	case StatusFetchFailed:
		return "Не вдалося отримати текст новини."
	}
	return c.Text
}

// NewsRecord is one extracted news item or document.
type NewsRecord struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Link  *string   `json:"link"`
	// PostLink is the report page that holds the final download link.
	PostLink *string  `json:"post_link,omitempty"`
	Date     *string  `json:"date"`
	Category string   `json:"category"`
	Content  *Content `json:"content"`
	IsReport bool     `json:"is_report,omitempty"`
	Summary  string   `json:"summary,omitempty"`

	DiscoveredAt time.Time  `json:"discovered_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// LinkString returns the link or an empty string.
func (r *NewsRecord) LinkString() string {
	if r.Link == nil {
		return ""
	}
	return *r.Link
}

// DateString returns the display date or an empty string.
func (r *NewsRecord) DateString() string {
	if r.Date == nil {
		return ""
	}
	return *r.Date
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
