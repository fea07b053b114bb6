package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIsDocumentURL verifies extension matching on download links
func TestIsDocumentURL(t *testing.T) {
	cfg := DefaultSiteConfig()

	tests := []struct {
		link string
		want bool
	}{
		{"https://bank.gov.ua/admin_uploads/article/report.pdf", true},
		{"https://bank.gov.ua/admin_uploads/article/REPORT.PDF", true},
		{"https://bank.gov.ua/admin_uploads/article/tables.xlsx?v=4", true},
		{"https://bank.gov.ua/ua/news/all/rate", false},
		{"https://bank.gov.ua/ua/news/all/pdf-guide", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.IsDocumentURL(tt.link), tt.link)
	}
}

// TestDefaultCategories verifies the default tab table is consistent
func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	assert.Len(t, cats, 7)

	seen := map[string]bool{}
	for _, c := range cats {
		assert.True(t, c.Kind.Valid(), c.Name)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
		if c.Tracked {
			assert.Equal(t, KindDocument, c.Kind)
		}
	}
}
