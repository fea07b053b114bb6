package discovery

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveLink verifies relative and absolute hrefs
func TestResolveLink(t *testing.T) {
	base, err := url.Parse("https://bank.gov.ua")
	require.NoError(t, err)

	tests := []struct {
		name string
		href string
		want string
	}{
		{"root relative", "/news/rate", "https://bank.gov.ua/news/rate"},
		{"relative", "news/rate", "https://bank.gov.ua/news/rate"},
		{"absolute", "https://example.com/x", "https://example.com/x"},
		{"http absolute", "http://bank.gov.ua/a.pdf", "http://bank.gov.ua/a.pdf"},
		{"protocol relative", "//cdn.bank.gov.ua/a.pdf", "https://cdn.bank.gov.ua/a.pdf"},
		{"whitespace", "  /news/rate\n", "https://bank.gov.ua/news/rate"},
		{"query kept", "/news?id=5", "https://bank.gov.ua/news?id=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLink(base, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolveLink_Errors verifies unusable hrefs produce errors, not panics
func TestResolveLink_Errors(t *testing.T) {
	base, _ := url.Parse("https://bank.gov.ua")

	_, err := ResolveLink(base, "")
	assert.ErrorIs(t, err, ErrEmptyHref)

	_, err = ResolveLink(base, "   ")
	assert.ErrorIs(t, err, ErrEmptyHref)

	_, err = ResolveLink(base, "/bad%zz")
	assert.Error(t, err)
}

// TestFindDownloadLink verifies the last marked anchor wins
func TestFindDownloadLink(t *testing.T) {
	base, _ := url.Parse("https://bank.gov.ua")
	doc := mustDoc(t, `<div>
		<a href="/about">Про НБУ</a>
		<a href="/files/first.pdf">Завантажити (pdf)</a>
		<a href="/files/second.pdf"> Завантажити </a>
	</div>`)

	assert.Equal(t, "https://bank.gov.ua/files/second.pdf",
		findDownloadLink(doc.Find("a"), "Завантажити", base))
	assert.Empty(t, findDownloadLink(doc.Find("a"), "Download", base))
}
