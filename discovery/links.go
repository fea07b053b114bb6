package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyHref is returned when there is nothing to resolve.
var ErrEmptyHref = errors.New("empty href")

// ResolveLink turns href into an absolute URL. Hrefs that already carry a
// scheme are returned unchanged.
func ResolveLink(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", ErrEmptyHref
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	if ref.Scheme != "" {
		return href, nil
	}
	return base.ResolveReference(ref).String(), nil
}

// findDownloadLink returns the resolved href of the last anchor whose text
// contains marker, or "" when none does.
func findDownloadLink(anchors *goquery.Selection, marker string, base *url.URL) string {
	var link string
	anchors.Each(func(_ int, a *goquery.Selection) {
		if !strings.Contains(strings.TrimSpace(a.Text()), marker) {
			return
		}
		href, _ := a.Attr("href")
		if resolved, err := ResolveLink(base, href); err == nil {
			link = resolved
		}
	})
	return link
}
