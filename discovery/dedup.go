package discovery

import "github.com/pevans/nbudigest/newsfeed"

const keySep = "\x00"

// DedupByLink drops candidates whose (link, category) was already seen.
// Reports have no link before enrichment, so their post page is used
// instead. Candidates with neither are always kept.
func DedupByLink(cands []Candidate) []Candidate {
	return dedup(cands, func(c Candidate) (string, bool) {
		link := c.Record.LinkString()
		if link == "" && c.Record.PostLink != nil {
			link = *c.Record.PostLink
		}
		if link == "" {
			return "", false
		}
		return link + keySep + c.Record.Category, true
	})
}

// DedupByContent drops records whose (title, date, content) was already
// seen, which catches the same article republished under several tabs.
func DedupByContent(records []newsfeed.NewsRecord) []newsfeed.NewsRecord {
	return dedup(records, func(r newsfeed.NewsRecord) (string, bool) {
		return r.Title + keySep + r.DateString() + keySep + r.Content.String(), true
	})
}

// dedup keeps the first item per key in input order. Items for which key
// reports false are never deduplicated.
func dedup[T any](items []T, key func(T) (string, bool)) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k, ok := key(item)
		if ok {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
