// Package dedupe collapses near-duplicate classified items within a
// run: identical normalized URLs, or same entity plus near-identical
// titles.
package dedupe

import (
	"log"
	"net/url"
	"strings"

	"signalradar/internal/entity"
	"signalradar/internal/signal"
)

// DefaultTitleSimilarityThreshold is the token overlap ratio above
// which two titles for the same entity count as duplicates.
const DefaultTitleSimilarityThreshold = 0.8

// Deduper removes duplicates, keeping the earliest-seen item per group.
type Deduper struct {
	threshold float64
}

// New creates a Deduper with the given title-similarity threshold.
func New(threshold float64) *Deduper {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultTitleSimilarityThreshold
	}
	return &Deduper{threshold: threshold}
}

// Dedupe returns the survivors in first-seen order. Deterministic given
// the same input order; items of different kinds never collapse.
// Engagement and relevance of dropped duplicates are discarded, not
// merged.
func (d *Deduper) Dedupe(items []signal.ClassifiedItem) []signal.ClassifiedItem {
	type survivor struct {
		entityKey   string
		titleTokens map[string]struct{}
	}

	seenURLs := make(map[string]int)       // normalized URL -> survivor index
	byKind := make(map[signal.Kind][]survivor)
	var out []signal.ClassifiedItem

	dropped := 0
	for _, item := range items {
		nu := NormalizeURL(item.URL)
		if _, ok := seenURLs[kindURLKey(item.Kind, nu)]; ok {
			dropped++
			continue
		}

		key := entity.Normalize(item.EntityName)
		tokens := titleTokens(item.Title)

		dup := false
		for _, s := range byKind[item.Kind] {
			if s.entityKey == key && overlapRatio(tokens, s.titleTokens) >= d.threshold {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			continue
		}

		seenURLs[kindURLKey(item.Kind, nu)] = len(out)
		byKind[item.Kind] = append(byKind[item.Kind], survivor{entityKey: key, titleTokens: tokens})
		out = append(out, item)
	}

	if dropped > 0 {
		log.Printf("Dedupe: dropped %d duplicates, %d items remain", dropped, len(out))
	}
	return out
}

func kindURLKey(kind signal.Kind, normalizedURL string) string {
	return string(kind) + "|" + normalizedURL
}

// NormalizeURL strips query, fragment, and trailing slash, and
// lower-cases scheme and host, so the same article surfaced by two
// collectors compares equal.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

func titleTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ".,!?:;\"'()-[]|")
		if word != "" {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// overlapRatio is the shared token count over the smaller title's
// token count; paraphrased republications usually keep most of the
// shorter title's tokens.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	common := 0
	for token := range small {
		if _, ok := large[token]; ok {
			common++
		}
	}
	return float64(common) / float64(len(small))
}
