package collect

import (
	"sort"
	"strings"
)

// Matcher checks raw text against the configured keyword buckets and
// tags matches with the bucket name they came from.
type Matcher struct {
	// bucket name -> lower-cased keywords
	buckets map[string][]string
}

// NewMatcher builds a Matcher from a category -> keywords map.
func NewMatcher(buckets map[string][]string) *Matcher {
	lowered := make(map[string][]string, len(buckets))
	for name, kws := range buckets {
		ls := make([]string, 0, len(kws))
		for _, kw := range kws {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				ls = append(ls, kw)
			}
		}
		lowered[name] = ls
	}
	return &Matcher{buckets: lowered}
}

// Match returns all keywords found in text and the bucket that matched
// most of them. Ties and the empty case resolve alphabetically so the
// result is stable across runs.
func (m *Matcher) Match(text string) (matched []string, category string) {
	lower := strings.ToLower(text)
	counts := make(map[string]int)

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]struct{})
	for _, name := range names {
		for _, kw := range m.buckets[name] {
			if strings.Contains(lower, kw) {
				counts[name]++
				if _, dup := seen[kw]; !dup {
					seen[kw] = struct{}{}
					matched = append(matched, kw)
				}
			}
		}
	}
	sort.Strings(matched)

	best := 0
	for _, name := range names {
		if counts[name] > best {
			best = counts[name]
			category = name
		}
	}
	return matched, category
}

// Relevant reports whether the text matches at least one keyword.
func (m *Matcher) Relevant(text string) bool {
	kws, _ := m.Match(text)
	return len(kws) > 0
}
