package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"signalradar/internal/signal"
)

const defaultAlgoliaBaseURL = "https://hn.algolia.com/api/v1"

const (
	maxHiringThreads  = 3
	hnCommentBodyCap  = 500
	companyNameMaxLen = 100
)

// HackerNewsCollector finds monthly "Who is hiring?" threads through
// the Algolia search API and extracts job posts that mention the
// configured hiring keywords.
type HackerNewsCollector struct {
	baseURL string
	query   string
	client  *http.Client
	matcher *Matcher
}

// NewHackerNewsCollector creates a collector using the public Algolia
// API. No authentication is required.
func NewHackerNewsCollector(query string, matcher *Matcher) *HackerNewsCollector {
	if query == "" {
		query = "hiring"
	}
	return &HackerNewsCollector{
		baseURL: defaultAlgoliaBaseURL,
		query:   query,
		client:  &http.Client{Timeout: 30 * time.Second},
		matcher: matcher,
	}
}

type algoliaSearchResult struct {
	Hits []struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		CreatedAtI  int64  `json:"created_at_i"`
		NumComments int    `json:"num_comments"`
	} `json:"hits"`
}

type algoliaItem struct {
	ID         int64         `json:"id"`
	Author     string        `json:"author"`
	Text       string        `json:"text"`
	Points     int           `json:"points"`
	CreatedAtI int64         `json:"created_at_i"`
	Children   []algoliaItem `json:"children"`
}

// Collect searches for recent hiring threads and returns the matching
// job posts as hiring items. Network failures log and return what was
// gathered so far.
func (hc *HackerNewsCollector) Collect(ctx context.Context, daysBack int) []signal.RawItem {
	threads := hc.searchThreads(ctx, daysBack)
	if len(threads) == 0 {
		log.Println("No hiring threads found on HackerNews")
		return nil
	}
	if len(threads) > maxHiringThreads {
		threads = threads[:maxHiringThreads]
	}

	var items []signal.RawItem
	for _, id := range threads {
		comments := hc.threadComments(ctx, id)
		for _, c := range comments {
			if item := hc.parseComment(c); item != nil {
				items = append(items, *item)
			}
		}
	}
	log.Printf("HackerNews: %d job posts from %d threads", len(items), len(threads))
	return items
}

func (hc *HackerNewsCollector) searchThreads(ctx context.Context, daysBack int) []string {
	params := url.Values{
		"query":       {hc.query},
		"tags":        {"(story,ask_hn)"},
		"hitsPerPage": {"30"},
	}

	var result algoliaSearchResult
	if err := hc.getJSON(ctx, "/search?"+params.Encode(), &result); err != nil {
		log.Printf("HackerNews search error: %v", err)
		return nil
	}

	// Hiring threads run monthly, so the lookback is generous.
	cutoff := time.Now().AddDate(0, 0, -daysBack-60)

	var ids []string
	for _, hit := range result.Hits {
		title := strings.ToLower(hit.Title)
		created := time.Unix(hit.CreatedAtI, 0)
		if !strings.Contains(title, "hiring") || created.Before(cutoff) {
			continue
		}
		if !strings.Contains(title, "who") && !strings.Contains(title, "freelancer") && !strings.Contains(title, "seeking") {
			continue
		}
		ids = append(ids, hit.ObjectID)
	}
	return ids
}

func (hc *HackerNewsCollector) threadComments(ctx context.Context, storyID string) []algoliaItem {
	var root algoliaItem
	if err := hc.getJSON(ctx, "/items/"+storyID, &root); err != nil {
		log.Printf("HackerNews thread %s error: %v", storyID, err)
		return nil
	}

	var comments []algoliaItem
	var walk func(item algoliaItem, depth int)
	walk = func(item algoliaItem, depth int) {
		// depth 0 is the story itself
		if depth > 0 && item.Text != "" {
			comments = append(comments, item)
		}
		for _, child := range item.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return comments
}

func (hc *HackerNewsCollector) parseComment(c algoliaItem) *signal.RawItem {
	text := StripHTML(c.Text)
	matched, category := hc.matcher.Match(text)
	if len(matched) == 0 {
		return nil
	}

	company := ExtractCompanyName(text)
	if company == "" {
		return nil
	}

	body := text
	if len(body) > hnCommentBodyCap {
		body = body[:hnCommentBodyCap]
	}

	posted := time.Unix(c.CreatedAtI, 0).UTC()

	return &signal.RawItem{
		SourceID:        "hackernews",
		Kind:            signal.KindHiring,
		EntityName:      company,
		Title:           firstLine(text),
		Body:            body,
		URL:             fmt.Sprintf("https://news.ycombinator.com/item?id=%d", c.ID),
		PostedAt:        &posted,
		Engagement:      c.Points,
		MatchedKeywords: matched,
		Category:        category,
	}
}

func (hc *HackerNewsCollector) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := hc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var (
	companyPattern = regexp.MustCompile(`^([A-Z][a-zA-Z0-9\s&.]+?)\s*[|(]`)
	leadingVerbs   = regexp.MustCompile(`(?i)^(at|join|hiring|seeking)\s+`)
)

// ExtractCompanyName pulls the company from the conventional job post
// header "Company (https://...) | Location | Role". Returns "" when no
// company-shaped prefix is found.
func ExtractCompanyName(text string) string {
	match := companyPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	company := strings.TrimSpace(match[1])
	company = leadingVerbs.ReplaceAllString(company, "")
	company = strings.TrimSpace(company)
	if len(company) > companyNameMaxLen {
		company = company[:companyNameMaxLen]
	}
	return company
}

func firstLine(text string) string {
	if idx := strings.IndexAny(text, "\n"); idx > 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	const maxTitle = 140
	if len(text) > maxTitle {
		text = text[:maxTitle]
	}
	return text
}
