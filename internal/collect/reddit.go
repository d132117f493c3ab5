package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"signalradar/internal/signal"
)

const defaultRedditBaseURL = "https://www.reddit.com"

// keywords searched per bucket per subreddit; keeps the request count
// under the public API's unauthenticated rate limit
const redditKeywordsPerBucket = 3

// RedditCollector searches target subreddits through the public JSON
// listing API. No OAuth app is required, but reddit rejects requests
// without a descriptive User-Agent.
type RedditCollector struct {
	baseURL    string
	subreddits []string
	userAgent  string
	client     *http.Client
	matcher    *Matcher
}

// NewRedditCollector creates a collector over the given subreddits.
func NewRedditCollector(subreddits []string, userAgent string, matcher *Matcher) *RedditCollector {
	if userAgent == "" {
		userAgent = "signalradar/1.0"
	}
	return &RedditCollector{
		baseURL:    defaultRedditBaseURL,
		subreddits: subreddits,
		userAgent:  userAgent,
		client:     &http.Client{Timeout: 30 * time.Second},
		matcher:    matcher,
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
}

// Collect searches every subreddit for the configured conversation
// keywords. A failing subreddit or query is logged and skipped.
func (rc *RedditCollector) Collect(ctx context.Context) []signal.RawItem {
	seen := make(map[string]struct{})
	var items []signal.RawItem

	for _, sub := range rc.subreddits {
		for _, kw := range rc.searchTerms() {
			posts, err := rc.search(ctx, sub, kw)
			if err != nil {
				log.Printf("Reddit search r/%s %q: %v", sub, kw, err)
				continue
			}
			for _, post := range posts {
				if _, dup := seen[post.Permalink]; dup {
					continue
				}
				seen[post.Permalink] = struct{}{}
				if item := rc.parsePost(post); item != nil {
					items = append(items, *item)
				}
			}
		}
	}

	log.Printf("Reddit: %d conversations from %d subreddits", len(items), len(rc.subreddits))
	return items
}

func (rc *RedditCollector) searchTerms() []string {
	var terms []string
	for _, name := range sortedBucketNames(rc.matcher.buckets) {
		kws := rc.matcher.buckets[name]
		if len(kws) > redditKeywordsPerBucket {
			kws = kws[:redditKeywordsPerBucket]
		}
		terms = append(terms, kws...)
	}
	return terms
}

func (rc *RedditCollector) search(ctx context.Context, subreddit, query string) ([]redditPost, error) {
	params := url.Values{
		"q":           {query},
		"restrict_sr": {"1"},
		"t":           {"week"},
		"sort":        {"relevance"},
		"limit":       {"25"},
	}

	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", rc.baseURL, subreddit, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func (rc *RedditCollector) parsePost(post redditPost) *signal.RawItem {
	title := strings.TrimSpace(post.Title)
	if title == "" || post.Author == "" || post.Author == "[deleted]" {
		return nil
	}

	body := post.Selftext
	const bodyCap = 1000
	if len(body) > bodyCap {
		body = body[:bodyCap]
	}

	matched, category := rc.matcher.Match(title + " " + body)
	if len(matched) == 0 {
		return nil
	}

	posted := time.Unix(int64(post.CreatedUTC), 0).UTC()

	// The contributor is the entity for conversation ranking; the
	// subreddit rides along in the source id.
	return &signal.RawItem{
		SourceID:        "reddit:" + post.Subreddit,
		Kind:            signal.KindConversation,
		EntityName:      post.Author,
		Title:           title,
		Body:            body,
		URL:             "https://reddit.com" + post.Permalink,
		PostedAt:        &posted,
		Engagement:      post.Score + post.NumComments,
		MatchedKeywords: matched,
		Category:        category,
	}
}

func sortedBucketNames(buckets map[string][]string) []string {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
