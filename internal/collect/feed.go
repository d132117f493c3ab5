package collect

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"signalradar/internal/signal"
)

const maxPerFeed = 25

// FeedConfig is one publisher feed to poll.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedCollector polls publisher RSS/Atom feeds for conversation
// signals. The publisher itself is the entity: coverage volume per
// outlet is the signal being measured.
type FeedCollector struct {
	feeds   []FeedConfig
	matcher *Matcher
}

// NewFeedCollector creates a collector over the given feeds.
func NewFeedCollector(feeds []FeedConfig, matcher *Matcher) *FeedCollector {
	return &FeedCollector{feeds: feeds, matcher: matcher}
}

// Collect parses every configured feed and returns the entries that
// match at least one conversation keyword. A feed that fails to parse
// is logged and skipped; one dead publisher never aborts the run.
func (fc *FeedCollector) Collect(ctx context.Context, daysBack int) []signal.RawItem {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	parser := gofeed.NewParser()

	var items []signal.RawItem
	for _, feed := range fc.feeds {
		name := feed.Name
		if name == "" {
			name = publisherFromURL(feed.URL)
		}

		entries, err := fc.parseFeed(ctx, parser, feed.URL, name, cutoff)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", feed.URL, err)
			continue
		}
		items = append(items, entries...)
		log.Printf("Parsed %d relevant entries from %s", len(entries), name)
	}
	return items
}

func (fc *FeedCollector) parseFeed(ctx context.Context, parser *gofeed.Parser, feedURL, publisher string, cutoff time.Time) ([]signal.RawItem, error) {
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var items []signal.RawItem
	for _, entry := range feed.Items {
		if len(items) >= maxPerFeed {
			break
		}
		item := fc.parseEntry(entry, publisher)
		if item == nil {
			continue
		}
		if item.PostedAt != nil && item.PostedAt.Before(cutoff) {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

func (fc *FeedCollector) parseEntry(entry *gofeed.Item, publisher string) *signal.RawItem {
	link := entry.Link
	if link == "" {
		link = entry.GUID
	}
	title := strings.TrimSpace(entry.Title)
	if link == "" || title == "" {
		return nil
	}

	var body string
	if entry.Content != "" {
		body = StripHTML(entry.Content)
	} else if entry.Description != "" {
		body = StripHTML(entry.Description)
	}

	matched, category := fc.matcher.Match(title + " " + body)
	if len(matched) == 0 {
		return nil
	}

	var posted *time.Time
	if entry.PublishedParsed != nil {
		posted = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		posted = entry.UpdatedParsed
	}

	return &signal.RawItem{
		SourceID:        "rss:" + publisher,
		Kind:            signal.KindConversation,
		EntityName:      publisher,
		Title:           title,
		Body:            body,
		URL:             link,
		PostedAt:        posted,
		MatchedKeywords: matched,
		Category:        category,
	}
}

// StripHTML removes tags and decodes common entities from feed bodies.
func StripHTML(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	s := b.String()
	for entity, repl := range map[string]string{
		"&nbsp;": " ", "&amp;": "&", "&lt;": "<",
		"&gt;": ">", "&quot;": `"`, "&#39;": "'", "&#x27;": "'",
	} {
		s = strings.ReplaceAll(s, entity, repl)
	}

	return strings.Join(strings.Fields(s), " ")
}

func publisherFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	if name == "" {
		return feedURL
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
