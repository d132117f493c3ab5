// Package collect gathers raw hiring and conversation signals from the
// configured sources: publisher RSS feeds, HackerNews hiring threads,
// Reddit discussions, and the TLDR InfoSec newsletter.
package collect

import (
	"context"
	"log"

	"signalradar/internal/config"
	"signalradar/internal/signal"
)

// Result summarizes one collection run.
type Result struct {
	TotalFound int
	Valid      int
	Rejected   int
	Sources    map[string]int
}

// Collector orchestrates all configured source collectors. Each source
// is independent: one failing never aborts the run, it just contributes
// zero items.
type Collector struct {
	feeds      *FeedCollector
	hackerNews *HackerNewsCollector
	reddit     *RedditCollector
	tldr       *TLDRCollector
	daysBack   int
}

// New wires up collectors from the sources configuration.
func New(cfg *config.Config, daysBack int) *Collector {
	hiringMatcher := NewMatcher(cfg.Keywords.Hiring)
	conversationMatcher := NewMatcher(cfg.Keywords.Conversation)

	c := &Collector{daysBack: daysBack}

	if len(cfg.Sources.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
		for i, f := range cfg.Sources.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feeds = NewFeedCollector(feeds, conversationMatcher)
	}
	if cfg.Sources.HackerNews.Enabled {
		c.hackerNews = NewHackerNewsCollector(cfg.Sources.HackerNews.Query, hiringMatcher)
	}
	if cfg.Sources.Reddit.Enabled && len(cfg.Sources.Reddit.Subreddits) > 0 {
		c.reddit = NewRedditCollector(cfg.Sources.Reddit.Subreddits, cfg.Sources.Reddit.UserAgent, conversationMatcher)
	}
	if cfg.Sources.TLDR.Enabled {
		c.tldr = NewTLDRCollector(cfg.Sources.TLDR.URL, conversationMatcher)
	}

	return c
}

// Collect runs every configured source and returns the validated
// items plus run counters. Items that fail validation are dropped and
// counted, never propagated.
func (c *Collector) Collect(ctx context.Context) ([]signal.RawItem, *Result) {
	r := &Result{Sources: make(map[string]int)}
	var gathered []signal.RawItem

	if c.hackerNews != nil {
		log.Println("Collecting from HackerNews hiring threads...")
		gathered = append(gathered, c.hackerNews.Collect(ctx, c.daysBack)...)
	}
	if c.feeds != nil {
		log.Println("Collecting from publisher feeds...")
		gathered = append(gathered, c.feeds.Collect(ctx, c.daysBack)...)
	}
	if c.reddit != nil {
		log.Println("Collecting from Reddit...")
		gathered = append(gathered, c.reddit.Collect(ctx)...)
	}
	if c.tldr != nil {
		log.Println("Collecting from TLDR InfoSec...")
		gathered = append(gathered, c.tldr.Collect(ctx)...)
	}

	r.TotalFound = len(gathered)

	valid := make([]signal.RawItem, 0, len(gathered))
	for i := range gathered {
		if err := gathered[i].Validate(); err != nil {
			log.Printf("Dropping invalid item from %s: %v", gathered[i].SourceID, err)
			r.Rejected++
			continue
		}
		valid = append(valid, gathered[i])
		r.Sources[gathered[i].SourceID]++
	}
	r.Valid = len(valid)

	log.Printf("Collection complete: %d found, %d valid, %d rejected", r.TotalFound, r.Valid, r.Rejected)
	return valid, r
}
