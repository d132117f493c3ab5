package collect

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"signalradar/internal/signal"
)

const defaultTLDRBaseURL = "https://tldr.tech/infosec"

// TLDRCollector scrapes the TLDR InfoSec newsletter page. There is no
// official feed or API, so this parses the article markup directly and
// tolerates an empty result when the page layout changes.
type TLDRCollector struct {
	baseURL string
	client  *http.Client
	matcher *Matcher
}

// NewTLDRCollector creates a collector for the newsletter page.
func NewTLDRCollector(pageURL string, matcher *Matcher) *TLDRCollector {
	if pageURL == "" {
		pageURL = defaultTLDRBaseURL
	}
	return &TLDRCollector{
		baseURL: pageURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		matcher: matcher,
	}
}

// Collect fetches the latest newsletter and returns matching articles
// as conversation items attributed to the TLDR InfoSec publisher.
func (tc *TLDRCollector) Collect(ctx context.Context) []signal.RawItem {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.baseURL, nil)
	if err != nil {
		log.Printf("TLDR request error: %v", err)
		return nil
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		log.Printf("TLDR fetch error: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("TLDR HTTP error: %d", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("TLDR parse error: %v", err)
		return nil
	}

	items := tc.parseDocument(doc)
	log.Printf("TLDR InfoSec: %d relevant articles", len(items))
	return items
}

func (tc *TLDRCollector) parseDocument(doc *goquery.Document) []signal.RawItem {
	now := time.Now().UTC()
	var items []signal.RawItem

	sections := doc.Find("article")
	if sections.Length() == 0 {
		sections = doc.Find("div.article")
	}

	sections.Each(func(_ int, section *goquery.Selection) {
		title := strings.TrimSpace(section.Find("h2, h3").First().Text())
		if title == "" {
			return
		}
		summary := strings.TrimSpace(section.Find("p").First().Text())
		href, _ := section.Find("a").First().Attr("href")
		if href == "" {
			return
		}

		matched, category := tc.matcher.Match(title + " " + summary)
		if len(matched) == 0 {
			return
		}

		posted := now
		items = append(items, signal.RawItem{
			SourceID:        "tldr_infosec",
			Kind:            signal.KindConversation,
			EntityName:      "TLDR InfoSec",
			Title:           title,
			Body:            summary,
			URL:             href,
			PostedAt:        &posted,
			MatchedKeywords: matched,
			Category:        category,
		})
	})

	return items
}
