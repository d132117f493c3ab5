// Package fetch enriches collected items that arrived without a body
// by retrieving the linked page and extracting readable text.
package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"signalradar/internal/signal"
)

// bodies shorter than this are treated as boilerplate, not content
const minExtractedLen = 100

// Result holds the counters of one enrichment run.
type Result struct {
	Fetched    int
	AlreadyHad int
	Failed     int
}

// Enricher fills empty item bodies via HTTP plus readability
// extraction. Enrichment is best effort: an item keeps its empty body
// when the page cannot be fetched or yields no text.
type Enricher struct {
	client    *http.Client
	userAgent string
}

// New creates an Enricher. A zero timeout gets a sane default.
func New(timeout time.Duration) *Enricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Enricher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: "signalradar/1.0 (signal aggregator)",
	}
}

// Enrich fetches bodies for items that lack one, mutating the slice in
// place. Once a domain returns an HTTP error, the remaining items on
// that domain are skipped instead of hammering a host that is already
// refusing us.
func (e *Enricher) Enrich(items []signal.RawItem) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for i := range items {
		if items[i].Body != "" {
			result.AlreadyHad++
			continue
		}

		domain := hostOf(items[i].URL)
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		body, httpErr := e.fetchBody(items[i].URL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", items[i].URL, domain)
			continue
		}

		if body != "" {
			items[i].Body = body
			result.Fetched++
		} else {
			result.Failed++
			log.Printf("No extractable content from: %s", items[i].URL)
		}
	}

	log.Printf("Enrichment complete: %d fetched, %d already had content, %d failed",
		result.Fetched, result.AlreadyHad, result.Failed)
	return result
}

func (e *Enricher) fetchBody(pageURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(raw)), parsed)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) >= minExtractedLen {
		return text, nil
	}
	return "", nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
