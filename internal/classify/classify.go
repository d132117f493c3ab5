// Package classify scores raw signals for relevance, category, and
// urgency using a pluggable live backend with quota-aware fallback.
package classify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"signalradar/internal/signal"
)

const hiringPrompt = `Analyze this job posting for relevance to SaaS Security:

Company: %s
Job Title: %s
Matched Keywords: %s
Description: %s

Evaluate:
1. Relevance score (0.0 to 1.0) - How relevant is this to SaaS security, SSPM, SaaS compliance, or AI agent security?
2. Best category: %s
3. Confidence level: high, medium, or low

Return ONLY valid JSON with this exact structure (no markdown):
{
    "relevance_score": 0.85,
    "category": "SSPM",
    "confidence": "high"
}

Scoring guide:
- 0.9-1.0: Directly related to SaaS security/SSPM/compliance
- 0.7-0.9: Cloud/app security with SaaS components
- 0.5-0.7: General security role at a SaaS company
- 0.3-0.5: Tangentially related
- 0.0-0.3: Not relevant`

const conversationPrompt = `Analyze this cybersecurity content for relevance to SaaS Security:

Source: %s
Title: %s
Matched Keywords: %s
Content: %s

Evaluate:
1. Relevance score (0.0 to 1.0) - How relevant is this to SaaS security, SSPM, SaaS breaches, or AI agent security?
2. Best category: %s
3. Urgency: "breaking" (active breach/critical news), "high" (important update), "normal" (general discussion), or "low" (not timely)
4. Confidence level: high, medium, or low

Return ONLY valid JSON with this exact structure (no markdown):
{
    "relevance_score": 0.85,
    "category": "SaaS Security",
    "urgency": "high",
    "confidence": "high"
}

Scoring guide:
- 0.9-1.0: Active SaaS breach, critical SSPM vulnerability, major AI agent security issue
- 0.7-0.9: Important SaaS security news, SSPM product launches, compliance updates
- 0.5-0.7: General SaaS security discussion, tool recommendations
- 0.3-0.5: Tangentially related cloud/security topics
- 0.0-0.3: Not relevant to SaaS security`

// Result holds the audit counts for a classification run.
type Result struct {
	Processed     int
	Live          int
	Fallback      int
	QuotaTripped  bool
	TransientErrs int
}

// Options are the tunable classifier parameters.
type Options struct {
	HiringCategories       []string
	ConversationCategories []string
	MaxTokens              int
	RateLimitInterval      time.Duration
	RetryDelay             time.Duration
}

// Classifier scores raw items. All run-scoped mutable state (the sticky
// fallback flag and the rate-limit clock) lives here; create one
// Classifier per pipeline invocation.
type Classifier struct {
	provider Provider
	opts     Options

	sticky       bool
	lastLiveCall time.Time

	// sleep is swappable so tests do not wait out real delays.
	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a classifier for one run. A nil provider means every item
// takes the heuristic fallback path.
func New(provider Provider, opts Options) *Classifier {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 200
	}
	return &Classifier{
		provider: provider,
		opts:     opts,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// ClassifyAll classifies a batch, preserving input order. It is total:
// every failure degrades to a fallback result instead of propagating.
func (c *Classifier) ClassifyAll(ctx context.Context, items []signal.RawItem) ([]signal.ClassifiedItem, *Result) {
	out := make([]signal.ClassifiedItem, 0, len(items))
	r := &Result{}

	for _, item := range items {
		classified := c.Classify(ctx, item)
		out = append(out, classified)
		r.Processed++
		if classified.ClassificationSource == signal.SourceLive {
			r.Live++
		} else {
			r.Fallback++
		}
	}

	r.QuotaTripped = c.sticky
	log.Printf("Classification complete: %d processed (%d live, %d fallback)",
		r.Processed, r.Live, r.Fallback)
	return out, r
}

// Classify scores a single item. Never returns an error; quota
// exhaustion flips the run into sticky fallback, transient failures
// retry once then fall back for this item only.
func (c *Classifier) Classify(ctx context.Context, item signal.RawItem) signal.ClassifiedItem {
	if c.provider == nil || c.sticky {
		return heuristicScore(item)
	}

	classified, err := c.attemptLive(ctx, item)
	if err == nil {
		return classified
	}

	if IsQuotaError(err) {
		// Quota exhaustion is monotonic within a batch window; stop
		// probing for the remainder of the run.
		log.Printf("Backend quota exhausted; falling back for the rest of this batch: %v", err)
		c.sticky = true
		return heuristicScore(item)
	}

	// Transient: retry once after a fixed delay.
	log.Printf("Transient backend error, retrying once: %v", err)
	c.sleep(c.opts.RetryDelay)

	classified, err = c.attemptLive(ctx, item)
	if err == nil {
		return classified
	}
	if IsQuotaError(err) {
		log.Printf("Backend quota exhausted on retry; falling back for the rest of this batch: %v", err)
		c.sticky = true
		return heuristicScore(item)
	}

	log.Printf("Backend failed after retry, using fallback for item %q: %v", item.Title, err)
	return heuristicScore(item)
}

// attemptLive makes one paced backend call and parses its output.
func (c *Classifier) attemptLive(ctx context.Context, item signal.RawItem) (signal.ClassifiedItem, error) {
	c.pace()

	prompt := c.buildPrompt(item)
	c.lastLiveCall = c.now()
	text, err := c.provider.Generate(ctx, prompt, c.opts.MaxTokens)
	if err != nil {
		return signal.ClassifiedItem{}, err
	}

	parsed := ParseJSONResponse(text)
	if parsed == nil {
		return signal.ClassifiedItem{}, fmt.Errorf("unparseable backend response")
	}

	return c.fromBackend(item, parsed), nil
}

// pace enforces the minimum inter-call spacing for the live path.
// Provider quotas are measured over a sliding window, so spacing is
// required even though calls are synchronous.
func (c *Classifier) pace() {
	if c.opts.RateLimitInterval <= 0 || c.lastLiveCall.IsZero() {
		return
	}
	elapsed := c.now().Sub(c.lastLiveCall)
	if wait := c.opts.RateLimitInterval - elapsed; wait > 0 {
		c.sleep(wait)
	}
}

func (c *Classifier) buildPrompt(item signal.RawItem) string {
	body := item.Body
	if body == "" {
		body = item.Title
	}
	if len(body) > 500 {
		body = body[:500]
	}
	keywords := strings.Join(item.MatchedKeywords, ", ")

	if item.Kind == signal.KindHiring {
		return fmt.Sprintf(hiringPrompt,
			item.EntityName, item.Title, keywords, body,
			strings.Join(c.opts.HiringCategories, ", "))
	}
	return fmt.Sprintf(conversationPrompt,
		item.SourceID, item.Title, keywords, body,
		strings.Join(c.opts.ConversationCategories, ", "))
}

// fromBackend converts parsed backend output into a ClassifiedItem,
// clamping scores and mapping unknown categories to Other.
func (c *Classifier) fromBackend(item signal.RawItem, parsed map[string]any) signal.ClassifiedItem {
	score := clampScore(getFloat(parsed, "relevance_score", 0.5))

	category, ok := c.canonicalCategory(item.Kind, getString(parsed, "category", item.Category))
	if !ok {
		category = signal.OtherCategory
	}

	urgency := signal.UrgencyNormal
	if item.Kind == signal.KindConversation {
		urgency = signal.ParseUrgency(getString(parsed, "urgency", "normal"))
	}

	return signal.ClassifiedItem{
		RawItem:              item,
		RelevanceScore:       score,
		ClassifiedCategory:   category,
		Urgency:              urgency,
		Confidence:           signal.ParseConfidence(getString(parsed, "confidence", "medium")),
		ClassificationSource: signal.SourceLive,
	}
}

// canonicalCategory maps a backend category string onto the configured
// bucket set, case-insensitively.
func (c *Classifier) canonicalCategory(kind signal.Kind, category string) (string, bool) {
	set := c.opts.ConversationCategories
	if kind == signal.KindHiring {
		set = c.opts.HiringCategories
	}
	for _, known := range set {
		if strings.EqualFold(known, category) {
			return known, true
		}
	}
	return category, false
}
