package signal

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the two signal streams.
type Kind string

const (
	KindHiring       Kind = "hiring"
	KindConversation Kind = "conversation"
)

// ParseKind parses a kind string, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hiring":
		return KindHiring, nil
	case "conversation":
		return KindConversation, nil
	}
	return "", fmt.Errorf("unknown signal kind: %q", s)
}

// Urgency expresses how time-sensitive a conversation signal is.
// Hiring signals are always UrgencyNormal.
type Urgency string

const (
	UrgencyBreaking Urgency = "breaking"
	UrgencyHigh     Urgency = "high"
	UrgencyNormal   Urgency = "normal"
	UrgencyLow      Urgency = "low"
)

// ParseUrgency maps a free-form urgency string to a known value,
// defaulting to UrgencyNormal.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breaking":
		return UrgencyBreaking
	case "high":
		return UrgencyHigh
	case "low":
		return UrgencyLow
	}
	return UrgencyNormal
}

// Confidence is the classifier's self-reported confidence.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps a free-form confidence string to a known value,
// defaulting to ConfidenceMedium.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "low":
		return ConfidenceLow
	}
	return ConfidenceMedium
}

// Source records which backend produced a classification.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// OtherCategory is the bucket for categories the backend returns that
// are not in the configured set.
const OtherCategory = "Other"

// RawItem is one observation from a source collector. Immutable once
// produced; owned by the pipeline run.
type RawItem struct {
	SourceID        string
	Kind            Kind
	EntityName      string
	Title           string
	Body            string
	URL             string
	PostedAt        *time.Time
	Engagement      int
	MatchedKeywords []string
	Category        string // provisional bucket from keyword matching
}

// Validate checks the required RawItem fields. Collectors conform to
// this one shape at the boundary; validation happens once, at ingestion.
func (r *RawItem) Validate() error {
	switch {
	case strings.TrimSpace(r.SourceID) == "":
		return fmt.Errorf("missing source_id")
	case r.Kind != KindHiring && r.Kind != KindConversation:
		return fmt.Errorf("unknown kind %q", r.Kind)
	case strings.TrimSpace(r.EntityName) == "":
		return fmt.Errorf("missing entity_name")
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("missing title")
	case strings.TrimSpace(r.URL) == "":
		return fmt.Errorf("missing url")
	}
	if r.Engagement < 0 {
		r.Engagement = 0
	}
	return nil
}

// ClassifiedItem is a RawItem plus classification output. Every field
// is complete the moment classification returns, so partially processed
// batches are always safe to export.
type ClassifiedItem struct {
	RawItem
	RelevanceScore       float64
	ClassifiedCategory   string
	Urgency              Urgency
	Confidence           Confidence
	ClassificationSource Source
}
