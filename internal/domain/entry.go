package domain

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one article discovered from a feed source during a single run.
// Entries are never persisted; only their identifiers are.
type Entry struct {
	GUID        string
	Source      string
	Title       string
	Link        string
	Body        string
	PublishedAt time.Time
}

// ID derives the stable identifier used for deduplication.
// Preference order: feed-provided GUID, canonical link, source+title composite.
func (e Entry) ID() string {
	if guid := strings.TrimSpace(e.GUID); guid != "" {
		return guid
	}
	if link := strings.TrimSpace(e.Link); link != "" {
		return link
	}
	return fmt.Sprintf("%s|%s", e.Source, strings.TrimSpace(e.Title))
}

// DeliveryStatus enumerates the outcome of processing one entry.
type DeliveryStatus string

const (
	// StatusDelivered means generation and publish both succeeded.
	StatusDelivered DeliveryStatus = "delivered"
	// StatusSkippedEmpty means no usable body text existed; the entry is
	// still marked seen so it is never retried.
	StatusSkippedEmpty DeliveryStatus = "skipped_empty"
	// StatusFailed means generation or publish failed; the entry stays
	// unseen and is retried on the next run.
	StatusFailed DeliveryStatus = "failed"
)

// Richness classifies how much source material an entry carries, which
// drives prompt selection.
type Richness string

const (
	RichnessRich   Richness = "rich"
	RichnessSparse Richness = "sparse"
)

// richBodyThreshold is the minimum body length (in runes) considered enough
// background material to summarize instead of writing general commentary.
const richBodyThreshold = 280

// ClassifyRichness decides whether an entry's body is substantial enough to
// ground a summarization prompt.
func ClassifyRichness(e Entry) Richness {
	body := strings.TrimSpace(e.Body)
	if len([]rune(body)) >= richBodyThreshold {
		return RichnessRich
	}
	return RichnessSparse
}

// RunReport aggregates per-entry outcomes of one pipeline pass.
type RunReport struct {
	Fetched   int
	New       int
	Delivered int
	Skipped   int
	Failed    int
}

// Record tallies a single outcome.
func (r *RunReport) Record(status DeliveryStatus) {
	switch status {
	case StatusDelivered:
		r.Delivered++
	case StatusSkippedEmpty:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}
