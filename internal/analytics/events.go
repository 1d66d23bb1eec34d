package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion"
)

type EventType string

const (
	EventQuery           EventType = "query"
	EventArticleIngested EventType = ingestion.EventArticleIngested
)

// QueryEvent describes one read query served by the searcher.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Kind      string    `json:"kind"`
	Term      string    `json:"term"`
	Hits      int       `json:"hits"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Failed    bool      `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// ArticleEvent is the subset of ingestion.ArticleIngestedEvent analytics
// keeps.
type ArticleEvent struct {
	Type       EventType `json:"type"`
	ArticleID  int64     `json:"article_id"`
	Title      string    `json:"title"`
	Newspaper  string    `json:"newspaper"`
	Words      int       `json:"words"`
	Tokens     int       `json:"tokens"`
	LatencyMs  int64     `json:"latency_ms"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Decode reads the type tag of a message and returns a QueryEvent or an
// ArticleEvent.
func Decode(value []byte) (any, error) {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	switch envelope.Type {
	case EventQuery:
		var e QueryEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("decoding query event: %w", err)
		}
		return e, nil
	case EventArticleIngested:
		var e ArticleEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("decoding article event: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}
