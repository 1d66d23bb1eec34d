// Package ingestion defines the request/response types and the Kafka event
// schema used by the article ingestion pipeline.
package ingestion

import "time"

// EventArticleIngested is the type tag of ArticleIngestedEvent.
const EventArticleIngested = "article_ingested"

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
// Text holds the four header lines followed by the body.
type IngestRequest struct {
	Text string `json:"text"`
}

// IngestResponse is returned once an article is stored.
type IngestResponse struct {
	ArticleID   int64  `json:"article_id"`
	Title       string `json:"title"`
	PublishedOn string `json:"published_on"`
	Newspaper   string `json:"newspaper"`
	Reporter    string `json:"reporter"`
	Paragraphs  int    `json:"paragraphs"`
	Words       int    `json:"words"`
	Tokens      int    `json:"tokens"`
	Status      string `json:"status"`
}

// ArticleIngestedEvent is published after an article commits. The searcher
// uses it to drop corpus-wide cache entries; analytics counts it.
type ArticleIngestedEvent struct {
	Type        string    `json:"type"`
	ArticleID   int64     `json:"article_id"`
	Title       string    `json:"title"`
	Newspaper   string    `json:"newspaper"`
	Reporter    string    `json:"reporter"`
	PublishedOn string    `json:"published_on"`
	Words       int       `json:"words"`
	Tokens      int       `json:"tokens"`
	LatencyMs   int64     `json:"latency_ms"`
	IngestedAt  time.Time `json:"ingested_at"`
	RequestID   string    `json:"request_id,omitempty"`
}
