// Package archivetest seeds an in-memory archive with a small sample corpus
// for tests.
package archivetest

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store/memory"
)

// Titles of the sample articles.
const (
	JordanTitle  = "Jordan River Talks"
	MarketTitle  = "Market Update"
	WeatherTitle = "Weather Report"
)

// JordanBody is the body of the Jordan article exactly as reconstructed.
const JordanBody = "Leaders met near the Jordan river.\nTalks lasted hours.\n\n\"We agree,\" said one leader.\nOthers disagreed."

// Articles is the sample corpus in ingestion order.
var Articles = []string{
	JordanTitle + "\nJane Doe, John Roe\nDaily Gazette\nMarch 3, 2021\n\n" + JordanBody,
	MarketTitle + "\nJohn Roe\nEvening Post\nMarch 3, 2021\n\nMarkets rose today.\nTraders were calm.\n\nAnalysts expect gains.",
	WeatherTitle + "\nAnn Lee and Bob Ray\nDaily Gazette\n2021-03-04\n\nRain falls today.\nWind rises later.\nSun returns tomorrow.",
}

// Corpus is a seeded store and the ids of its articles by title.
type Corpus struct {
	Store *memory.Store
	IDs   map[string]int64
}

// NewCorpus ingests Articles into a fresh in-memory store.
func NewCorpus(t testing.TB) *Corpus {
	t.Helper()
	st := memory.New()
	pub := publisher.New(st, nil, nil, publisher.Options{})
	ids := make(map[string]int64, len(Articles))
	for _, raw := range Articles {
		resp, err := pub.Ingest(context.Background(), raw)
		if err != nil {
			t.Fatalf("seeding sample corpus: %v", err)
		}
		ids[resp.Title] = resp.ArticleID
	}
	return &Corpus{Store: st, IDs: ids}
}
