// Package store defines the persistence contract for articles, their word
// grid, word groups and phrases. The token-position table is the only copy
// of article content; text is always rebuilt from it.
package store

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
)

// NoToken is returned by FindTokenID when the token is not in the corpus.
const NoToken int64 = -1

// Reporter is an article author.
type Reporter struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins the name parts with a space.
func (r Reporter) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// Newspaper is a publication.
type Newspaper struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewArticle is the metadata written when an article is ingested.
type NewArticle struct {
	Title       string
	Authors     string
	PublishedOn time.Time
	ReporterID  int64
	NewspaperID int64
}

// Article is stored article metadata joined with its newspaper and reporter.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Authors     string    `json:"authors"`
	PublishedOn time.Time `json:"published_on"`
	Newspaper   string    `json:"newspaper"`
	Reporter    Reporter  `json:"reporter"`
}

// Occurrence is one position record together with its token.
type Occurrence struct {
	Token string `json:"token"`
	index.PositionRecord
}

// Location is an occurrence anchored to its article.
type Location struct {
	ArticleID int64 `json:"article_id"`
	Paragraph int   `json:"paragraph"`
	Line      int   `json:"line"`
	Position  int   `json:"position"`
}

// Window restricts an occurrence fetch to one paragraph and an inclusive
// line range. The zero Window selects the whole article.
type Window struct {
	Paragraph int
	FromLine  int
	ToLine    int
}

// Whole reports whether w selects the whole article.
func (w Window) Whole() bool {
	return w.Paragraph == 0
}

// Contains reports whether rec falls inside w.
func (w Window) Contains(rec index.PositionRecord) bool {
	if w.Whole() {
		return true
	}
	return rec.Paragraph == w.Paragraph && rec.Line >= w.FromLine && rec.Line <= w.ToLine
}

// TokenCount is a token and how many times it occurs.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// WordGroup is a named set of tokens.
type WordGroup struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	Words       []string `json:"words"`
}

// Phrase is a stored literal phrase.
type Phrase struct {
	ID     int64  `json:"id"`
	Phrase string `json:"phrase"`
}

// Tx is the write side of an ingestion. Every call made through one Tx
// commits or rolls back together.
type Tx interface {
	FindReporterID(ctx context.Context, first, last string) (int64, bool, error)
	// CreateReporter returns the existing id when a matching reporter was
	// created concurrently.
	CreateReporter(ctx context.Context, first, last string) (int64, error)
	FindNewspaperID(ctx context.Context, name string) (int64, bool, error)
	CreateNewspaper(ctx context.Context, name string) (int64, error)
	// CreateArticle fails with a duplicate error when (title, date) exists.
	CreateArticle(ctx context.Context, a NewArticle) (int64, error)
	UpsertTokenOccurrences(ctx context.Context, token string, articleID int64, positions []index.PositionRecord) error
}

// ArticleStore reads article metadata.
type ArticleStore interface {
	// FindArticleIDByTitle returns the oldest article with exactly this title.
	FindArticleIDByTitle(ctx context.Context, title string) (int64, bool, error)
	ListArticleTitles(ctx context.Context) ([]string, error)
	// CountArticles only grows, so it doubles as a corpus version.
	CountArticles(ctx context.Context) (int, error)
	Article(ctx context.Context, id int64) (Article, bool, error)
	// Articles lists every article ordered by date, then title.
	Articles(ctx context.Context) ([]Article, error)
	ArticlesByReporter(ctx context.Context, first, last string) ([]Article, error)
	ArticlesByNewspaper(ctx context.Context, name string) ([]Article, error)
	ArticlesByDate(ctx context.Context, day time.Time) ([]Article, error)
	ArticlesByToken(ctx context.Context, token string) ([]Article, error)
}

// TokenStore reads the word grid.
type TokenStore interface {
	FindTokenID(ctx context.Context, token string) (int64, error)
	// ArticleOccurrences returns the occurrences of one article inside w in
	// no particular order.
	ArticleOccurrences(ctx context.Context, articleID int64, w Window) ([]Occurrence, error)
	TokenLocations(ctx context.Context, token string) ([]Location, error)
	WordAt(ctx context.Context, articleID int64, slot index.Slot) (Occurrence, bool, error)
	// Tokens lists distinct tokens, sorted; articleID 0 means the corpus.
	Tokens(ctx context.Context, articleID int64) ([]string, error)
	// TokenCounts lists occurrence counts ordered by token; articleID 0
	// means the corpus.
	TokenCounts(ctx context.Context, articleID int64) ([]TokenCount, error)
}

// GroupStore persists word groups.
type GroupStore interface {
	CreateWordGroup(ctx context.Context, description string) (int64, error)
	WordGroupID(ctx context.Context, description string) (int64, bool, error)
	AddGroupToken(ctx context.Context, groupID, tokenID int64) error
	GroupTokens(ctx context.Context, groupID int64) ([]string, error)
	WordGroups(ctx context.Context) ([]WordGroup, error)
}

// PhraseStore persists phrases.
type PhraseStore interface {
	CreatePhrase(ctx context.Context, phrase string) (int64, error)
	Phrases(ctx context.Context) ([]Phrase, error)
	PhraseExists(ctx context.Context, phrase string) (bool, error)
}

// Store is the full persistence contract.
type Store interface {
	ArticleStore
	TokenStore
	GroupStore
	PhraseStore
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}
