// Package phrase defines literal phrases and finds them in reconstructed
// article text.
package phrase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

// MaxLength is the longest phrase accepted, in characters.
const MaxLength = 100

// Validate accepts non-empty printable ASCII of at most MaxLength characters.
func Validate(phrase string) error {
	if phrase == "" {
		return apperrors.Validation("phrase is empty")
	}
	for i := 0; i < len(phrase); i++ {
		if c := phrase[i]; c < ' ' || c > '~' {
			return apperrors.Validation("phrase %q contains characters outside printable ASCII", phrase)
		}
	}
	if len(phrase) > MaxLength {
		return apperrors.Validation("phrase is %d characters, limit is %d", len(phrase), MaxLength)
	}
	return nil
}

// Match is the byte range [Start, End) of one occurrence.
type Match struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Find returns the non-overlapping occurrences of phrase in text, left to
// right. Matching is exact and case-sensitive.
func Find(text, phrase string) []Match {
	matches := make([]Match, 0)
	if phrase == "" {
		return matches
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return matches
		}
		start := offset + i
		matches = append(matches, Match{Start: start, End: start + len(phrase)})
		offset = start + len(phrase)
	}
}

// ArticleMatches is the set of matches in one article.
type ArticleMatches struct {
	ArticleID int64   `json:"article_id"`
	Title     string  `json:"title"`
	Matches   []Match `json:"matches"`
}

// TextSource is satisfied by *reconstruct.Reconstructor and
// *searcher.Searcher.
type TextSource interface {
	Text(ctx context.Context, articleID int64) (string, error)
}

type Service struct {
	phrases  store.PhraseStore
	articles store.ArticleStore
	text     TextSource
	logger   *slog.Logger
}

func New(phrases store.PhraseStore, articles store.ArticleStore, text TextSource) *Service {
	return &Service{
		phrases:  phrases,
		articles: articles,
		text:     text,
		logger:   slog.Default().With("component", "phrase"),
	}
}

// Define stores a new phrase.
func (s *Service) Define(ctx context.Context, phrase string) (int64, error) {
	if err := Validate(phrase); err != nil {
		return 0, err
	}
	id, err := s.phrases.CreatePhrase(ctx, phrase)
	if err != nil {
		return 0, err
	}
	s.logger.Info("phrase defined", "id", id, "phrase", phrase)
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]store.Phrase, error) {
	phrases, err := s.phrases.Phrases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing phrases: %w", err)
	}
	if phrases == nil {
		phrases = []store.Phrase{}
	}
	return phrases, nil
}

func (s *Service) IsDefined(ctx context.Context, phrase string) (bool, error) {
	ok, err := s.phrases.PhraseExists(ctx, phrase)
	if err != nil {
		return false, fmt.Errorf("checking phrase: %w", err)
	}
	return ok, nil
}

// Search finds phrase in one article. The phrase need not be defined.
func (s *Service) Search(ctx context.Context, articleID int64, phrase string) ([]Match, error) {
	if phrase == "" {
		return nil, apperrors.Validation("phrase is empty")
	}
	_, ok, err := s.articles.Article(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("loading article %d: %w", articleID, err)
	}
	if !ok {
		return nil, apperrors.NotFound("article %d does not exist", articleID)
	}
	text, err := s.text.Text(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return Find(text, phrase), nil
}

// SearchAll finds phrase in every article and returns the articles with
// at least one match, in listing order.
func (s *Service) SearchAll(ctx context.Context, phrase string) ([]ArticleMatches, error) {
	if phrase == "" {
		return nil, apperrors.Validation("phrase is empty")
	}
	articles, err := s.articles.Articles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	out := make([]ArticleMatches, 0)
	for _, a := range articles {
		text, err := s.text.Text(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if matches := Find(text, phrase); len(matches) > 0 {
			out = append(out, ArticleMatches{ArticleID: a.ID, Title: a.Title, Matches: matches})
		}
	}
	s.logger.Debug("phrase searched", "phrase", phrase, "articles", len(articles), "matched", len(out))
	return out, nil
}
