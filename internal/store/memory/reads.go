package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
)

func (s *state) join(a article) store.Article {
	out := store.Article{
		ID:          a.id,
		Title:       a.Title,
		Authors:     a.Authors,
		PublishedOn: a.PublishedOn,
	}
	if validRef(a.ReporterID, len(s.reporters)) {
		out.Reporter = s.reporters[a.ReporterID-1]
	}
	if validRef(a.NewspaperID, len(s.newspapers)) {
		out.Newspaper = s.newspapers[a.NewspaperID-1].Name
	}
	return out
}

func (s *state) filter(keep func(a article) bool) []store.Article {
	var out []store.Article
	for _, a := range s.articles {
		if keep(a) {
			out = append(out, s.join(a))
		}
	}
	sortArticles(out)
	return out
}

func sortArticles(articles []store.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		if !a.PublishedOn.Equal(b.PublishedOn) {
			return a.PublishedOn.Before(b.PublishedOn)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

func (s *Store) FindArticleIDByTitle(_ context.Context, title string) (int64, bool, error) {
	st := s.snapshot()
	for _, a := range st.articles {
		if a.Title == title {
			return a.id, true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) ListArticleTitles(ctx context.Context) ([]string, error) {
	articles, err := s.Articles(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(articles))
	for i, a := range articles {
		titles[i] = a.Title
	}
	return titles, nil
}

func (s *Store) Article(_ context.Context, id int64) (store.Article, bool, error) {
	st := s.snapshot()
	if !validRef(id, len(st.articles)) {
		return store.Article{}, false, nil
	}
	return st.join(st.articles[id-1]), true, nil
}

func (s *Store) Articles(_ context.Context) ([]store.Article, error) {
	return s.snapshot().filter(func(article) bool { return true }), nil
}

func (s *Store) CountArticles(_ context.Context) (int, error) {
	return len(s.snapshot().articles), nil
}

func (s *Store) ArticlesByReporter(_ context.Context, first, last string) ([]store.Article, error) {
	st := s.snapshot()
	return st.filter(func(a article) bool {
		if !validRef(a.ReporterID, len(st.reporters)) {
			return false
		}
		r := st.reporters[a.ReporterID-1]
		return strings.EqualFold(r.FirstName, first) && strings.EqualFold(r.LastName, last)
	}), nil
}

func (s *Store) ArticlesByNewspaper(_ context.Context, name string) ([]store.Article, error) {
	st := s.snapshot()
	return st.filter(func(a article) bool {
		return validRef(a.NewspaperID, len(st.newspapers)) && st.newspapers[a.NewspaperID-1].Name == name
	}), nil
}

func (s *Store) ArticlesByDate(_ context.Context, day time.Time) ([]store.Article, error) {
	return s.snapshot().filter(func(a article) bool {
		return sameDay(a.PublishedOn, day)
	}), nil
}

func (s *Store) ArticlesByToken(_ context.Context, token string) ([]store.Article, error) {
	st := s.snapshot()
	entry, ok := st.tokens.Lookup(token)
	if !ok {
		return nil, nil
	}
	return st.filter(func(a article) bool {
		_, found := entry.Group(a.id)
		return found
	}), nil
}

func (s *Store) FindTokenID(_ context.Context, token string) (int64, error) {
	if id, ok := s.snapshot().tokenIDs[token]; ok {
		return id, nil
	}
	return store.NoToken, nil
}

func (s *Store) ArticleOccurrences(_ context.Context, articleID int64, w store.Window) ([]store.Occurrence, error) {
	st := s.snapshot()
	var out []store.Occurrence
	for _, token := range st.tokens.ArticleTokens(articleID) {
		entry, _ := st.tokens.Lookup(token)
		group, _ := entry.Group(articleID)
		for _, rec := range group.Positions {
			if w.Contains(rec) {
				out = append(out, store.Occurrence{Token: token, PositionRecord: rec})
			}
		}
	}
	return out, nil
}

func (s *Store) TokenLocations(_ context.Context, token string) ([]store.Location, error) {
	entry, ok := s.snapshot().tokens.Lookup(token)
	if !ok {
		return nil, nil
	}
	var out []store.Location
	for _, g := range entry.Groups {
		for _, rec := range g.Positions {
			out = append(out, store.Location{
				ArticleID: g.ArticleID,
				Paragraph: rec.Paragraph,
				Line:      rec.Line,
				Position:  rec.Position,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ArticleID != b.ArticleID {
			return a.ArticleID < b.ArticleID
		}
		if a.Paragraph != b.Paragraph {
			return a.Paragraph < b.Paragraph
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Position < b.Position
	})
	return out, nil
}

func (s *Store) WordAt(ctx context.Context, articleID int64, slot index.Slot) (store.Occurrence, bool, error) {
	occ, err := s.ArticleOccurrences(ctx, articleID, store.Window{})
	if err != nil {
		return store.Occurrence{}, false, err
	}
	for _, o := range occ {
		if o.Slot() == slot {
			return o, true, nil
		}
	}
	return store.Occurrence{}, false, nil
}

func (s *Store) Tokens(_ context.Context, articleID int64) ([]string, error) {
	st := s.snapshot()
	if articleID == 0 {
		return st.tokens.Tokens(), nil
	}
	tokens := st.tokens.ArticleTokens(articleID)
	sort.Strings(tokens)
	return tokens, nil
}

func (s *Store) TokenCounts(_ context.Context, articleID int64) ([]store.TokenCount, error) {
	var out []store.TokenCount
	for _, entry := range s.snapshot().tokens.Snapshot() {
		count := 0
		if articleID == 0 {
			count = entry.Occurrences()
		} else if g, ok := entry.Group(articleID); ok {
			count = len(g.Positions)
		}
		if count > 0 {
			out = append(out, store.TokenCount{Token: entry.Token, Count: count})
		}
	}
	return out, nil
}
