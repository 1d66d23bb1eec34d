// Package memory is an in-process Store. Transactions run against a private
// copy of the state that replaces the shared one only on success, so a
// failed ingestion leaves nothing behind.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

type article struct {
	id int64
	store.NewArticle
}

type group struct {
	id          int64
	description string
	tokenIDs    []int64
}

type state struct {
	reporters  []store.Reporter
	newspapers []store.Newspaper
	articles   []article
	tokens     *index.MemoryIndex
	tokenIDs   map[string]int64
	slots      map[int64]map[index.Slot]struct{}
}

func newState() *state {
	return &state{
		tokens:   index.NewMemoryIndex(),
		tokenIDs: make(map[string]int64),
		slots:    make(map[int64]map[index.Slot]struct{}),
	}
}

func (s *state) clone() *state {
	out := &state{
		reporters:  append([]store.Reporter(nil), s.reporters...),
		newspapers: append([]store.Newspaper(nil), s.newspapers...),
		articles:   append([]article(nil), s.articles...),
		tokens:     s.tokens.Clone(),
		tokenIDs:   make(map[string]int64, len(s.tokenIDs)),
		slots:      make(map[int64]map[index.Slot]struct{}, len(s.slots)),
	}
	for token, id := range s.tokenIDs {
		out.tokenIDs[token] = id
	}
	for articleID, slots := range s.slots {
		copied := make(map[index.Slot]struct{}, len(slots))
		for slot := range slots {
			copied[slot] = struct{}{}
		}
		out.slots[articleID] = copied
	}
	return out
}

// Store is a Store held entirely in memory.
type Store struct {
	txMu sync.Mutex

	mu      sync.RWMutex
	state   *state
	groups  []group
	phrases []store.Phrase
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InTx serialises writers; fn sees its own writes and nobody else does
// until it returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	staged := s.state.clone()
	s.mu.RUnlock()

	if err := fn(&tx{state: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = staged
	s.mu.Unlock()
	return nil
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

type tx struct {
	state *state
}

func (t *tx) FindReporterID(_ context.Context, first, last string) (int64, bool, error) {
	for _, r := range t.state.reporters {
		if strings.EqualFold(r.FirstName, first) && strings.EqualFold(r.LastName, last) {
			return r.ID, true, nil
		}
	}
	return 0, false, nil
}

func (t *tx) CreateReporter(ctx context.Context, first, last string) (int64, error) {
	if id, ok, _ := t.FindReporterID(ctx, first, last); ok {
		return id, nil
	}
	id := int64(len(t.state.reporters) + 1)
	t.state.reporters = append(t.state.reporters, store.Reporter{ID: id, FirstName: first, LastName: last})
	return id, nil
}

func (t *tx) FindNewspaperID(_ context.Context, name string) (int64, bool, error) {
	for _, n := range t.state.newspapers {
		if n.Name == name {
			return n.ID, true, nil
		}
	}
	return 0, false, nil
}

func (t *tx) CreateNewspaper(ctx context.Context, name string) (int64, error) {
	if id, ok, _ := t.FindNewspaperID(ctx, name); ok {
		return id, nil
	}
	id := int64(len(t.state.newspapers) + 1)
	t.state.newspapers = append(t.state.newspapers, store.Newspaper{ID: id, Name: name})
	return id, nil
}

func (t *tx) CreateArticle(_ context.Context, a store.NewArticle) (int64, error) {
	for _, existing := range t.state.articles {
		if existing.Title == a.Title && sameDay(existing.PublishedOn, a.PublishedOn) {
			return 0, apperrors.Duplicate("article %q dated %s already exists", a.Title, a.PublishedOn.Format(time.DateOnly))
		}
	}
	if !validRef(a.ReporterID, len(t.state.reporters)) || !validRef(a.NewspaperID, len(t.state.newspapers)) {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, 400, "article %q references an unknown reporter or newspaper", a.Title)
	}
	id := int64(len(t.state.articles) + 1)
	t.state.articles = append(t.state.articles, article{id: id, NewArticle: a})
	t.state.slots[id] = make(map[index.Slot]struct{})
	return id, nil
}

func (t *tx) UpsertTokenOccurrences(_ context.Context, token string, articleID int64, positions []index.PositionRecord) error {
	slots, ok := t.state.slots[articleID]
	if !ok {
		return apperrors.NotFound("article %d", articleID)
	}
	for _, rec := range positions {
		if _, taken := slots[rec.Slot()]; taken {
			return apperrors.Duplicate("article %d already has a word at %d:%d:%d", articleID, rec.Paragraph, rec.Line, rec.Position)
		}
	}
	if err := t.state.tokens.AddPositions(token, articleID, positions); err != nil {
		return apperrors.Duplicate("%v", err)
	}
	for _, rec := range positions {
		slots[rec.Slot()] = struct{}{}
	}
	if _, ok := t.state.tokenIDs[token]; !ok {
		t.state.tokenIDs[token] = int64(len(t.state.tokenIDs) + 1)
	}
	return nil
}

func validRef(id int64, n int) bool {
	return id >= 1 && id <= int64(n)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
