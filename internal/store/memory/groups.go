package memory

import (
	"context"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

func (s *Store) CreateWordGroup(_ context.Context, description string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.description == description {
			return 0, apperrors.Duplicate("word group %q already exists", description)
		}
	}
	id := int64(len(s.groups) + 1)
	s.groups = append(s.groups, group{id: id, description: description})
	return id, nil
}

func (s *Store) WordGroupID(_ context.Context, description string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.description == description {
			return g.id, true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) AddGroupToken(_ context.Context, groupID, tokenID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !validRef(groupID, len(s.groups)) {
		return apperrors.NotFound("word group %d", groupID)
	}
	if !validRef(tokenID, len(s.state.tokenIDs)) {
		return apperrors.NotFound("word %d", tokenID)
	}
	g := &s.groups[groupID-1]
	for _, id := range g.tokenIDs {
		if id == tokenID {
			return apperrors.Duplicate("word %d is already in group %q", tokenID, g.description)
		}
	}
	g.tokenIDs = append(g.tokenIDs, tokenID)
	return nil
}

func (s *Store) GroupTokens(_ context.Context, groupID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !validRef(groupID, len(s.groups)) {
		return nil, apperrors.NotFound("word group %d", groupID)
	}
	return s.groupWords(s.groups[groupID-1]), nil
}

func (s *Store) WordGroups(_ context.Context) ([]store.WordGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.WordGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, store.WordGroup{ID: g.id, Description: g.description, Words: s.groupWords(g)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

// groupWords must be called with s.mu held.
func (s *Store) groupWords(g group) []string {
	byID := make(map[int64]string, len(s.state.tokenIDs))
	for token, id := range s.state.tokenIDs {
		byID[id] = token
	}
	words := make([]string, 0, len(g.tokenIDs))
	for _, id := range g.tokenIDs {
		words = append(words, byID[id])
	}
	sort.Strings(words)
	return words
}

func (s *Store) CreatePhrase(_ context.Context, phrase string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.phrases {
		if p.Phrase == phrase {
			return 0, apperrors.Duplicate("phrase %q already exists", phrase)
		}
	}
	id := int64(len(s.phrases) + 1)
	s.phrases = append(s.phrases, store.Phrase{ID: id, Phrase: phrase})
	return id, nil
}

func (s *Store) Phrases(_ context.Context) ([]store.Phrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Phrase(nil), s.phrases...), nil
}

func (s *Store) PhraseExists(_ context.Context, phrase string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.phrases {
		if p.Phrase == phrase {
			return true, nil
		}
	}
	return false, nil
}
