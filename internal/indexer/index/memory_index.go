package index

import (
	"sort"
	"sync"
)

// MemoryIndex is a concurrency-safe corpus token table: token to occurrence
// groups, plus the reverse article to tokens mapping.
type MemoryIndex struct {
	mu       sync.RWMutex
	entries  map[string]*TokenEntry
	articles map[int64][]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries:  make(map[string]*TokenEntry),
		articles: make(map[int64][]string),
	}
}

// Add merges the article's index into the table.
func (m *MemoryIndex) Add(articleID int64, idx *ArticleIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := Merge(m.entries, articleID, idx); err != nil {
		return err
	}
	m.articles[articleID] = append(m.articles[articleID], idx.Tokens()...)
	return nil
}

// AddPositions appends positions of one token for one article.
func (m *MemoryIndex) AddPositions(token string, articleID int64, positions []PositionRecord) error {
	idx := &ArticleIndex{
		positions: map[string][]PositionRecord{token: positions},
		order:     []string{token},
		words:     len(positions),
	}
	return m.Add(articleID, idx)
}

// Lookup returns a copy of the entry for token.
func (m *MemoryIndex) Lookup(token string) (TokenEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[token]
	if !ok {
		return TokenEntry{}, false
	}
	return *entry.clone(), true
}

// ArticleTokens returns the distinct tokens of one article in first-sighting
// order.
func (m *MemoryIndex) ArticleTokens(articleID int64) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.articles[articleID]...)
}

// Tokens returns every distinct token, sorted.
func (m *MemoryIndex) Tokens() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tokens := make([]string, 0, len(m.entries))
	for token := range m.entries {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Snapshot returns a copy of every entry, sorted by token.
func (m *MemoryIndex) Snapshot() []TokenEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TokenEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, *entry.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Clone returns an independent deep copy.
func (m *MemoryIndex) Clone() *MemoryIndex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := NewMemoryIndex()
	for token, entry := range m.entries {
		out.entries[token] = entry.clone()
	}
	for id, tokens := range m.articles {
		out.articles[id] = append([]string(nil), tokens...)
	}
	return out
}

// ArticleCount is the number of articles with at least one token.
func (m *MemoryIndex) ArticleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.articles)
}
