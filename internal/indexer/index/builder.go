// Package index groups tokenizer output into per-token position lists and
// merges them into a corpus-wide token table.
package index

import (
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
)

// ErrAlreadyIndexed is returned by Merge when a token already has an
// occurrence group for the article being merged.
var ErrAlreadyIndexed = errors.New("article already indexed")

// ArticleIndex maps each core token of one article to its positions in
// tokenizer order. Tokens are kept in first-sighting order.
type ArticleIndex struct {
	positions map[string][]PositionRecord
	order     []string
	words     int
}

// Build groups words by core token. Tokens are compared byte-exact.
func Build(words []tokenizer.Word) *ArticleIndex {
	idx := &ArticleIndex{positions: make(map[string][]PositionRecord)}
	for _, w := range words {
		if _, seen := idx.positions[w.Token]; !seen {
			idx.order = append(idx.order, w.Token)
		}
		idx.positions[w.Token] = append(idx.positions[w.Token], PositionRecord{
			Paragraph: w.Paragraph,
			Line:      w.Line,
			Position:  w.Position,
			Leading:   w.Leading,
			Trailing:  w.Trailing,
		})
	}
	idx.words = len(words)
	return idx
}

// Tokens returns the distinct tokens in first-sighting order.
func (a *ArticleIndex) Tokens() []string {
	return append([]string(nil), a.order...)
}

// Positions returns the positions of token, or nil.
func (a *ArticleIndex) Positions(token string) []PositionRecord {
	return a.positions[token]
}

// Len is the number of distinct tokens.
func (a *ArticleIndex) Len() int {
	return len(a.order)
}

// WordCount is the number of words the index was built from.
func (a *ArticleIndex) WordCount() int {
	return a.words
}

// Merge appends one occurrence group per token of idx to entries, creating
// entries for tokens never seen before.
func Merge(entries map[string]*TokenEntry, articleID int64, idx *ArticleIndex) error {
	for _, token := range idx.order {
		if entry, ok := entries[token]; ok {
			if _, dup := entry.Group(articleID); dup {
				return fmt.Errorf("%w: token %q, article %d", ErrAlreadyIndexed, token, articleID)
			}
		}
	}
	for _, token := range idx.order {
		entry, ok := entries[token]
		if !ok {
			entry = &TokenEntry{Token: token}
			entries[token] = entry
		}
		entry.Groups = append(entry.Groups, OccurrenceGroup{
			ArticleID: articleID,
			Positions: append([]PositionRecord(nil), idx.positions[token]...),
		})
	}
	return nil
}
