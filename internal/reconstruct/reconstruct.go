// Package reconstruct rebuilds article text from stored position records.
// Break markers carried on trailing punctuation restore line and paragraph
// layout, so the only whitespace added here is one space between words.
package reconstruct

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
)

// Assemble sorts occurrences into reading order and concatenates them. The
// input slice is not modified.
func Assemble(occurrences []store.Occurrence) string {
	sorted := make([]store.Occurrence, len(occurrences))
	copy(sorted, occurrences)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PositionRecord.Less(sorted[j].PositionRecord)
	})

	size := 0
	for _, o := range sorted {
		size += len(o.Leading) + len(o.Token) + len(o.Trailing) + 1
	}
	var b strings.Builder
	b.Grow(size)
	for _, o := range sorted {
		if o.Position > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(o.Leading)
		b.WriteString(o.Token)
		b.WriteString(o.Trailing)
	}
	return b.String()
}

// Reconstructor reads occurrences from a TokenStore and assembles them.
type Reconstructor struct {
	tokens store.TokenStore
	logger *slog.Logger
}

func New(tokens store.TokenStore) *Reconstructor {
	return &Reconstructor{
		tokens: tokens,
		logger: slog.Default().With("component", "reconstructor"),
	}
}

// Text returns the full text of an article. An article without tokens
// yields the empty string.
func (r *Reconstructor) Text(ctx context.Context, articleID int64) (string, error) {
	occ, err := r.tokens.ArticleOccurrences(ctx, articleID, store.Window{})
	if err != nil {
		return "", fmt.Errorf("reconstructing article %d: %w", articleID, err)
	}
	r.logger.Debug("article reconstructed", "article_id", articleID, "words", len(occ))
	return Assemble(occ), nil
}

// Window returns lines fromLine..toLine of one paragraph. Lines outside the
// paragraph are skipped; trailing break markers are trimmed.
func (r *Reconstructor) Window(ctx context.Context, articleID int64, paragraph, fromLine, toLine int) (string, error) {
	if fromLine < 1 {
		fromLine = 1
	}
	if paragraph < 1 || toLine < fromLine {
		return "", nil
	}
	occ, err := r.tokens.ArticleOccurrences(ctx, articleID, store.Window{
		Paragraph: paragraph,
		FromLine:  fromLine,
		ToLine:    toLine,
	})
	if err != nil {
		return "", fmt.Errorf("reconstructing window of article %d: %w", articleID, err)
	}
	return strings.TrimRight(Assemble(occ), tokenizer.LineBreak), nil
}

// Context returns the lines within radius of line in the given paragraph.
func (r *Reconstructor) Context(ctx context.Context, articleID int64, paragraph, line, radius int) (string, error) {
	if radius < 0 {
		radius = 0
	}
	return r.Window(ctx, articleID, paragraph, line-radius, line+radius)
}
