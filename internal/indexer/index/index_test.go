package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGroupsByToken(t *testing.T) {
	idx := Build(tokenizer.Tokenize("The cat saw the cat.\nThe end"))

	assert.Equal(t, []string{"The", "cat", "saw", "the", "end"}, idx.Tokens())
	assert.Equal(t, 7, idx.WordCount())
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, []PositionRecord{
		{Paragraph: 1, Line: 1, Position: 2},
		{Paragraph: 1, Line: 1, Position: 5, Trailing: ".\n"},
	}, idx.Positions("cat"))
	assert.Len(t, idx.Positions("The"), 2)
	assert.Nil(t, idx.Positions("dog"))
}

func TestBuildPositionsAreUnique(t *testing.T) {
	idx := Build(tokenizer.Tokenize("a b a b\nc a\n\na a"))
	seen := make(map[Slot]bool)
	for _, token := range idx.Tokens() {
		for _, rec := range idx.Positions(token) {
			require.False(t, seen[rec.Slot()], "slot %+v repeated", rec.Slot())
			seen[rec.Slot()] = true
		}
	}
	assert.Len(t, seen, idx.WordCount())
}

func TestMergeCreatesOneGroupPerArticle(t *testing.T) {
	entries := make(map[string]*TokenEntry)
	require.NoError(t, Merge(entries, 1, Build(tokenizer.Tokenize("Jordan spoke. Jordan left."))))
	require.NoError(t, Merge(entries, 2, Build(tokenizer.Tokenize("Rain in Jordan"))))

	jordan := entries["Jordan"]
	require.NotNil(t, jordan)
	require.Len(t, jordan.Groups, 2)
	assert.Equal(t, int64(1), jordan.Groups[0].ArticleID)
	assert.Len(t, jordan.Groups[0].Positions, 2)
	assert.Equal(t, int64(2), jordan.Groups[1].ArticleID)
	assert.Equal(t, 3, jordan.Groups[1].Positions[0].Position)
	assert.Equal(t, 3, jordan.Occurrences())

	g, ok := jordan.Group(2)
	assert.True(t, ok)
	assert.Len(t, g.Positions, 1)
}

func TestMergeRejectsReindexWithoutPartialWrite(t *testing.T) {
	entries := make(map[string]*TokenEntry)
	require.NoError(t, Merge(entries, 1, Build(tokenizer.Tokenize("alpha"))))

	err := Merge(entries, 1, Build(tokenizer.Tokenize("beta alpha")))
	assert.ErrorIs(t, err, ErrAlreadyIndexed)
	assert.NotContains(t, entries, "beta")
}

func TestMemoryIndex(t *testing.T) {
	mi := NewMemoryIndex()
	require.NoError(t, mi.Add(10, Build(tokenizer.Tokenize("b a"))))
	require.NoError(t, mi.AddPositions("c", 11, []PositionRecord{{Paragraph: 1, Line: 1, Position: 1}}))

	assert.Equal(t, []string{"a", "b", "c"}, mi.Tokens())
	assert.Equal(t, []string{"b", "a"}, mi.ArticleTokens(10))
	assert.Equal(t, 2, mi.ArticleCount())

	clone := mi.Clone()
	require.NoError(t, clone.AddPositions("a", 11, []PositionRecord{{Paragraph: 1, Line: 1, Position: 2}}))
	orig, _ := mi.Lookup("a")
	cloned, _ := clone.Lookup("a")
	assert.Len(t, orig.Groups, 1)
	assert.Len(t, cloned.Groups, 2)

	snap := mi.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].Token)
}

func BenchmarkBuild(b *testing.B) {
	words := tokenizer.Tokenize(benchText(200))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Build(words)
	}
}

func BenchmarkMemoryIndexAdd(b *testing.B) {
	idx := Build(tokenizer.Tokenize(benchText(20)))
	mi := NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := mi.Add(int64(i), idx); err != nil {
			b.Fatal(err)
		}
	}
}

func benchText(paragraphs int) string {
	var text string
	for i := 0; i < paragraphs; i++ {
		if i > 0 {
			text += "\n\n"
		}
		text += fmt.Sprintf("Paragraph %d opens, then the council voted.\nResults follow.", i)
	}
	return text
}
