// Package stats computes word and character statistics from stored
// position records. Character totals are derived from the records alone
// and always equal the length of the reconstructed text.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/reconstruct"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

type LineStats struct {
	Paragraph int `json:"paragraph"`
	Line      int `json:"line"`
	Words     int `json:"words"`
	Chars     int `json:"chars"`
}

type ParagraphStats struct {
	Paragraph int `json:"paragraph"`
	Lines     int `json:"lines"`
	Words     int `json:"words"`
	Chars     int `json:"chars"`
}

// Summary holds the totals of one article. Chars counts bytes of the
// reconstructed text; CoreChars counts bytes of core tokens only.
type Summary struct {
	Paragraphs      int              `json:"paragraphs"`
	Lines           int              `json:"lines"`
	Words           int              `json:"words"`
	Chars           int              `json:"chars"`
	CoreChars       int              `json:"core_chars"`
	AvgCharsPerWord float64          `json:"avg_chars_per_word"`
	PerLine         []LineStats      `json:"per_line"`
	PerParagraph    []ParagraphStats `json:"per_paragraph"`
}

// Analyze folds occurrences of one article into a Summary. The input may
// be in any order and is not modified.
func Analyze(occurrences []store.Occurrence) Summary {
	sorted := make([]store.Occurrence, len(occurrences))
	copy(sorted, occurrences)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PositionRecord.Less(sorted[j].PositionRecord)
	})

	var s Summary
	for _, o := range sorted {
		wordChars := len(o.Leading) + len(o.Token) + len(tokenizer.StripBreaks(o.Trailing))
		s.Words++
		s.CoreChars += len(o.Token)

		n := len(s.PerParagraph)
		if n == 0 || s.PerParagraph[n-1].Paragraph != o.Paragraph {
			s.PerParagraph = append(s.PerParagraph, ParagraphStats{Paragraph: o.Paragraph})
		}
		m := len(s.PerLine)
		if m == 0 || s.PerLine[m-1].Paragraph != o.Paragraph || s.PerLine[m-1].Line != o.Line {
			s.PerLine = append(s.PerLine, LineStats{Paragraph: o.Paragraph, Line: o.Line})
			s.PerParagraph[len(s.PerParagraph)-1].Lines++
			m++
		}
		line := &s.PerLine[m-1]
		if line.Words > 0 {
			line.Chars++
		}
		line.Words++
		line.Chars += wordChars
	}

	pi := 0
	for _, line := range s.PerLine {
		for s.PerParagraph[pi].Paragraph != line.Paragraph {
			pi++
		}
		p := &s.PerParagraph[pi]
		if p.Words > 0 {
			p.Chars++
		}
		p.Words += line.Words
		p.Chars += line.Chars
	}
	for i, p := range s.PerParagraph {
		if i > 0 {
			s.Chars += len(tokenizer.ParagraphBreak)
		}
		s.Chars += p.Chars
	}
	s.Paragraphs = len(s.PerParagraph)
	s.Lines = len(s.PerLine)
	s.AvgCharsPerWord = average(s.CoreChars, s.Words)
	return s
}

func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(float64(total) / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ArticleTotals is one article's line in a corpus summary.
type ArticleTotals struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Words int    `json:"words"`
	Chars int    `json:"chars"`
}

type CorpusSummary struct {
	Articles        int             `json:"articles"`
	Words           int             `json:"words"`
	DistinctWords   int             `json:"distinct_words"`
	Chars           int             `json:"chars"`
	CoreChars       int             `json:"core_chars"`
	AvgCharsPerWord float64         `json:"avg_chars_per_word"`
	PerArticle      []ArticleTotals `json:"per_article"`
}

// FrequencyRow is one numbered line of a frequency list.
type FrequencyRow struct {
	Row   int    `json:"row"`
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// LengthCount is how many words have a given length in characters.
type LengthCount struct {
	Length int `json:"length"`
	Count  int `json:"count"`
}

// Reader is the read side of the store statistics need.
type Reader interface {
	store.ArticleStore
	store.TokenStore
}

// Calculator runs statistics against a store.
type Calculator struct {
	reader Reader
	text   *reconstruct.Reconstructor
	logger *slog.Logger
}

func NewCalculator(reader Reader) *Calculator {
	return &Calculator{
		reader: reader,
		text:   reconstruct.New(reader),
		logger: slog.Default().With("component", "stats"),
	}
}

func (c *Calculator) Article(ctx context.Context, id int64) (Summary, error) {
	if err := c.requireArticle(ctx, id); err != nil {
		return Summary{}, err
	}
	occ, err := c.reader.ArticleOccurrences(ctx, id, store.Window{})
	if err != nil {
		return Summary{}, fmt.Errorf("loading article %d: %w", id, err)
	}
	return Analyze(occ), nil
}

func (c *Calculator) Corpus(ctx context.Context) (CorpusSummary, error) {
	articles, err := c.reader.Articles(ctx)
	if err != nil {
		return CorpusSummary{}, fmt.Errorf("listing articles: %w", err)
	}
	out := CorpusSummary{
		Articles:   len(articles),
		PerArticle: make([]ArticleTotals, 0, len(articles)),
	}
	for _, a := range articles {
		occ, err := c.reader.ArticleOccurrences(ctx, a.ID, store.Window{})
		if err != nil {
			return CorpusSummary{}, fmt.Errorf("loading article %d: %w", a.ID, err)
		}
		s := Analyze(occ)
		out.Words += s.Words
		out.Chars += s.Chars
		out.CoreChars += s.CoreChars
		out.PerArticle = append(out.PerArticle, ArticleTotals{ID: a.ID, Title: a.Title, Words: s.Words, Chars: s.Chars})
	}
	words, err := c.reader.Tokens(ctx, 0)
	if err != nil {
		return CorpusSummary{}, fmt.Errorf("listing words: %w", err)
	}
	out.DistinctWords = len(words)
	out.AvgCharsPerWord = average(out.CoreChars, out.Words)
	c.logger.Debug("corpus statistics computed", "articles", out.Articles, "words", out.Words)
	return out, nil
}

// Frequency lists word counts ordered by word, for one article or, when
// articleID is zero, the corpus.
func (c *Calculator) Frequency(ctx context.Context, articleID int64) ([]FrequencyRow, error) {
	if articleID != 0 {
		if err := c.requireArticle(ctx, articleID); err != nil {
			return nil, err
		}
	}
	counts, err := c.reader.TokenCounts(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("counting words: %w", err)
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Token < counts[j].Token })
	rows := make([]FrequencyRow, len(counts))
	for i, tc := range counts {
		rows[i] = FrequencyRow{Row: i + 1, Word: tc.Token, Count: tc.Count}
	}
	return rows, nil
}

// CharsPerWord is the distribution of core token lengths, in runes, for
// one article or the corpus. Every occurrence counts.
func (c *Calculator) CharsPerWord(ctx context.Context, articleID int64) ([]LengthCount, error) {
	rows, err := c.Frequency(ctx, articleID)
	if err != nil {
		return nil, err
	}
	byLength := make(map[int]int)
	for _, r := range rows {
		byLength[utf8.RuneCountInString(r.Word)] += r.Count
	}
	out := make([]LengthCount, 0, len(byLength))
	for length, n := range byLength {
		out = append(out, LengthCount{Length: length, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Length < out[j].Length })
	return out, nil
}

// Sentences counts the sentences of an article's text.
func (c *Calculator) Sentences(ctx context.Context, id int64) (int, error) {
	if err := c.requireArticle(ctx, id); err != nil {
		return 0, err
	}
	text, err := c.text.Text(ctx, id)
	if err != nil {
		return 0, err
	}
	return CountSentences(text), nil
}

// CountSentences splits text on periods and counts the non-blank pieces.
func CountSentences(text string) int {
	n := 0
	for _, part := range strings.Split(text, ".") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func (c *Calculator) requireArticle(ctx context.Context, id int64) error {
	_, ok, err := c.reader.Article(ctx, id)
	if err != nil {
		return fmt.Errorf("loading article %d: %w", id, err)
	}
	if !ok {
		return apperrors.NotFound("article %d does not exist", id)
	}
	return nil
}
