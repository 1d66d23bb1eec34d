package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/report"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/stats"
)

var (
	statsLines   bool
	frequencyTop int
)

var statsCmd = &cobra.Command{
	Use:   "stats [ARTICLE]",
	Short: "Word and character totals for the corpus or one article",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var frequencyCmd = &cobra.Command{
	Use:   "frequency [ARTICLE]",
	Short: "Words ordered by how often they occur",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFrequency,
}

var lengthsCmd = &cobra.Command{
	Use:   "lengths [ARTICLE]",
	Short: "How many words have each length",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLengths,
}

func init() {
	statsCmd.Flags().BoolVar(&statsLines, "lines", false, "Also break an article down line by line")
	frequencyCmd.Flags().IntVarP(&frequencyTop, "top", "n", 0, "Show only the N most frequent words")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	calc := newServices().stats
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		sum, err := calc.Corpus(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "articles:            %d\n", sum.Articles)
		fmt.Fprintf(out, "words:               %d\n", sum.Words)
		fmt.Fprintf(out, "distinct words:      %d\n", sum.DistinctWords)
		fmt.Fprintf(out, "characters:          %d\n", sum.Chars)
		fmt.Fprintf(out, "word characters:     %d\n", sum.CoreChars)
		fmt.Fprintf(out, "avg chars per word:  %.2f\n\n", sum.AvgCharsPerWord)
		t := report.NewTable("ID", "TITLE", "WORDS", "CHARS").AlignRight(0, 2, 3).MaxWidth(48)
		for _, a := range sum.PerArticle {
			t.AddRow(a.ID, a.Title, a.Words, a.Chars)
		}
		return renderCounted(out, t, "article")
	}

	id, err := resolveArticle(ctx, args[0])
	if err != nil {
		return err
	}
	sum, err := calc.Article(ctx, id)
	if err != nil {
		return err
	}
	sentences, err := calc.Sentences(ctx, id)
	if err != nil {
		return err
	}
	writeSummary(out, sum, sentences)

	t := report.NewTable("PARAGRAPH", "LINES", "WORDS", "CHARS").AlignRight(0, 1, 2, 3)
	for _, p := range sum.PerParagraph {
		t.AddRow(p.Paragraph, p.Lines, p.Words, p.Chars)
	}
	if err := t.Render(out); err != nil {
		return err
	}
	if !statsLines {
		return nil
	}
	fmt.Fprintln(out)
	t = report.NewTable("PARAGRAPH", "LINE", "WORDS", "CHARS").AlignRight(0, 1, 2, 3)
	for _, l := range sum.PerLine {
		t.AddRow(l.Paragraph, l.Line, l.Words, l.Chars)
	}
	return t.Render(out)
}

func writeSummary(w io.Writer, sum stats.Summary, sentences int) {
	fmt.Fprintf(w, "paragraphs:          %d\n", sum.Paragraphs)
	fmt.Fprintf(w, "lines:               %d\n", sum.Lines)
	fmt.Fprintf(w, "sentences:           %d\n", sentences)
	fmt.Fprintf(w, "words:               %d\n", sum.Words)
	fmt.Fprintf(w, "characters:          %d\n", sum.Chars)
	fmt.Fprintf(w, "word characters:     %d\n", sum.CoreChars)
	fmt.Fprintf(w, "avg chars per word:  %.2f\n\n", sum.AvgCharsPerWord)
}

func runFrequency(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	var articleID int64
	if len(args) == 1 {
		id, err := resolveArticle(ctx, args[0])
		if err != nil {
			return err
		}
		articleID = id
	}
	rows, err := newServices().stats.Frequency(ctx, articleID)
	if err != nil {
		return err
	}
	if frequencyTop > 0 && len(rows) > frequencyTop {
		rows = rows[:frequencyTop]
	}
	t := report.NewTable("#", "WORD", "COUNT").AlignRight(0, 2).MaxWidth(40)
	for _, r := range rows {
		t.AddRow(r.Row, r.Word, r.Count)
	}
	return renderCounted(cmd.OutOrStdout(), t, "word")
}

func runLengths(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	var articleID int64
	if len(args) == 1 {
		id, err := resolveArticle(ctx, args[0])
		if err != nil {
			return err
		}
		articleID = id
	}
	counts, err := newServices().stats.CharsPerWord(ctx, articleID)
	if err != nil {
		return err
	}
	t := report.NewTable("LENGTH", "WORDS").AlignRight(0, 1)
	for _, c := range counts {
		t.AddRow(c.Length, c.Count)
	}
	return t.Render(cmd.OutOrStdout())
}
