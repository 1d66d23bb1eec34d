package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/report"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
)

// Search flags
var (
	searchReporter  string
	searchNewspaper string
	searchDate      string
	searchWord      string
	searchTitle     string
)

var contextRadius int

var locationsArticle string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the archive tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Load article files into the archive",
	Long: `Each file holds one article: title, authors, newspaper and date lines,
a blank line, then the body. Use - to read one article from stdin.

Files are loaded one at a time; a bad file is reported and the rest are
still loaded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List every article by date",
	Args:  cobra.NoArgs,
	RunE:  runArticles,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find articles by reporter, newspaper, date, word or title",
	Example: `  newsctl search --reporter "Jane Doe"
  newsctl search --date "March 3, 2021"
  newsctl search --word Jordan`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

var showCmd = &cobra.Command{
	Use:   "show ARTICLE",
	Short: "Print an article rebuilt from its word grid",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var wordsCmd = &cobra.Command{
	Use:   "words [ARTICLE]",
	Short: "List distinct words of the corpus or of one article",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWords,
}

var wordAtCmd = &cobra.Command{
	Use:   "word-at ARTICLE PARAGRAPH LINE POSITION",
	Short: "Show the word at a grid position",
	Args:  cobra.ExactArgs(4),
	RunE:  runWordAt,
}

var indexCmd = &cobra.Command{
	Use:   "index ARTICLE",
	Short: "List each word of an article with its positions",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var contextCmd = &cobra.Command{
	Use:   "context ARTICLE WORD",
	Short: "Show the lines around each occurrence of a word",
	Args:  cobra.ExactArgs(2),
	RunE:  runContext,
}

var locationsCmd = &cobra.Command{
	Use:   "locations WORD",
	Short: "List every position of a word across the corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocations,
}

func init() {
	searchCmd.Flags().StringVar(&searchReporter, "reporter", "", "Reporter full name")
	searchCmd.Flags().StringVar(&searchNewspaper, "newspaper", "", "Newspaper name")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Publication date")
	searchCmd.Flags().StringVar(&searchWord, "word", "", "Word contained in the article")
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "Exact article title")
	searchCmd.MarkFlagsMutuallyExclusive("reporter", "newspaper", "date", "word", "title")

	contextCmd.Flags().IntVarP(&contextRadius, "radius", "r", -1, "Lines of context on each side (default from config)")

	locationsCmd.Flags().StringVar(&locationsArticle, "article", "", "Restrict to one article")
}

type migrator interface {
	Migrate(ctx context.Context) error
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	m, ok := archive.(migrator)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate")
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	pub := newPublisher()
	t := report.NewTable("FILE", "ID", "TITLE", "WORDS", "STATUS").AlignRight(1, 3).MaxWidth(48)
	failed := 0
	for _, path := range args {
		raw, err := readArticle(cmd, path)
		if err == nil {
			resp, ierr := pub.Ingest(ctx, raw)
			if ierr == nil {
				t.AddRow(path, resp.ArticleID, resp.Title, resp.Words, "stored")
				continue
			}
			err = ierr
		}
		failed++
		slog.Debug("ingest failed", "file", path, "error", err)
		t.AddRow(path, "-", "-", "-", apperrors.Kind(err)+": "+apperrors.Message(err))
	}
	if err := t.Render(cmd.OutOrStdout()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d articles were not stored", failed, len(args))
	}
	return nil
}

func readArticle(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "reading %s: %v", path, err)
	}
	return string(b), nil
}

func runArticles(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	listings, err := newServices().searcher.Articles(ctx)
	if err != nil {
		return err
	}
	t := articleTable()
	for _, l := range listings {
		addArticleRow(t, l.Row, l.Article)
	}
	return renderCounted(cmd.OutOrStdout(), t, "article")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	s := newServices().searcher

	var (
		found []store.Article
		err   error
	)
	switch {
	case searchTitle != "":
		detail, err := s.ArticleByTitle(ctx, searchTitle)
		if err != nil {
			return err
		}
		return printArticle(cmd.OutOrStdout(), detail.Article, detail.Text)
	case searchReporter != "":
		found, err = s.ByReporter(ctx, searchReporter)
	case searchNewspaper != "":
		found, err = s.ByNewspaper(ctx, searchNewspaper)
	case searchDate != "":
		day, perr := validator.ParseDate(searchDate, currentConfig().Ingest.DateLayouts)
		if perr != nil {
			return apperrors.Validation("%v", perr)
		}
		found, err = s.ByDate(ctx, day)
	case searchWord != "":
		found, err = s.ByWord(ctx, searchWord)
	default:
		return apperrors.Validation("one of --reporter, --newspaper, --date, --word or --title is required")
	}
	if err != nil {
		return err
	}
	t := articleTable()
	for i, a := range found {
		addArticleRow(t, i+1, a)
	}
	return renderCounted(cmd.OutOrStdout(), t, "article")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	id, err := resolveArticle(ctx, args[0])
	if err != nil {
		return err
	}
	detail, err := newServices().searcher.Article(ctx, id)
	if err != nil {
		return err
	}
	return printArticle(cmd.OutOrStdout(), detail.Article, detail.Text)
}

func runWords(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	s := newServices().searcher

	var (
		words []string
		err   error
	)
	if len(args) == 1 {
		id, rerr := resolveArticle(ctx, args[0])
		if rerr != nil {
			return rerr
		}
		words, err = s.ArticleWords(ctx, id)
	} else {
		words, err = s.Words(ctx)
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, w := range words {
		fmt.Fprintln(out, w)
	}
	fmt.Fprintf(out, "\n%d words\n", len(words))
	return nil
}

func runWordAt(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	id, err := resolveArticle(ctx, args[0])
	if err != nil {
		return err
	}
	var coords [3]int
	for i, name := range []string{"paragraph", "line", "position"} {
		n, err := strconv.Atoi(args[i+1])
		if err != nil || n < 1 {
			return apperrors.Validation("%s must be a positive number, got %q", name, args[i+1])
		}
		coords[i] = n
	}
	occ, err := newServices().searcher.WordAt(ctx, id, index.Slot{Paragraph: coords[0], Line: coords[1], Position: coords[2]})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), occ.Token)
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	id, err := resolveArticle(ctx, args[0])
	if err != nil {
		return err
	}
	entries, err := newServices().searcher.WordIndex(ctx, id)
	if err != nil {
		return err
	}
	t := report.NewTable("WORD", "COUNT", "POSITIONS").AlignRight(1).MaxWidth(72)
	for _, e := range entries {
		t.AddRow(e.Word, len(e.Locations), formatSlots(e.Locations))
	}
	return renderCounted(cmd.OutOrStdout(), t, "word")
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	id, err := resolveArticle(ctx, args[0])
	if err != nil {
		return err
	}
	matches, err := newServices().searcher.Contexts(ctx, id, args[1], contextRadius)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintf(out, "%q does not occur in this article\n", args[1])
		return nil
	}
	for i, m := range matches {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "[paragraph %d, line %d, word %d]\n%s\n", m.Paragraph, m.Line, m.Position, m.Text)
	}
	return nil
}

func runLocations(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	var articleID int64
	if locationsArticle != "" {
		id, err := resolveArticle(ctx, locationsArticle)
		if err != nil {
			return err
		}
		articleID = id
	}
	locs, err := newServices().searcher.WordLocations(ctx, args[0], articleID)
	if err != nil {
		return err
	}
	t := locationTable()
	for _, l := range locs {
		t.AddRow(l.ArticleID, l.Paragraph, l.Line, l.Position)
	}
	return renderCounted(cmd.OutOrStdout(), t, "occurrence")
}

func articleTable() *report.Table {
	return report.NewTable("#", "TITLE", "NEWSPAPER", "DATE", "REPORTER").AlignRight(0).MaxWidth(40)
}

func addArticleRow(t *report.Table, row int, a store.Article) {
	t.AddRow(row, a.Title, a.Newspaper, a.PublishedOn.Format("2006-01-02"), a.Reporter.FullName())
}

func locationTable() *report.Table {
	return report.NewTable("ARTICLE", "PARAGRAPH", "LINE", "POSITION").AlignRight(0, 1, 2, 3)
}

func printArticle(w io.Writer, a store.Article, text string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%s, %s\n\n%s\n",
		a.Title, a.Authors, a.Newspaper, a.PublishedOn.Format("January 2, 2006"), text)
	return err
}

func formatSlots(slots []index.Slot) string {
	parts := make([]string, len(slots))
	for i, sl := range slots {
		parts[i] = fmt.Sprintf("%d:%d:%d", sl.Paragraph, sl.Line, sl.Position)
	}
	return strings.Join(parts, " ")
}

// renderCounted renders t followed by a row count line.
func renderCounted(w io.Writer, t *report.Table, noun string) error {
	if t.Len() == 0 {
		_, err := fmt.Fprintf(w, "no %ss\n", noun)
		return err
	}
	if err := t.Render(w); err != nil {
		return err
	}
	if t.Len() != 1 {
		noun += "s"
	}
	_, err := fmt.Fprintf(w, "\n%d %s\n", t.Len(), noun)
	return err
}
