// Command newsctl is the operator command line for the news archive.
//
// It works directly against PostgreSQL: it ingests article files and runs
// every read query the searcher exposes, printing the results as text
// tables.
//
// Usage:
//
//	newsctl ingest articles/*.txt
//	newsctl search --word Jordan
//	newsctl context "River Talks" Jordan --radius 1
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/phrase"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store"
	pgstore "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/wordgroup"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/resilience"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg     *config.Config
	archive store.Store
	closeDB func() error
)

var rootCmd = &cobra.Command{
	Use:   "newsctl",
	Short: "Query and load the news archive",
	Long: `newsctl ingests newspaper articles into the archive and answers
questions about them: who wrote what, where a word occurs, the lines around
it, word statistics, word groups and literal phrases.

Articles are addressed by title; a numeric id works when no article has
that title.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.SetupWriter(os.Stderr, level, "text")

		if cfg == nil {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		}
		if archive != nil {
			return nil
		}
		db, err := postgres.Connect(commandContext(cmd), cfg.Postgres,
			resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		archive = pgstore.New(db)
		closeDB = db.Close
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeDB != nil {
			if err := closeDB(); err != nil {
				slog.Warn("closing database", "error", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: built-in defaults plus NEWS_* env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	groupsCmd.AddCommand(groupsListCmd, groupsCreateCmd, groupsAddCmd, groupsMembersCmd, groupsIndexCmd)
	phrasesCmd.AddCommand(phrasesListCmd, phrasesDefineCmd, phrasesSearchCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(wordsCmd)
	rootCmd.AddCommand(wordAtCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(frequencyCmd)
	rootCmd.AddCommand(lengthsCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(phrasesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperrors.Message(err))
		os.Exit(1)
	}
}

// commandContext returns the command's context. Commands built by hand in
// tests carry none.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

// withTimeout bounds one command run by --timeout.
func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(commandContext(cmd))
	}
	return context.WithTimeout(commandContext(cmd), timeout)
}

// services are the query layers newsctl drives, built over archive.
type services struct {
	searcher *searcher.Searcher
	stats    *stats.Calculator
	groups   *wordgroup.Service
	phrases  *phrase.Service
}

func newServices() *services {
	c := currentConfig()
	s := searcher.New(archive, nil, nil, nil, searcher.Options{
		ContextRadius: c.Reader.ContextRadius,
		MaxResults:    c.Reader.MaxResults,
	})
	return &services{
		searcher: s,
		stats:    stats.NewCalculator(archive),
		groups:   wordgroup.New(archive),
		phrases:  phrase.New(archive, archive, s),
	}
}

func newPublisher() *publisher.Publisher {
	return publisher.New(archive, nil, nil, publisher.OptionsFromConfig(currentConfig()))
}

func currentConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// resolveArticle maps a title to its article id. A numeric ref that is not
// a title is taken as an id.
func resolveArticle(ctx context.Context, ref string) (int64, error) {
	id, ok, err := archive.FindArticleIDByTitle(ctx, ref)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}
	if n, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		if _, found, err := archive.Article(ctx, n); err != nil {
			return 0, err
		} else if found {
			return n, nil
		}
	}
	return 0, apperrors.NotFound("no article titled %q", ref)
}
