package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/phrase"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/report"
)

var groupIndexArticle string

var phraseSearchArticle string

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage named groups of words",
	Long: `A word group is a description plus a set of words that occur in the
archive. The group index lists where every member occurs.`,
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every group with its members",
	Args:  cobra.NoArgs,
	RunE:  runGroupsList,
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create DESCRIPTION",
	Short: "Create an empty group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsCreate,
}

var groupsAddCmd = &cobra.Command{
	Use:   "add DESCRIPTION WORD...",
	Short: "Add words to a group",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGroupsAdd,
}

var groupsMembersCmd = &cobra.Command{
	Use:   "members DESCRIPTION",
	Short: "List the words of a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsMembers,
}

var groupsIndexCmd = &cobra.Command{
	Use:   "index DESCRIPTION",
	Short: "List where each member of a group occurs",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsIndex,
}

var phrasesCmd = &cobra.Command{
	Use:   "phrases",
	Short: "Manage and search literal phrases",
	Long: `Phrases are printable ASCII strings of up to 100 characters. Searches
are exact and case-sensitive and may span line breaks.`,
}

var phrasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List defined phrases",
	Args:  cobra.NoArgs,
	RunE:  runPhrasesList,
}

var phrasesDefineCmd = &cobra.Command{
	Use:   "define PHRASE",
	Short: "Store a phrase",
	Args:  cobra.ExactArgs(1),
	RunE:  runPhrasesDefine,
}

var phrasesSearchCmd = &cobra.Command{
	Use:   "search PHRASE",
	Short: "Find a phrase in one article or the whole archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runPhrasesSearch,
}

func init() {
	groupsIndexCmd.Flags().StringVar(&groupIndexArticle, "article", "", "Restrict to one article")
	phrasesSearchCmd.Flags().StringVar(&phraseSearchArticle, "article", "", "Search only this article")
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	groups, err := newServices().groups.List(ctx)
	if err != nil {
		return err
	}
	t := report.NewTable("ID", "DESCRIPTION", "WORDS").AlignRight(0).MaxWidth(60)
	for _, g := range groups {
		t.AddRow(g.ID, g.Description, strings.Join(g.Words, ", "))
	}
	return renderCounted(cmd.OutOrStdout(), t, "group")
}

func runGroupsCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	id, err := newServices().groups.Create(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created group %d %q\n", id, strings.TrimSpace(args[0]))
	return nil
}

// runGroupsAdd stops at the first word that cannot be added; earlier words
// stay in the group.
func runGroupsAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	groups := newServices().groups
	for _, word := range args[1:] {
		if err := groups.AddWord(ctx, args[0], word); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", word)
	}
	return nil
}

func runGroupsMembers(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	words, err := newServices().groups.Members(ctx, args[0])
	if err != nil {
		return err
	}
	for _, w := range words {
		fmt.Fprintln(cmd.OutOrStdout(), w)
	}
	return nil
}

func runGroupsIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	var articleID int64
	if groupIndexArticle != "" {
		id, err := resolveArticle(ctx, groupIndexArticle)
		if err != nil {
			return err
		}
		articleID = id
	}
	members, err := newServices().groups.Index(ctx, args[0], articleID)
	if err != nil {
		return err
	}
	t := report.NewTable("WORD", "ARTICLE", "PARAGRAPH", "LINE", "POSITION").AlignRight(1, 2, 3, 4)
	for _, m := range members {
		if len(m.Locations) == 0 {
			t.AddRow(m.Word, "-", "-", "-", "-")
			continue
		}
		for _, l := range m.Locations {
			t.AddRow(m.Word, l.ArticleID, l.Paragraph, l.Line, l.Position)
		}
	}
	return t.Render(cmd.OutOrStdout())
}

func runPhrasesList(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	phrases, err := newServices().phrases.List(ctx)
	if err != nil {
		return err
	}
	t := report.NewTable("ID", "PHRASE").AlignRight(0)
	for _, p := range phrases {
		t.AddRow(p.ID, p.Phrase)
	}
	return renderCounted(cmd.OutOrStdout(), t, "phrase")
}

func runPhrasesDefine(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	id, err := newServices().phrases.Define(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "defined phrase %d %q\n", id, args[0])
	return nil
}

func runPhrasesSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	phrases := newServices().phrases

	var results []phrase.ArticleMatches
	if phraseSearchArticle != "" {
		id, err := resolveArticle(ctx, phraseSearchArticle)
		if err != nil {
			return err
		}
		matches, err := phrases.Search(ctx, id, args[0])
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			results = append(results, phrase.ArticleMatches{ArticleID: id, Title: phraseSearchArticle, Matches: matches})
		}
	} else {
		var err error
		results, err = phrases.SearchAll(ctx, args[0])
		if err != nil {
			return err
		}
	}

	t := report.NewTable("ARTICLE", "TITLE", "MATCHES", "OFFSETS").AlignRight(0, 2).MaxWidth(48)
	for _, r := range results {
		offsets := make([]string, len(r.Matches))
		for i, m := range r.Matches {
			offsets[i] = fmt.Sprint(m.Start)
		}
		t.AddRow(r.ArticleID, r.Title, len(r.Matches), strings.Join(offsets, " "))
	}
	return renderCounted(cmd.OutOrStdout(), t, "article")
}
