package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/config"
	"github.com/bugout-dev/spire/pkg/db"
	"github.com/bugout-dev/spire/pkg/search"
	"github.com/bugout-dev/spire/pkg/search/index"
	"github.com/bugout-dev/spire/pkg/server/store"
	gormstore "github.com/bugout-dev/spire/pkg/server/store/gorm"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage journal search indices",
	Long:  `Manage the per-journal search indices: create, drop, synchronize, and query.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'index' requires a subcommand (create, drop, synchronize, search, status)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var indexCreateCmd = &cobra.Command{
	Use:   "create JOURNAL_ID",
	Short: "Create the search index for a journal",
	Long: `Create the search index for a journal and register it in the journal
catalog. Safe to run on a journal that already has an index.

Example:
  spirectl index create 6b3f7f27-50c3-4c81-a3eb-2f0d1a7f0f5e`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stack, journalID := mustSearchStack(args[0])
		defer stack.close()

		journal, err := stack.journals.FetchJournal(journalID)
		if err != nil {
			fatalf("Failed to fetch journal: %v", err)
		}

		if err := stack.gateway.EnsureJournalIndex(context.Background(), journal); err != nil {
			fatalf("Failed to create index: %v", err)
		}

		journal, err = stack.journals.FetchJournal(journalID)
		if err != nil {
			fatalf("Failed to fetch journal: %v", err)
		}
		fmt.Printf("Index ready: %s\n", journal.SearchIndex)
	},
}

var indexDropCmd = &cobra.Command{
	Use:   "drop JOURNAL_ID",
	Short: "Drop the search index for a journal",
	Long: `Drop the search index for a journal and remove it from the journal
catalog. Works on soft-deleted journals too, so it can clean up after a
journal deletion whose index drop failed.

Example:
  spirectl index drop 6b3f7f27-50c3-4c81-a3eb-2f0d1a7f0f5e`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stack, journalID := mustSearchStack(args[0])
		defer stack.close()

		journal, err := stack.journals.FetchJournalAny(journalID)
		if err != nil {
			fatalf("Failed to fetch journal: %v", err)
		}
		if journal.SearchIndex == "" {
			fmt.Println("Journal has no search index")
			return
		}

		if err := stack.gateway.DropJournalIndex(context.Background(), journal); err != nil {
			fatalf("Failed to drop index: %v", err)
		}
		fmt.Printf("Dropped index: %s\n", journal.SearchIndex)
	},
}

var indexSynchronizeCmd = &cobra.Command{
	Use:     "synchronize JOURNAL_ID",
	Aliases: []string{"sync"},
	Short:   "Rebuild a journal's search index from the database",
	Long: `Rebuild a journal's search index from the database.

Every entry in the journal is re-indexed. Entries whose indexed version is
already current are left alone, so the pass repairs indices that fell
behind relational writes.

Example:
  spirectl index synchronize 6b3f7f27-50c3-4c81-a3eb-2f0d1a7f0f5e`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stack, journalID := mustSearchStack(args[0])
		defer stack.close()

		count, err := stack.gateway.ReindexJournal(context.Background(), journalID)
		if err != nil {
			fatalf("Synchronize failed: %v", err)
		}
		fmt.Printf("Synchronized %d entries\n", count)
	},
}

var indexSearchCmd = &cobra.Command{
	Use:   "search JOURNAL_ID [QUERY...]",
	Short: "Search a journal's index as its owner",
	Long: `Search a journal's index. The query runs with the journal owner's
identity, so it sees everything the owner would see.

Example:
  spirectl index search 6b3f7f27-50c3-4c81-a3eb-2f0d1a7f0f5e deploy failure
  spirectl index search 6b3f7f27-50c3-4c81-a3eb-2f0d1a7f0f5e --filter tag:ops`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stack, journalID := mustSearchStack(args[0])
		defer stack.close()

		journal, err := stack.journals.FetchJournal(journalID)
		if err != nil {
			fatalf("Failed to fetch journal: %v", err)
		}

		filters, _ := cmd.Flags().GetStringArray("filter")
		limit, _ := cmd.Flags().GetInt("limit")
		cursor, _ := cmd.Flags().GetString("cursor")

		page, err := stack.gateway.Search(context.Background(), acl.Principal{ID: journal.OwnerID}, search.Request{
			JournalID: journalID,
			Query:     strings.Join(args[1:], " "),
			Filters:   filters,
			Limit:     limit,
			Cursor:    cursor,
		})
		if err != nil {
			fatalf("Search failed: %v", err)
		}

		fmt.Printf("Total: %d (max score %.4f)\n", page.Total, page.MaxScore)
		for _, result := range page.Results {
			title := result.Entry.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%.4f  %s  %s", result.Score, result.Entry.ID, title)
			if len(result.Entry.Tags) > 0 {
				fmt.Printf("  [%s]", strings.Join(result.Entry.Tags, ", "))
			}
			fmt.Println()
		}
		if page.NextCursor != "" {
			fmt.Printf("Next cursor: %s\n", page.NextCursor)
		}
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status JOURNAL_ID",
	Short: "Show a journal's index identifier and document count",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stack, journalID := mustSearchStack(args[0])
		defer stack.close()

		journal, err := stack.journals.FetchJournal(journalID)
		if err != nil {
			fatalf("Failed to fetch journal: %v", err)
		}
		if journal.SearchIndex == "" {
			fmt.Println("Journal has no search index")
			return
		}

		count, err := stack.indexes.DocCount(journal.SearchIndex)
		if err != nil {
			fatalf("Failed to read index: %v", err)
		}
		fmt.Printf("Index: %s\n", journal.SearchIndex)
		fmt.Printf("Documents: %d\n", count)
	},
}

var indexJournalsCmd = &cobra.Command{
	Use:   "journals [QUERY]",
	Short: "Search the journal catalog by name",
	Run: func(cmd *cobra.Command, args []string) {
		stack := mustStack()
		defer stack.close()

		limit, _ := cmd.Flags().GetInt("limit")
		text := strings.Join(args, " ")

		results, err := stack.indexes.QueryJournals(text, limit)
		if err != nil {
			fatalf("Catalog search failed: %v", err)
		}

		fmt.Printf("Total: %d\n", results.Total)
		for _, hit := range results.Hits {
			fmt.Printf("%.4f  %s\n", hit.Score, hit.EntryID)
		}
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(indexDropCmd)
	indexCmd.AddCommand(indexSynchronizeCmd)
	indexCmd.AddCommand(indexSearchCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexJournalsCmd)

	indexSearchCmd.Flags().StringArray("filter", nil, "tag filter, repeatable (e.g. tag:ops)")
	indexSearchCmd.Flags().Int("limit", 0, "maximum results per page")
	indexSearchCmd.Flags().String("cursor", "", "cursor from a previous page")
	indexJournalsCmd.Flags().Int("limit", 10, "maximum results")
}

// searchStack bundles everything an index subcommand needs.
type searchStack struct {
	journals store.JournalsStore
	indexes  *index.Manager
	gateway  *search.Gateway
	db       *gorm.DB
}

func (s *searchStack) close() {
	_ = s.indexes.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// mustStack connects to the database and wires the search stack, exiting
// on failure.
func mustStack() *searchStack {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Failed to load configuration: %v", err)
	}

	gormDB, err := db.Connect(db.Config{URL: db.URL()})
	if err != nil {
		fatalf("Unable to connect to DB: %v", err)
	}

	indexOpts := []index.Option{}
	if cfg.SearchTagPrefixMatch {
		indexOpts = append(indexOpts, index.WithPrefixTags(true))
	}
	indexes := index.NewManager(cfg.SearchIndexRoot, indexOpts...)

	journals := gormstore.NewJournalsStore(gormDB)
	entries := gormstore.NewEntriesStore(gormDB)
	grants := gormstore.NewGrantsStore(gormDB)
	resolver := acl.NewResolver(journals, grants)
	gateway := search.NewGateway(resolver, journals, entries, indexes, zap.NewNop(), cfg.SearchResultLimitMax)

	return &searchStack{
		journals: journals,
		indexes:  indexes,
		gateway:  gateway,
		db:       gormDB,
	}
}

func mustSearchStack(rawJournalID string) (*searchStack, uuid.UUID) {
	journalID, err := uuid.Parse(rawJournalID)
	if err != nil {
		fatalf("Bad journal id %q: %v", rawJournalID, err)
	}
	return mustStack(), journalID
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
