package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit    int
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List or search articles you have read",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			store, engine, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if engine != nil {
				defer engine.Close()
			}

			out := cmd.OutOrStdout()

			if clearAll {
				if err := store.ClearHistory(); err != nil {
					return fmt.Errorf("clearing history: %w", err)
				}
				if engine != nil {
					engine.OnHistoryCleared()
				}
				fmt.Fprintln(out, "History cleared.")
				return nil
			}

			query := strings.TrimSpace(strings.Join(args, " "))
			// the index ignores one-letter queries, the title filter below does not
			if len(query) >= 2 && engine != nil {
				results, err := engine.Search(query, limit)
				if err != nil {
					return fmt.Errorf("searching history: %w", err)
				}
				printHistory(out, results)
				return nil
			}

			articles, err := store.GetHistory(limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			results := make([]*search.Result, 0, len(articles))
			for _, a := range articles {
				if query != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(query)) {
					continue
				}
				results = append(results, &search.Result{Article: a})
			}
			printHistory(out, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "forget every article in the history")
	return cmd
}

func printHistory(w io.Writer, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, tui.MsgNoHistory)
		return
	}
	for _, r := range results {
		printHistoryEntry(w, r.Article)
	}
}

func printHistoryEntry(w io.Writer, a *storage.Article) {
	read := ""
	if !a.ReadAt.IsZero() {
		read = a.ReadAt.Local().Format("2006-01-02 15:04") + "  "
	}
	fmt.Fprintf(w, "%s%s\n", read, a.Title)
	fmt.Fprintf(w, "                  %s\n", a.URL)
}
