package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/controller"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
	"github.com/pders01/headlines/internal/tui"
)

const cliDateLayout = "Jan 2 2006, 15:04"

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		sortFlag string
		page     int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Print one page of results without starting the terminal UI",
		Long: `Search the configured provider and print a single page of results.

An empty query searches for the configured fallback term. Results are grouped
by date in the day, month and year orders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			mode, err := resolveMode(sortFlag, cfg)
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", page)
			}

			src, err := feed.NewSource(cfg.Provider)
			if err != nil {
				return err
			}

			ctrl := controller.New(controller.Options{
				Query:    strings.Join(args, " "),
				Mode:     mode,
				PageSize: cfg.Provider.PageSize,
				Sentinel: cfg.Provider.RemovedTitle,
				Location: cfg.Location(),
			})

			ctx := cmd.Context()
			ctrl.Run(ctx, src, ctrl.Refresh())
			for ctrl.Page() < page {
				before := ctrl.Page()
				req, fetch := ctrl.NextPage()
				if ctrl.Page() == before {
					break
				}
				if fetch {
					ctrl.Run(ctx, src, req)
				}
			}

			v := ctrl.View()
			if v.Status == controller.StatusError {
				// the cause is already in the log; Message carries any provider detail
				return errors.New(v.Message)
			}
			if v.Page < page {
				return fmt.Errorf("page %d is past the last page (%d)", page, v.Page)
			}

			printView(cmd.OutOrStdout(), v, cfg.Location())
			return nil
		},
	}

	cmd.Flags().StringVar(&sortFlag, "sort", "", "result order: day, month, year, recency, relevance or popularity")
	cmd.Flags().IntVar(&page, "page", 1, "page to print")
	return cmd
}

func resolveMode(flag string, cfg *config.Config) (timeline.Mode, error) {
	if flag != "" {
		mode, err := timeline.ParseMode(flag)
		if err != nil {
			return 0, fmt.Errorf("--sort: %w", err)
		}
		return mode, nil
	}
	if mode, err := timeline.ParseMode(cfg.UI.DefaultSort); err == nil {
		return mode, nil
	}
	return timeline.ModeMonth, nil
}

func printView(w io.Writer, v controller.View, loc *time.Location) {
	if v.Status == controller.StatusEmpty || len(v.Articles) == 0 {
		fmt.Fprintln(w, tui.MsgNoArticles)
		return
	}

	if v.Mode.Bucketed() {
		n := 1
		for i, b := range v.Buckets {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "## %s (%d)\n", b.Label, len(b.Articles))
			for _, a := range b.Articles {
				printArticle(w, n, a, loc)
				n++
			}
		}
	} else {
		for i, a := range v.Articles {
			printArticle(w, i+1, a, loc)
		}
	}

	fmt.Fprintf(w, "\n%s • %s\n", v.Mode.Title(), tui.MsgPageSummary(v.Page, v.Loaded, v.Total))
}

func printArticle(w io.Writer, n int, a *storage.Article, loc *time.Location) {
	var meta []string
	if a.Source != "" {
		meta = append(meta, a.Source)
	}
	if t, ok := timeline.ParsePublished(a.PublishedAt); ok {
		if loc != nil {
			t = t.In(loc)
		}
		meta = append(meta, t.Format(cliDateLayout))
	}

	title := a.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%3d. %s\n", n, title)
	if len(meta) > 0 {
		fmt.Fprintf(w, "     %s\n", strings.Join(meta, " • "))
	}
	if a.URL != "" {
		fmt.Fprintf(w, "     %s\n", a.URL)
	}
}
