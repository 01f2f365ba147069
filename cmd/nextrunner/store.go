package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextrunner/nextrunner/internal/config"
	nextstore "github.com/nextrunner/nextrunner/internal/store"
)

// newStoreCmd builds the `store` subcommand group: list, show, and
// prune thinly wrap internal/store's record-store operations (spec.md
// §11, §6).
func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and manage the recorded-run store",
	}
	cmd.AddCommand(newStoreListCmd(), newStoreShowCmd(), newStorePruneCmd())
	return cmd
}

func layoutFor(cmd *cobra.Command) nextstore.Layout {
	workspace, _ := cmd.Flags().GetString("workspace")
	return nextstore.NewLayout(config.StoreDir(workspace))
}

func newStoreListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := layoutFor(cmd)
			idx, err := nextstore.LoadIndex(layout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range idx.Runs {
				fmt.Fprintf(out, "%s  %-12s  %s  %d passed / %d failed\n",
					r.ID, r.ProfileName, r.StartedAt.Format(time.RFC3339), r.Stats.Passed, r.Stats.Failed)
			}
			return nil
		},
	}
}

func newStoreShowCmd() *cobra.Command {
	var rerunTree bool
	cmd := &cobra.Command{
		Use:   "show <run-id-prefix>",
		Short: "Show one recorded run's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := layoutFor(cmd)
			id, err := nextstore.ResolvePrefix(layout, args[0])
			if err != nil {
				return err
			}
			info, err := nextstore.LoadRunInfo(layout, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:          %s\n", info.ID)
			if info.HasParent() {
				fmt.Fprintf(out, "rerun of:    %s\n", info.ParentID)
			}
			fmt.Fprintf(out, "profile:     %s\n", info.ProfileName)
			fmt.Fprintf(out, "started:     %s\n", info.StartedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "finished:    %s\n", info.FinishedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "stats:       %d total, %d passed, %d failed, %d skipped, %d flaky\n",
				info.Stats.Total, info.Stats.Passed, info.Stats.Failed, info.Stats.Skipped, info.Stats.Flaky)
			fmt.Fprintf(out, "replayable:  %t\n", nextstore.Replayable(layout, info.ID))

			if rerunTree {
				idx, err := nextstore.LoadIndex(layout)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "rerun tree:")
				printRerunTree(out, nextstore.NewTree(nextstore.Lineages(idx)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rerunTree, "rerun-tree", false, "also print the full forest of rerun lineages in the store")
	return cmd
}

// printRerunTree renders tree's display projection as indented branches,
// one line per run, using the ancestor-continuation bitmap to decide
// whether each indent column draws a vertical bar or blank space.
func printRerunTree(out io.Writer, tree *nextstore.Tree) {
	for _, entry := range tree.Traversal() {
		var prefix strings.Builder
		for _, continues := range entry.AncestorContinuation {
			if continues {
				prefix.WriteString("│   ")
			} else {
				prefix.WriteString("    ")
			}
		}
		branch := "├── "
		if entry.IsLastChild {
			branch = "└── "
		}
		if entry.Depth == 0 {
			branch = ""
		}
		fmt.Fprintf(out, "  %s%s%s\n", prefix.String(), branch, entry.ID)
	}
}

func newStorePruneCmd() *cobra.Command {
	var (
		keep      int
		olderThan time.Duration
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop old recorded runs beyond a count or age cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := layoutFor(cmd)
			result, err := nextstore.Prune(layout, keep, olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d runs, kept %d\n", len(result.Removed), result.Kept)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 20, "keep at most this many of the most recent runs")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "also drop runs older than this duration (0 disables)")
	return cmd
}
