package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/store"
)

var historyFlags struct {
	dbPath   string
	category string
	all      bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored scans of a category",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.dbPath, "db", "", "SQLite history database (required)")
	f.StringVarP(&historyFlags.category, "category", "c", "", "Category (required)")
	f.BoolVar(&historyFlags.all, "all", false, "List every run instead of the latest run's points")

	_ = historyCmd.MarkFlagRequired("db")
	_ = historyCmd.MarkFlagRequired("category")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	db, err := store.Open(historyFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if historyFlags.all {
		runs, err := db.Runs(historyFlags.category)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  %s\n", r.RunID, time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339), r.Interval)
		}
		return nil
	}

	run, sc, err := db.LatestScan(historyFlags.category)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run:      %s\n", run.RunID)
	fmt.Fprintf(out, "Created:  %s\n", time.Unix(0, run.CreatedAt).UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "Interval: %s\n", run.Interval)
	for _, p := range sc.Points {
		fmt.Fprintf(out, "bdt %.2f     median exp %.2f\n", p.Cut, p.Limits.Median)
	}
	if best, ok := sc.Best(); ok {
		fmt.Fprintf(out, "Best:     %s (%.2f)\n", best.Label, best.Limits.Median)
	}
	return nil
}
