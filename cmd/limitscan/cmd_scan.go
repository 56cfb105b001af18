package main

import (
	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/monitoring"
)

var scanFlags struct {
	plotOptions
	withCards bool
	parallel  int
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the full scan: limits at every cut, then the plots",
	RunE:  runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringSliceVarP(&scanFlags.categories, "category", "c", nil, "Categories to scan (default: all configured)")
	f.BoolVar(&scanFlags.withCards, "cards", false, "Build the datacards first")
	f.IntVarP(&scanFlags.parallel, "parallel", "j", 0, "Concurrent combine jobs (default: from config)")
	addPlotFlags(scanCmd, &scanFlags.plotOptions)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, cats, err := selectCategories(scanFlags.categories)
	if err != nil {
		return err
	}
	if scanFlags.withCards {
		if err := makeCards(cmd, cfg, cats); err != nil {
			return err
		}
	}
	if err := computeLimits(cmd, cfg, cats, scanFlags.parallel); err != nil {
		return err
	}
	if rootFlags.dryRun {
		monitoring.Logf("[DRY-RUN] Would plot %d categories", len(cats))
		return nil
	}
	return plotScans(cmd, cfg, cats, scanFlags.plotOptions)
}
