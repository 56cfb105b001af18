package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/combine"
	"github.com/t3mu-analysis/limitscan/internal/config"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
)

var limitsFlags struct {
	categories []string
	parallel   int
}

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Run combine AsymptoticLimits at every cut",
	RunE:  runLimits,
}

func init() {
	f := limitsCmd.Flags()
	f.StringSliceVarP(&limitsFlags.categories, "category", "c", nil, "Categories to fit (default: all configured)")
	f.IntVarP(&limitsFlags.parallel, "parallel", "j", 0, "Concurrent combine jobs (default: from config)")
}

func runLimits(cmd *cobra.Command, _ []string) error {
	cfg, cats, err := selectCategories(limitsFlags.categories)
	if err != nil {
		return err
	}
	return computeLimits(cmd, cfg, cats, limitsFlags.parallel)
}

// computeLimits runs every category even when some jobs fail and reports
// all failures together.
func computeLimits(cmd *cobra.Command, cfg *config.ScanConfig, cats []config.Category, parallel int) error {
	if parallel < 1 {
		parallel = cfg.GetParallel()
	}
	r := &combine.Runner{
		Commander: newCommander(),
		Tool:      cfg.GetCombineTool(),
		Mass:      cfg.GetMass(),
		Parallel:  parallel,
	}

	var errs []error
	for _, cat := range cats {
		cuts, err := cat.ScanCuts()
		if err != nil {
			return fmt.Errorf("category %s: %w", cat.Name, err)
		}
		jobs := combine.Jobs(cfg.GetDatacardDir(), cat.Name, cuts)
		monitoring.Logf("category %s: %d combine jobs, %d at a time", cat.Name, len(jobs), parallel)
		if _, err := r.RunAll(cmd.Context(), jobs); err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", cat.Name, err))
		}
	}
	return errors.Join(errs...)
}
