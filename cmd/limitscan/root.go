package main

import (
	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/config"
	"github.com/t3mu-analysis/limitscan/internal/limits"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
	"github.com/t3mu-analysis/limitscan/internal/runner"
	"github.com/t3mu-analysis/limitscan/internal/version"
)

var rootFlags struct {
	config  string
	verbose bool
	dryRun  bool
}

var rootCmd = &cobra.Command{
	Use:   "limitscan",
	Short: "BDT cut limit scan for the τ→3μ search",
	Long: "limitscan generates the adaptive BDT cut grid for each category,\n" +
		"builds datacards, runs combine's AsymptoticLimits at every cut and\n" +
		"plots the expected limits against the cut.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(*cobra.Command, []string) {
		monitoring.SetVerbose(rootFlags.verbose)
	},
}

// Swapped out by tests.
var (
	newCommander = func() runner.Commander {
		return runner.NewExecutor("", rootFlags.dryRun)
	}
	limitReader limits.Reader = limits.ROOTReader{}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", "", "Scan configuration file (.json, .yaml or .yml); embedded defaults when empty")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&rootFlags.dryRun, "dry-run", false, "Log external commands instead of running them")

	rootCmd.AddCommand(cutsCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(limitsCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.String()
}

func loadConfig() (*config.ScanConfig, error) {
	if rootFlags.config == "" {
		return config.DefaultScanConfig(), nil
	}
	return config.LoadScanConfig(rootFlags.config)
}

// selectCategories loads the configuration and resolves the requested
// categories, all of them when names is empty.
func selectCategories(names []string) (*config.ScanConfig, []config.Category, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cats, err := cfg.Select(names)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cats, nil
}
