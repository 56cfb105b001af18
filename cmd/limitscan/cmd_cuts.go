package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/scan"
)

var cutsFlags struct {
	categories []string
	interval   string
}

var cutsCmd = &cobra.Command{
	Use:   "cuts",
	Short: "Print the BDT cut grid of each category",
	Example: "  limitscan cuts --category taue\n" +
		"  limitscan cuts --interval 0.1:0.8:0.55",
	RunE: runCuts,
}

func init() {
	f := cutsCmd.Flags()
	f.StringSliceVarP(&cutsFlags.categories, "category", "c", nil, "Categories to print (default: all configured)")
	f.StringVar(&cutsFlags.interval, "interval", "", "Print the grid for min:max:median instead of a category")
	cutsCmd.MarkFlagsMutuallyExclusive("category", "interval")
}

func runCuts(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if cutsFlags.interval != "" {
		iv, err := scan.ParseInterval(cutsFlags.interval)
		if err != nil {
			return err
		}
		cuts, err := iv.Cuts()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%d): %s\n", iv, len(cuts), joinLabels(cuts))
		return nil
	}

	_, cats, err := selectCategories(cutsFlags.categories)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		cuts, err := cat.ScanCuts()
		if err != nil {
			return fmt.Errorf("category %s: %w", cat.Name, err)
		}
		fmt.Fprintf(out, "%s (%d): %s\n", cat.Name, len(cuts), joinLabels(cuts))
	}
	return nil
}

func joinLabels(cuts []float64) string {
	labels := make([]string, len(cuts))
	for i, c := range cuts {
		labels[i] = scan.Label(c)
	}
	return strings.Join(labels, " ")
}
