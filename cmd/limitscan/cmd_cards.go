package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/cards"
	"github.com/t3mu-analysis/limitscan/internal/config"
	"github.com/t3mu-analysis/limitscan/internal/fsutil"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
)

var cardsFlags struct {
	categories []string
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Build the unfixed and fixed slope datacards at every cut",
	RunE:  runCards,
}

// Swapped out by tests.
var fileSystem fsutil.FileSystem = fsutil.OSFileSystem{}

// The card maker runs in the working directory and appends fitted slopes there.
const cardMakerDir = "."

func init() {
	cardsCmd.Flags().StringSliceVarP(&cardsFlags.categories, "category", "c", nil, "Categories to build (default: all configured)")
}

func runCards(cmd *cobra.Command, _ []string) error {
	cfg, cats, err := selectCategories(cardsFlags.categories)
	if err != nil {
		return err
	}
	return makeCards(cmd, cfg, cats)
}

func makeCards(cmd *cobra.Command, cfg *config.ScanConfig, cats []config.Category) error {
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.Name
	}
	if rootFlags.dryRun {
		monitoring.Logf("[DRY-RUN] Would reset slope files for %v", names)
	} else if err := cards.ResetSlopeFiles(fileSystem, cardMakerDir, names); err != nil {
		return err
	}

	cmdr := newCommander()
	for _, cat := range cats {
		cuts, err := cat.ScanCuts()
		if err != nil {
			return fmt.Errorf("category %s: %w", cat.Name, err)
		}
		monitoring.Logf("category %s: %d cuts", cat.Name, len(cuts))
		if err := cards.Generate(cmd.Context(), cmdr, cards.Build(cfg, cat, cuts)); err != nil {
			return err
		}
	}
	return nil
}
