// Package cards builds and runs the datacard maker invocations for a scan.
// Every cut gets two cards: one with the background slope floating and one
// with the alternative pdf and a fixed slope.
package cards

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/t3mu-analysis/limitscan/internal/config"
	"github.com/t3mu-analysis/limitscan/internal/fsutil"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
	"github.com/t3mu-analysis/limitscan/internal/runner"
	"github.com/t3mu-analysis/limitscan/internal/scan"
)

// Variant selects how the background slope is treated in a card.
type Variant string

const (
	Unfixed Variant = "unfixed"
	Fixed   Variant = "fixed"
)

// OutDir is the card maker output directory for the variant.
func (v Variant) OutDir() string {
	return string(v) + "_slope"
}

// Command is one card maker invocation.
type Command struct {
	Category string
	Cut      float64
	Variant  Variant
	Program  string
	Args     []string
}

// String renders the command as a shell line.
func (c Command) String() string {
	return runner.CommandLine(c.Program, c.Args...)
}

// SelectionAt appends the BDT requirement for cut to the base selection.
func SelectionAt(base string, cut float64) string {
	clause := "bdt_cv > " + scan.Label(cut)
	if base == "" {
		return clause
	}
	return base + "&" + clause
}

// Build returns the card maker commands for a category, two per cut in cut
// order: the unfixed-slope card first, then the fixed-slope card.
func Build(cfg *config.ScanConfig, cat config.Category, cuts []float64) []Command {
	program := cfg.GetCardMaker()
	selection := cfg.GetSelection()

	out := make([]Command, 0, 2*len(cuts))
	for _, cut := range cuts {
		label := scan.Label(cut)
		common := []string{
			"--selection=" + SelectionAt(selection, cut),
			"--category=" + cat.Name,
			"--signalnorm=" + formatFloat(cat.SignalNorm),
			"--bdt_point=" + label,
		}

		unfixed := append(append([]string(nil), common...), "--outdir="+Unfixed.OutDir())
		out = append(out, Command{Category: cat.Name, Cut: cut, Variant: Unfixed, Program: program, Args: unfixed})

		fixed := append(append([]string(nil), common...),
			"--alt_pdf",
			"--pdf_switch_point="+formatFloat(cat.PDFSwitchPoint),
			"--fixed_slope="+formatFloat(cat.FixedSlope),
			"--outdir="+Fixed.OutDir(),
		)
		out = append(out, Command{Category: cat.Name, Cut: cut, Variant: Fixed, Program: program, Args: fixed})
	}
	return out
}

// SlopeFile is the file the card maker appends fitted slopes to.
func SlopeFile(dir, category string) string {
	return filepath.Join(dir, "Slopes_"+category+".txt")
}

// ResetSlopeFiles empties the slope files of the given categories so a new
// run does not append to stale results.
func ResetSlopeFiles(fsys fsutil.FileSystem, dir string, categories []string) error {
	for _, name := range categories {
		if err := fsutil.Truncate(fsys, SlopeFile(dir, name)); err != nil {
			return fmt.Errorf("reset slope file for %s: %w", name, err)
		}
	}
	return nil
}

// Generate runs the commands in order and stops at the first failure.
func Generate(ctx context.Context, cmdr runner.Commander, cmds []Command) error {
	for i, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		monitoring.Debugf("card %d/%d: %s cut %s (%s)", i+1, len(cmds), c.Category, scan.Label(c.Cut), c.Variant)
		if _, err := cmdr.Run(ctx, c.Program, c.Args...); err != nil {
			return fmt.Errorf("card for %s cut %s (%s slope): %w", c.Category, scan.Label(c.Cut), c.Variant, err)
		}
	}
	monitoring.Logf("generated %d datacards", len(cmds))
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
