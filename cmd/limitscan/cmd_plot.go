package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/t3mu-analysis/limitscan/internal/config"
	"github.com/t3mu-analysis/limitscan/internal/fsutil"
	"github.com/t3mu-analysis/limitscan/internal/limitplot"
	"github.com/t3mu-analysis/limitscan/internal/limits"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
	"github.com/t3mu-analysis/limitscan/internal/security"
	"github.com/t3mu-analysis/limitscan/internal/store"
)

type plotOptions struct {
	categories  []string
	resultsDir  string
	outputLabel string
	bands       bool
	html        bool
	dbPath      string
}

var plotFlags plotOptions

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Read the combine outputs and plot the limit scan",
	Long: "plot reads the expected limits of every cut, writes the\n" +
		"TextLimits<category>.txt summary and the limit scan figure, and\n" +
		"reports the cut with the lowest median expected limit.",
	RunE: runPlot,
}

func init() {
	addPlotFlags(plotCmd, &plotFlags)
	plotCmd.Flags().StringSliceVarP(&plotFlags.categories, "category", "c", nil, "Categories to plot (default: all configured)")
}

func addPlotFlags(cmd *cobra.Command, o *plotOptions) {
	f := cmd.Flags()
	f.StringVar(&o.resultsDir, "results-dir", ".", "Directory holding the combine output files")
	f.StringVar(&o.outputLabel, "label", "", "Suffix appended to output file names")
	f.BoolVar(&o.bands, "bands", false, "Draw the ±1σ and ±2σ expected bands")
	f.BoolVar(&o.html, "html", false, "Also write an interactive HTML chart")
	f.StringVar(&o.dbPath, "db", "", "Record the scan in this SQLite history database")
}

func runPlot(cmd *cobra.Command, _ []string) error {
	cfg, cats, err := selectCategories(plotFlags.categories)
	if err != nil {
		return err
	}
	return plotScans(cmd, cfg, cats, plotFlags)
}

func plotScans(cmd *cobra.Command, cfg *config.ScanConfig, cats []config.Category, o plotOptions) error {
	if err := security.ValidateFilenameComponent(o.outputLabel); err != nil {
		return fmt.Errorf("--label: %w", err)
	}

	var db *store.Store
	if o.dbPath != "" {
		var err error
		if db, err = store.Open(o.dbPath); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer db.Close()
	}

	outDir := cfg.GetOutputDir()
	if err := fileSystem.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for _, cat := range cats {
		cuts, err := cat.ScanCuts()
		if err != nil {
			return fmt.Errorf("category %s: %w", cat.Name, err)
		}
		sc, err := limits.Collect(limitReader, o.resultsDir, cfg.GetMass(), cat.Name, cuts)
		if err != nil {
			return fmt.Errorf("category %s: %w", cat.Name, err)
		}
		if err := writeScan(cmd, outDir, cat, sc, o); err != nil {
			return fmt.Errorf("category %s: %w", cat.Name, err)
		}

		if db != nil {
			runID, err := db.CreateRun(cat.Name, cat.Interval)
			if err != nil {
				return err
			}
			if err := db.RecordScan(runID, sc); err != nil {
				return err
			}
			monitoring.Logf("recorded %s scan as run %s", cat.Name, runID)
		}
	}
	return nil
}

func writeScan(cmd *cobra.Command, outDir string, cat config.Category, sc *limits.Scan, o plotOptions) error {
	var text bytes.Buffer
	if err := limits.WriteText(&text, sc); err != nil {
		return err
	}
	textPath := filepath.Join(outDir, limits.TextFileName(cat.Name, o.outputLabel))
	htmlPath := filepath.Join(outDir, limitplot.HTMLFileName(cat.Name, o.outputLabel))
	for _, path := range []string{textPath, htmlPath, filepath.Join(outDir, limitplot.FileName(cat.Name, o.outputLabel))} {
		if err := security.ValidatePathWithinDirectory(path, outDir); err != nil {
			return err
		}
	}
	if err := fsutil.WriteFileAll(fileSystem, textPath, text.Bytes()); err != nil {
		return err
	}

	popts := limitplot.Options{Title: cat.Title, Bands: o.bands, OutputLabel: o.outputLabel}
	pngPath, err := limitplot.SavePNG(sc, outDir, popts)
	if err != nil {
		return err
	}
	monitoring.Logf("wrote %s and %s", textPath, pngPath)

	if o.html {
		var page bytes.Buffer
		if err := limitplot.HTML(&page, sc, popts); err != nil {
			return err
		}
		if err := fsutil.WriteFileAll(fileSystem, htmlPath, page.Bytes()); err != nil {
			return err
		}
	}

	if best, ok := sc.Best(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: best cut %s, median expected %.2f\n", cat.Name, best.Label, best.Limits.Median)
	}
	return nil
}
