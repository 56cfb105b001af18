// Package config loads the scan configuration: which categories are
// scanned, over which BDT interval, and how the external tools are invoked.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/t3mu-analysis/limitscan/internal/scan"
	"github.com/t3mu-analysis/limitscan/internal/security"
)

// scan.defaults.json is the single source of truth for the analysis
// defaults: the five categories with their intervals and card-maker
// settings, the dimuon resonance vetoes, and the tool names.
//
//go:embed scan.defaults.json
var defaultsJSON []byte

// ErrUnknownCategory is returned by Category for names not in the config.
var ErrUnknownCategory = errors.New("unknown category")

// Fallbacks used by the Get* methods when a field is omitted.
const (
	defaultCardMaker   = "./makeTheCard.py"
	defaultCombineTool = "combineTool.py"
	defaultDatacardDir = "datacards"
	defaultOutputDir   = "."
	defaultMass        = 120
	defaultParallel    = 1
)

// ScanConfig is the root configuration. Pointer fields are optional; the
// Get* methods supply fallbacks for any field a file leaves out.
type ScanConfig struct {
	Selection   *string `json:"selection,omitempty" yaml:"selection,omitempty"`
	CardMaker   *string `json:"card_maker,omitempty" yaml:"card_maker,omitempty"`
	CombineTool *string `json:"combine_tool,omitempty" yaml:"combine_tool,omitempty"`
	DatacardDir *string `json:"datacard_dir,omitempty" yaml:"datacard_dir,omitempty"`
	OutputDir   *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Mass        *int    `json:"mass,omitempty" yaml:"mass,omitempty"`
	Parallel    *int    `json:"parallel,omitempty" yaml:"parallel,omitempty"`

	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Category describes one analysis category and its scan.
type Category struct {
	Name string `json:"name" yaml:"name"`
	// Title overrides the plot label for the category.
	Title    string        `json:"title,omitempty" yaml:"title,omitempty"`
	Interval scan.Interval `json:"interval" yaml:"interval"`
	// Cuts replaces the adaptive grid with an explicit list when set.
	Cuts []float64 `json:"cuts,omitempty" yaml:"cuts,omitempty"`

	// Card maker settings.
	SignalNorm     float64 `json:"signal_norm" yaml:"signal_norm"`
	PDFSwitchPoint float64 `json:"pdf_switch_point" yaml:"pdf_switch_point"`
	FixedSlope     float64 `json:"fixed_slope" yaml:"fixed_slope"`
}

// DefaultScanConfig returns the embedded analysis defaults.
func DefaultScanConfig() *ScanConfig {
	cfg := &ScanConfig{}
	if err := json.Unmarshal(defaultsJSON, cfg); err != nil {
		panic("config: embedded scan.defaults.json is invalid: " + err.Error())
	}
	return cfg
}

// LoadScanConfig loads a ScanConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
// Fields omitted from the file fall back to the embedded defaults, so
// partial configs are safe.
func LoadScanConfig(path string) (*ScanConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ScanConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	cfg.applyDefaults(DefaultScanConfig())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyDefaults fills omitted fields from defaults. A file that lists any
// categories replaces the default category set entirely.
func (c *ScanConfig) applyDefaults(d *ScanConfig) {
	if c.Selection == nil {
		c.Selection = d.Selection
	}
	if c.CardMaker == nil {
		c.CardMaker = d.CardMaker
	}
	if c.CombineTool == nil {
		c.CombineTool = d.CombineTool
	}
	if c.DatacardDir == nil {
		c.DatacardDir = d.DatacardDir
	}
	if c.OutputDir == nil {
		c.OutputDir = d.OutputDir
	}
	if c.Mass == nil {
		c.Mass = d.Mass
	}
	if c.Parallel == nil {
		c.Parallel = d.Parallel
	}
	if len(c.Categories) == 0 {
		c.Categories = d.Categories
	}
}

// Validate checks that the configuration values are valid.
func (c *ScanConfig) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("no categories configured")
	}

	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		// Names end up in datacard, combine and plot file names.
		if err := security.ValidateFilenameComponent(cat.Name); err != nil {
			return fmt.Errorf("category %d: %w", i, err)
		}

		if err := cat.validateCuts(); err != nil {
			return fmt.Errorf("category %q: %w", cat.Name, err)
		}
		if cat.SignalNorm < 0 {
			return fmt.Errorf("category %q: signal_norm must be non-negative, got %g", cat.Name, cat.SignalNorm)
		}
	}

	if c.Mass != nil && *c.Mass <= 0 {
		return fmt.Errorf("mass must be positive, got %d", *c.Mass)
	}
	if c.Parallel != nil && *c.Parallel < 0 {
		return fmt.Errorf("parallel must be non-negative, got %d", *c.Parallel)
	}
	return nil
}

// validateCuts checks the explicit cut list when one is given, otherwise
// the interval the adaptive grid is generated over.
func (cat Category) validateCuts() error {
	if len(cat.Cuts) == 0 {
		if err := cat.Interval.Validate(); err != nil {
			return err
		}
		return cat.Interval.CheckSize()
	}
	if len(cat.Cuts) > scan.MaxCuts {
		return fmt.Errorf("%w: %d explicit cuts, limit is %d", scan.ErrTooManyCuts, len(cat.Cuts), scan.MaxCuts)
	}
	for i, v := range cat.Cuts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("cut %d is not finite: %g", i, v)
		}
	}
	return nil
}

// Category returns the named category.
func (c *ScanConfig) Category(name string) (Category, error) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, nil
		}
	}
	return Category{}, fmt.Errorf("%w %q (configured: %s)", ErrUnknownCategory, name, strings.Join(c.CategoryNames(), ", "))
}

// Select returns the named categories in the given order, or every
// configured category when names is empty.
func (c *ScanConfig) Select(names []string) ([]Category, error) {
	if len(names) == 0 {
		return c.Categories, nil
	}
	out := make([]Category, 0, len(names))
	for _, name := range names {
		cat, err := c.Category(name)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

// CategoryNames lists the configured category names in order.
func (c *ScanConfig) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// ScanCuts returns the category's explicit cuts, normalised, or the
// adaptive grid over its interval.
func (cat Category) ScanCuts() ([]float64, error) {
	if len(cat.Cuts) > 0 {
		cuts := append([]float64(nil), cat.Cuts...)
		return scan.Normalize(cuts), nil
	}
	return cat.Interval.Cuts()
}

// GetSelection returns the base selection string or an empty selection.
func (c *ScanConfig) GetSelection() string {
	if c.Selection == nil {
		return ""
	}
	return *c.Selection
}

// GetCardMaker returns the card maker executable.
func (c *ScanConfig) GetCardMaker() string {
	if c.CardMaker == nil || *c.CardMaker == "" {
		return defaultCardMaker
	}
	return *c.CardMaker
}

// GetCombineTool returns the combine driver executable.
func (c *ScanConfig) GetCombineTool() string {
	if c.CombineTool == nil || *c.CombineTool == "" {
		return defaultCombineTool
	}
	return *c.CombineTool
}

// GetDatacardDir returns the directory holding per-category datacards.
func (c *ScanConfig) GetDatacardDir() string {
	if c.DatacardDir == nil || *c.DatacardDir == "" {
		return defaultDatacardDir
	}
	return *c.DatacardDir
}

// GetOutputDir returns the directory for text summaries and plots.
func (c *ScanConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return defaultOutputDir
	}
	return *c.OutputDir
}

// GetMass returns the Higgs mass hypothesis combine names its outputs with.
func (c *ScanConfig) GetMass() int {
	if c.Mass == nil {
		return defaultMass
	}
	return *c.Mass
}

// GetParallel returns how many combine jobs may run at once.
func (c *ScanConfig) GetParallel() int {
	if c.Parallel == nil || *c.Parallel < 1 {
		return defaultParallel
	}
	return *c.Parallel
}
