package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t3mu-analysis/limitscan/internal/config"
	"github.com/t3mu-analysis/limitscan/internal/fsutil"
	"github.com/t3mu-analysis/limitscan/internal/limits"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
	"github.com/t3mu-analysis/limitscan/internal/runner"
	"github.com/t3mu-analysis/limitscan/internal/scan"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// resetFlags restores every flag to its default so commands can be
// executed repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI with args against a recording commander and returns
// its standard output.
func execute(t *testing.T, rec *runner.Recorder, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	origCommander, origReader := newCommander, limitReader
	t.Cleanup(func() { newCommander, limitReader = origCommander, origReader })
	newCommander = func() runner.Commander { return rec }
	limitReader = parabolaReader{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// parabolaReader serves limits whose median is lowest at cut 0.3.
type parabolaReader struct{}

func (parabolaReader) Read(path string) (limits.Limits, error) {
	base := strings.TrimSuffix(filepath.Base(path), ".AsymptoticLimits.mH120.root")
	i := strings.IndexAny(base, "-0123456789")
	if i < 0 {
		return limits.Limits{}, fmt.Errorf("unexpected file %s", path)
	}
	cut, err := strconv.ParseFloat(base[i:], 64)
	if err != nil {
		return limits.Limits{}, err
	}
	m := 5 + 10*math.Pow(cut-0.3, 2)
	return limits.Limits{Minus2: m - 2, Minus1: m - 1, Median: m, Plus1: m + 1.5, Plus2: m + 3}, nil
}

func writeConfig(t *testing.T) (path, outDir string) {
	t.Helper()
	dir := t.TempDir()
	outDir = filepath.Join(dir, "out")
	cfg := fmt.Sprintf(`output_dir: %s
categories:
  - name: taue
    interval: {min: -0.2, max: 0.6, median: 0.2}
    signal_norm: 7.41099e-6
    pdf_switch_point: -0.05
    fixed_slope: -0.57
  - name: short
    cuts: [0.1, 0.3, 0.2]
    signal_norm: 7.0e-6
`, outDir)
	path = filepath.Join(dir, "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, outDir
}

func TestCuts_Interval(t *testing.T) {
	out, err := execute(t, &runner.Recorder{}, "cuts", "--interval", "0.1:0.8:0.55")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "0.1:0.8:0.55 (26): 0.1 0.15 0.2 0.25 0.3 0.33 0.35"), out)
	assert.True(t, strings.HasSuffix(out, " 0.67 0.68 0.73 0.78\n"), out)
}

func TestCuts_InvalidInterval(t *testing.T) {
	_, err := execute(t, &runner.Recorder{}, "cuts", "--interval", "0.5:0.8:0.3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, scan.ErrInvalidInterval))
}

func TestCuts_RejectsNonFiniteInterval(t *testing.T) {
	for _, iv := range []string{"-inf:1:0", "0:+inf:0.5", "0:1:nan"} {
		_, err := execute(t, &runner.Recorder{}, "cuts", "--interval="+iv)
		require.Error(t, err, iv)
		assert.True(t, errors.Is(err, scan.ErrInvalidInterval), "%s: got %v", iv, err)
	}
}

func TestCuts_RejectsOversizedInterval(t *testing.T) {
	_, err := execute(t, &runner.Recorder{}, "cuts", "--interval", "0:1e9:0.5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, scan.ErrTooManyCuts), "got %v", err)
}

func TestCuts_DefaultCategories(t *testing.T) {
	out, err := execute(t, &runner.Recorder{}, "cuts")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "all (26): "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "taue (29): -0.2 -0.15"), lines[1])
}

func TestCuts_FromConfig(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	out, err := execute(t, &runner.Recorder{}, "--config", cfgPath, "cuts", "-c", "short")
	require.NoError(t, err)
	assert.Equal(t, "short (3): 0.1 0.2 0.3\n", out)
}

func TestCuts_UnknownCategory(t *testing.T) {
	_, err := execute(t, &runner.Recorder{}, "cuts", "-c", "taux")
	assert.True(t, errors.Is(err, config.ErrUnknownCategory))
}

func TestCards(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	work := t.TempDir()
	t.Chdir(work)
	slopes := filepath.Join(work, "Slopes_short.txt")
	require.NoError(t, os.WriteFile(slopes, []byte("stale\n"), 0o644))

	rec := &runner.Recorder{}
	_, err := execute(t, rec, "--config", cfgPath, "cards", "-c", "short")
	require.NoError(t, err)

	calls := rec.Recorded()
	require.Len(t, calls, 6)
	assert.Equal(t, "./makeTheCard.py", calls[0].Name)
	assert.Contains(t, calls[0].Args, "--bdt_point=0.1")
	assert.Contains(t, calls[1].Args, "--alt_pdf")
	assert.Contains(t, calls[5].Args, "--bdt_point=0.3")

	data, err := os.ReadFile(slopes)
	require.NoError(t, err)
	assert.Empty(t, data, "slope file should be truncated")
}

func TestCards_InMemoryFileSystem(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("Slopes_short.txt", []byte("stale\n"), 0o644))
	orig := fileSystem
	fileSystem = mem
	t.Cleanup(func() { fileSystem = orig })

	rec := &runner.Recorder{}
	_, err := execute(t, rec, "--config", cfgPath, "cards", "-c", "short")
	require.NoError(t, err)
	assert.Len(t, rec.Recorded(), 6)

	data, err := mem.ReadFile("Slopes_short.txt")
	require.NoError(t, err)
	assert.Empty(t, data, "slope file should be truncated")
	assert.False(t, mem.Exists("Slopes_taue.txt"), "only selected categories are reset")

	require.NoError(t, mem.WriteFile("Slopes_short.txt", []byte("kept\n"), 0o644))
	_, err = execute(t, &runner.Recorder{}, "--config", cfgPath, "--dry-run", "cards", "-c", "short")
	require.NoError(t, err)
	data, err = mem.ReadFile("Slopes_short.txt")
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data), "dry run must not touch slope files")
}

func TestCards_StopsAtFirstFailure(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	t.Chdir(t.TempDir())
	rec := &runner.Recorder{Respond: func(string, []string) (string, error) {
		return "", errors.New("card maker crashed")
	}}
	_, err := execute(t, rec, "--config", cfgPath, "cards", "-c", "short")
	require.Error(t, err)
	assert.Len(t, rec.Recorded(), 1)
}

func TestLimits(t *testing.T) {
	rec := &runner.Recorder{}
	_, err := execute(t, rec, "limits", "-c", "all", "-j", "4")
	require.NoError(t, err)

	calls := rec.Recorded()
	require.Len(t, calls, 26)
	seen := map[string]bool{}
	for _, c := range calls {
		assert.Equal(t, "combineTool.py", c.Name)
		seen[strings.Join(c.Args, " ")] = true
	}
	assert.True(t, seen["-M AsymptoticLimits -n all0.55 -d datacards/all/ZTT_T3mu_all_bdtcut0.55.txt"])
}

func TestLimits_ReportsEveryFailure(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	rec := &runner.Recorder{Respond: func(_ string, args []string) (string, error) {
		if args[3] != "short0.2" {
			return "", errors.New("no convergence")
		}
		return "", nil
	}}
	_, err := execute(t, rec, "--config", cfgPath, "limits", "-c", "short")
	require.Error(t, err)
	assert.Len(t, rec.Recorded(), 3)
	assert.Contains(t, err.Error(), "short0.1")
	assert.Contains(t, err.Error(), "short0.3")
}

func TestPlotAndHistory(t *testing.T) {
	cfgPath, outDir := writeConfig(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	out, err := execute(t, &runner.Recorder{}, "--config", cfgPath, "plot", "-c", "taue", "--html", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "taue: best cut 0.3, median expected 5.00\n", out)

	text, err := os.ReadFile(filepath.Join(outDir, "TextLimitstaue.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(text)), "\n")
	require.Len(t, lines, 29)
	assert.Equal(t, "bdt -0.20     median exp 7.50", lines[0])

	for _, name := range []string{"Limit_scan_Category_taue.png", "Limit_scan_Category_taue.html"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	out, err = execute(t, &runner.Recorder{}, "history", "--db", dbPath, "-c", "taue")
	require.NoError(t, err)
	assert.Contains(t, out, "Interval: -0.2:0.6:0.2\n")
	assert.Contains(t, out, "bdt 0.30     median exp 5.00\n")
	assert.Contains(t, out, "Best:     0.3 (5.00)\n")
}

func TestHistory_NoRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	_, err := execute(t, &runner.Recorder{}, "history", "--db", dbPath, "-c", "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored runs")
}

func TestScan_DryRunSkipsPlot(t *testing.T) {
	cfgPath, outDir := writeConfig(t)
	rec := &runner.Recorder{}
	_, err := execute(t, rec, "--config", cfgPath, "--dry-run", "scan", "-c", "short", "--cards")
	require.NoError(t, err)

	assert.Len(t, rec.Recorded(), 6+3)
	_, err = os.Stat(filepath.Join(outDir, "TextLimitsshort.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestScan(t *testing.T) {
	cfgPath, outDir := writeConfig(t)
	rec := &runner.Recorder{}
	out, err := execute(t, rec, "--config", cfgPath, "scan", "-c", "short", "--label", "_v1", "--bands")
	require.NoError(t, err)
	assert.Len(t, rec.Recorded(), 3)
	assert.Equal(t, "short: best cut 0.3, median expected 5.00\n", out)
	_, err = os.Stat(filepath.Join(outDir, "Limit_scan_Category_short_v1.png"))
	assert.NoError(t, err)
}

func TestPlot_RejectsUnsafeLabel(t *testing.T) {
	cfgPath, outDir := writeConfig(t)
	_, err := execute(t, &runner.Recorder{}, "--config", cfgPath, "plot", "-c", "short", "--label", "/../../x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--label")
	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, &runner.Recorder{}, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "limitscan dev"), out)
}
