// Package combine schedules the asymptotic limit calculation for every
// point of a scan.
package combine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/t3mu-analysis/limitscan/internal/monitoring"
	"github.com/t3mu-analysis/limitscan/internal/runner"
	"github.com/t3mu-analysis/limitscan/internal/scan"
)

// Method is the combine method every job runs.
const Method = "AsymptoticLimits"

// Job is the limit calculation for one category at one cut.
type Job struct {
	Category string
	Cut      float64
	Label    string
	Datacard string
}

// Result is the outcome of one job.
type Result struct {
	Job    Job
	Output string
	Err    error
}

// DatacardPath is where the card maker leaves the card for a category and cut label.
func DatacardPath(dir, category, label string) string {
	return filepath.Join(dir, category, "ZTT_T3mu_"+category+"_bdtcut"+label+".txt")
}

// OutputFile is the ROOT file combine writes for a job name and mass.
func OutputFile(name string, mass int) string {
	return "higgsCombine" + name + "." + Method + ".mH" + strconv.Itoa(mass) + ".root"
}

// Jobs returns one job per cut, in cut order.
func Jobs(datacardDir, category string, cuts []float64) []Job {
	jobs := make([]Job, len(cuts))
	for i, cut := range cuts {
		label := scan.Label(cut)
		jobs[i] = Job{
			Category: category,
			Cut:      cut,
			Label:    label,
			Datacard: DatacardPath(datacardDir, category, label),
		}
	}
	return jobs
}

// Name is the combine -n tag; it also names the output file.
func (j Job) Name() string {
	return j.Category + j.Label
}

// Args are the combine arguments for the job.
func (j Job) Args() []string {
	return []string{"-M", Method, "-n", j.Name(), "-d", j.Datacard}
}

// Runner executes limit jobs through a Commander.
type Runner struct {
	Commander runner.Commander
	// Tool is the combine driver, normally combineTool.py.
	Tool string
	// Mass is the mass hypothesis combine tags its outputs with.
	Mass int
	// Parallel caps how many jobs run at once; values below one run
	// sequentially.
	Parallel int
}

// RunAll runs every job. A failing job does not stop the others; the
// returned error joins every failure. Results are in job order.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]Result, error) {
	parallel := r.Parallel
	if parallel < 1 {
		parallel = 1
	}

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, job := range jobs {
		if err := gctx.Err(); err != nil {
			results[i] = Result{Job: job, Err: err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: err}
				return nil
			}
			out, err := r.Commander.Run(gctx, r.Tool, job.Args()...)
			results[i] = Result{Job: job, Output: out, Err: err}
			if err != nil {
				monitoring.Logf("combine %s failed: %v", job.Name(), err)
				return nil
			}
			monitoring.Logf(">>>   %s created", OutputFile(job.Name(), r.Mass))
			return nil
		})
	}
	_ = g.Wait() // failures are carried in results

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Job.Name(), res.Err))
		}
	}
	return results, errors.Join(errs...)
}
