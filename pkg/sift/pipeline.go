package sift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
	"github.com/csvsift/csvsift/pkg/ingest"
)

// Skip reasons attached to per-file warnings.
const (
	ReasonLoadFailed    = "load failed"
	ReasonMissingColumn = "missing column"
	ReasonEmptySet      = "template column has no values"
)

// ReasonForError maps a per-file error to its skip reason label.
func ReasonForError(err error) string {
	if sifterr.IsCode(err, sifterr.CodeMissingColumn) {
		return ReasonMissingColumn
	}
	return ReasonLoadFailed
}

// Options controls a single pipeline run.
type Options struct {
	// TemplateColumn is the template column supplying reference values.
	TemplateColumn string

	// TargetColumn is the column tested for membership in each target.
	TargetColumn string

	// Workers bounds concurrent target processing. Values below 2 keep
	// the run strictly sequential. The value set is read-only shared
	// state, and loads and filters are pure, so fan-out is safe.
	Workers int
}

// Warning records a target file that was skipped and why. Skipped files
// never abort the batch.
type Warning struct {
	File   string
	Reason string
	Err    error
}

// Report is the outcome of one pipeline run.
type Report struct {
	ID             string
	Results        []*model.FilterResult
	Warnings       []Warning
	DistinctValues int
	Duration       time.Duration
}

// AllSkipped reports whether every target was skipped: "no results",
// distinct from a hard abort.
func (r *Report) AllSkipped() bool {
	return len(r.Results) == 0
}

// Runner orchestrates one template load plus N target load-and-filter
// passes. A Runner holds no per-run state and may be reused.
type Runner struct {
	loader *ingest.Loader

	// OnProgress, when set, is called after each target completes.
	OnProgress func(done, total int)
}

// NewRunner creates a Runner on top of a loader.
func NewRunner(loader *ingest.Loader) *Runner {
	return &Runner{loader: loader}
}

// Run executes the batch. Template-stage failures (load error, missing
// column) abort the whole run with no partial results. Target-stage
// failures are isolated: the file is skipped with a warning and the
// batch continues. Result order follows the targets order.
func (r *Runner) Run(ctx context.Context, template model.RawInput, targets []model.RawInput, opts Options) (*Report, error) {
	start := time.Now()

	tmpl, err := r.loader.Load(ctx, template)
	if err != nil {
		return nil, err
	}

	values, err := ExtractValues(tmpl, opts.TemplateColumn)
	if err != nil {
		return nil, err
	}
	tmpl = nil // only the value set is needed downstream

	report := &Report{
		ID:             uuid.New().String(),
		DistinctValues: values.Len(),
	}
	if values.Len() == 0 {
		report.Warnings = append(report.Warnings, Warning{
			File:   template.Name,
			Reason: ReasonEmptySet,
			Err:    sifterr.EmptyValueSet(opts.TemplateColumn),
		})
	}

	results := make([]*model.FilterResult, len(targets))
	warnings := make([]*Warning, len(targets))

	if opts.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i, raw := range targets {
			i, raw := i, raw
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i], warnings[i] = r.processTarget(gctx, raw, opts.TargetColumn, values)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, sifterr.ContextCanceled("batch run")
		}
		if r.OnProgress != nil {
			r.OnProgress(len(targets), len(targets))
		}
	} else {
		for i, raw := range targets {
			if err := ctx.Err(); err != nil {
				return nil, sifterr.ContextCanceled("batch run")
			}
			results[i], warnings[i] = r.processTarget(ctx, raw, opts.TargetColumn, values)
			if r.OnProgress != nil {
				r.OnProgress(i+1, len(targets))
			}
		}
	}

	// Compact the slots, preserving targets order.
	for i := range targets {
		if warnings[i] != nil {
			report.Warnings = append(report.Warnings, *warnings[i])
			continue
		}
		if results[i] != nil {
			report.Results = append(report.Results, results[i])
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// processTarget loads and filters a single target. Exactly one of the
// return values is non-nil. The loaded table is dropped as soon as the
// filtered result exists, bounding peak memory to roughly one target at
// a time plus the value set.
func (r *Runner) processTarget(ctx context.Context, raw model.RawInput, column string, values model.ValueSet) (*model.FilterResult, *Warning) {
	t, err := r.loader.Load(ctx, raw)
	if err != nil {
		return nil, &Warning{File: raw.Name, Reason: ReasonLoadFailed, Err: err}
	}

	filtered, err := FilterRows(t, column, values)
	if err != nil {
		return nil, &Warning{File: raw.Name, Reason: ReasonMissingColumn, Err: err}
	}

	res := &model.FilterResult{
		FileName:     raw.Name,
		Table:        filtered,
		OriginalRows: t.NumRows(),
		FilteredRows: filtered.NumRows(),
	}
	t = nil
	return res, nil
}
