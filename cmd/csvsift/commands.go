package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvsift/csvsift/internal/model"
	"github.com/csvsift/csvsift/pkg/config"
	"github.com/csvsift/csvsift/pkg/export"
	"github.com/csvsift/csvsift/pkg/ingest"
	"github.com/csvsift/csvsift/pkg/sift"
	"github.com/csvsift/csvsift/pkg/tui"
	"github.com/csvsift/csvsift/pkg/watch"
)

var filterCmd = &cobra.Command{
	Use:   "filter [targets...]",
	Short: "Filter target files against a template's value set",
	Long: `Filter one or more target files down to the rows whose target column
value appears in the template column.

Writes filtered_<name>.csv per surviving target into the output directory,
and optionally a combined filtered_results_<timestamp>.xlsx workbook.

Examples:
  csvsift filter -t genes.csv --template-column id --target-column id samples/*.csv
  csvsift filter -t ref.csv --template-column sku --target-column sku -o out --workbook a.csv b.csv
  csvsift filter -t ref.csv --template-column id --target-column id --workers 4 data/*.csv.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilter,
}

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List a file's column names",
	Long:  `Load a file through the encoding fallback chain and print its column names.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runColumns,
}

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Continuously filter files arriving in a directory",
	Long: `Watch a directory and filter every tabular file that lands in it against
the template's value set, writing filtered_<name>.csv next to the output
directory as files arrive.

Examples:
  csvsift watch -t ref.csv --template-column id --target-column id ./incoming
  csvsift watch -t ref.csv --template-column id --target-column id -o out --debounce 2s ./drop`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

// loadConfig merges config files, environment and flags.
func loadConfig() (*config.Config, error) {
	mgr := config.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	if templateColumn != "" {
		cfg.Filter.TemplateColumn = templateColumn
	}
	if targetColumn != "" {
		cfg.Filter.TargetColumn = targetColumn
	}
	if workers > 0 {
		cfg.Filter.Workers = workers
	}
	if delimiterFlag != "" {
		cfg.Ingest.Delimiter = delimiterFlag
	}
	if outputDir != "" {
		cfg.Export.OutputDir = outputDir
	}
	if writeWorkbook {
		cfg.Export.Workbook = true
	}
	if omitEmpty {
		cfg.Export.OmitEmpty = true
	}
	if watchDebounce != "" {
		d, err := time.ParseDuration(watchDebounce)
		if err != nil {
			return nil, fmt.Errorf("invalid --debounce: %w", err)
		}
		cfg.Watch.Debounce = d
	}

	return cfg, cfg.Validate()
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		cancel()
	}()

	return ctx, cancel
}

// readInput loads a file's bytes as a RawInput named by its base name.
func readInput(path string) (model.RawInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RawInput{}, err
	}
	return model.RawInput{Name: filepath.Base(path), Data: data}, nil
}

// expandTargets resolves glob patterns and literal paths.
func expandTargets(args []string) ([]string, error) {
	var paths []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				paths = append(paths, pattern)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: no files match pattern %q\n", pattern)
			}
		} else {
			paths = append(paths, matches...)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files found")
	}
	return paths, nil
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tui.PrintHeader(version)

	ctx, cancel := signalContext()
	defer cancel()

	template, err := readInput(templateFile)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	paths, err := expandTargets(args)
	if err != nil {
		return err
	}
	targets := make([]model.RawInput, 0, len(paths))
	for _, p := range paths {
		raw, err := readInput(p)
		if err != nil {
			return fmt.Errorf("read target: %w", err)
		}
		targets = append(targets, raw)
	}

	loader := ingest.NewLoader(ingest.Config{Delimiter: cfg.DelimiterRune(), Encodings: cfg.Ingest.Encodings})
	runner := sift.NewRunner(loader)

	bar := tui.ShowProgress(int64(len(targets)), "filtering")
	runner.OnProgress = func(done, total int) {
		_ = bar.Set(done)
	}

	report, err := runner.Run(ctx, template, targets, sift.Options{
		TemplateColumn: cfg.Filter.TemplateColumn,
		TargetColumn:   cfg.Filter.TargetColumn,
		Workers:        cfg.Filter.Workers,
	})
	_ = bar.Finish()
	if err != nil {
		tui.PrintError(err)
		return err
	}

	tui.PrintReport(report)

	if report.AllSkipped() {
		return nil
	}

	// An all-empty batch under omit-empty is still a successful run,
	// there is just nothing to write.
	exportable := export.Exportable(report.Results, cfg.Export.OmitEmpty)
	if len(exportable) == 0 {
		fmt.Println("  Every result is empty, nothing exported.")
		return nil
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, res := range exportable {
		payload, err := export.RenderCSV(res)
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.Export.OutputDir, export.CSVFileName(res))
		if err := os.WriteFile(path, payload, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		tui.PrintWritten(path)
	}

	// The combined workbook only exists for multiple surviving results.
	if cfg.Export.Workbook && len(exportable) > 1 {
		payload, err := export.RenderWorkbook(exportable, export.WorkbookOptions{IncludeEmpty: true})
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.Export.OutputDir, export.WorkbookFileName(time.Now()))
		if err := os.WriteFile(path, payload, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		tui.PrintWritten(path)
	}

	return nil
}

func runColumns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := readInput(args[0])
	if err != nil {
		return err
	}

	loader := ingest.NewLoader(ingest.Config{Delimiter: cfg.DelimiterRune(), Encodings: cfg.Ingest.Encodings})
	table, err := loader.Load(context.Background(), raw)
	if err != nil {
		tui.PrintError(err)
		return err
	}

	fmt.Printf("%s: %d columns, %d rows\n", raw.Name, table.NumColumns(), table.NumRows())
	for _, name := range table.ColumnNames() {
		fmt.Println("  " + name)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	template, err := readInput(templateFile)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	loader := ingest.NewLoader(ingest.Config{Delimiter: cfg.DelimiterRune(), Encodings: cfg.Ingest.Encodings})

	// Build the value set once; it is read-only for the watch lifetime.
	tmpl, err := loader.Load(ctx, template)
	if err != nil {
		tui.PrintError(err)
		return err
	}
	values, err := sift.ExtractValues(tmpl, cfg.Filter.TemplateColumn)
	if err != nil {
		tui.PrintError(err)
		return err
	}
	tmpl = nil

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w, err := watch.NewWatcher(cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	w.OnFile = func(path string) error {
		// Skip our own outputs when the watched dir is the output dir.
		if strings.HasPrefix(filepath.Base(path), "filtered_") {
			return nil
		}
		raw, err := readInput(path)
		if err != nil {
			return err
		}

		t, err := loader.Load(ctx, raw)
		if err != nil {
			return err
		}
		filtered, err := sift.FilterRows(t, cfg.Filter.TargetColumn, values)
		if err != nil {
			return err
		}

		res := &model.FilterResult{
			FileName:     raw.Name,
			Table:        filtered,
			OriginalRows: t.NumRows(),
			FilteredRows: filtered.NumRows(),
		}
		if res.FilteredRows == 0 && cfg.Export.OmitEmpty {
			fmt.Printf("  %s: 0 of %d rows kept, skipped\n", raw.Name, res.OriginalRows)
			return nil
		}

		payload, err := export.RenderCSV(res)
		if err != nil {
			return err
		}
		out := filepath.Join(cfg.Export.OutputDir, export.CSVFileName(res))
		if err := os.WriteFile(out, payload, 0644); err != nil {
			return err
		}
		fmt.Printf("  %s: %d of %d rows kept\n", raw.Name, res.FilteredRows, res.OriginalRows)
		tui.PrintWritten(out)
		return nil
	}
	w.OnError = func(path string, err error) {
		tui.PrintWarnings([]sift.Warning{{File: filepath.Base(path), Reason: sift.ReasonForError(err), Err: err}})
	}

	if err := w.Watch(args[0]); err != nil {
		return err
	}

	fmt.Printf("Watching %s (template values: %d). Ctrl-C to stop.\n", args[0], values.Len())
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
