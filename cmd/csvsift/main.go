// csvsift - template-driven tabular filter
// Filters target CSV/XLSX files down to rows whose chosen column matches
// values drawn from a template file, then exports per-file and combined
// results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	templateFile   string
	templateColumn string
	targetColumn   string
	outputDir      string
	writeWorkbook  bool
	omitEmpty      bool
	workers        int
	delimiterFlag  string

	// Watch flags
	watchDebounce string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "csvsift",
	Short: "csvsift - filter tabular files against a template",
	Long: `csvsift filters one or more target CSV/XLSX files down to the rows whose
value in a chosen column appears in a chosen column of a template file.

Inputs may be UTF-8, Latin-1 or Windows-1252 encoded; malformed rows are
skipped rather than failing the file.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

func init() {
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(watchCmd)

	for _, cmd := range []*cobra.Command{filterCmd, watchCmd} {
		cmd.Flags().StringVarP(&templateFile, "template", "t", "", "template file supplying reference values (required)")
		cmd.Flags().StringVar(&templateColumn, "template-column", "", "template column to draw values from (required)")
		cmd.Flags().StringVar(&targetColumn, "target-column", "", "target column tested for membership (required)")
		cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory for filtered files")
		cmd.Flags().StringVar(&delimiterFlag, "delimiter", "", "declared field delimiter (default \",\")")
		cmd.MarkFlagRequired("template")
		cmd.MarkFlagRequired("template-column")
		cmd.MarkFlagRequired("target-column")
	}

	filterCmd.Flags().BoolVar(&writeWorkbook, "workbook", false, "also write a combined multi-sheet workbook when more than one result exists")
	filterCmd.Flags().BoolVar(&omitEmpty, "omit-empty", false, "drop zero-row results from exports")
	filterCmd.Flags().IntVar(&workers, "workers", 0, "concurrent target workers (default sequential)")

	watchCmd.Flags().StringVar(&watchDebounce, "debounce", "", "settle time before a new file is processed (e.g. 500ms)")
}
