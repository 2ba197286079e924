// Package export serializes filter results for download: per-file CSV
// payloads and a combined multi-sheet workbook.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
)

// RenderCSV serializes a result's table to delimited text: a header row
// of column names followed by the rows in source order. The output is
// deterministic and re-parseable by the ingest package.
func RenderCSV(res *model.FilterResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(res.Table.ColumnNames()); err != nil {
		return nil, sifterr.Wrap(err, sifterr.CodeRenderFailed, "write header")
	}
	for i := 0; i < res.Table.NumRows(); i++ {
		if err := w.Write(res.Table.Row(i)); err != nil {
			return nil, sifterr.Wrapf(err, sifterr.CodeRenderFailed, "write row %d", i)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, sifterr.Wrap(err, sifterr.CodeRenderFailed, "flush csv")
	}

	return buf.Bytes(), nil
}

// Exportable applies the empty-result policy to a result sequence: when
// omitEmpty is set, zero-row results are dropped from every export
// surface. Order is preserved. Callers decide per surface what to do
// with the survivors (per-file CSVs always, the combined workbook only
// when more than one remains).
func Exportable(results []*model.FilterResult, omitEmpty bool) []*model.FilterResult {
	if !omitEmpty {
		return results
	}
	kept := results[:0:0]
	for _, res := range results {
		if res.FilteredRows > 0 {
			kept = append(kept, res)
		}
	}
	return kept
}

// CSVFileName derives the download name for a result's CSV payload.
func CSVFileName(res *model.FilterResult) string {
	return "filtered_" + baseName(res.FileName) + ".csv"
}

// WorkbookFileName derives the download name for the combined workbook.
func WorkbookFileName(ts time.Time) string {
	return fmt.Sprintf("filtered_results_%s.xlsx", ts.Format("20060102_150405"))
}

// WorkbookMIMEType is the media type of the combined workbook payload.
const WorkbookMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// baseName strips directories and the final extension from a file name.
func baseName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		base = "result"
	}
	return base
}
