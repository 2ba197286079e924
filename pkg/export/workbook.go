package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
)

// maxSheetName is the sheet name length limit of the XLSX format.
const maxSheetName = 31

// WorkbookOptions controls combined-workbook rendering.
type WorkbookOptions struct {
	// IncludeEmpty keeps sheets for results with zero filtered rows.
	// When false, empty results are omitted from the workbook.
	IncludeEmpty bool
}

// RenderWorkbook serializes results into one workbook, one sheet per
// result. Sheet names come from the source file names, sanitized and
// truncated to the format's 31-character limit; names that collide after
// truncation get a numeric suffix rather than silently overwriting a
// sheet.
func RenderWorkbook(results []*model.FilterResult, opts WorkbookOptions) ([]byte, error) {
	kept := results[:0:0]
	for _, res := range results {
		if res.FilteredRows == 0 && !opts.IncludeEmpty {
			continue
		}
		kept = append(kept, res)
	}
	if len(kept) == 0 {
		return nil, sifterr.New(sifterr.CodeNoResults, "no results to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(kept))
	for i, res := range kept {
		sheet := sheetName(baseName(res.FileName), used)

		if i == 0 {
			// Reuse the default sheet rather than leaving it dangling.
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, sifterr.Wrap(err, sifterr.CodeRenderFailed, "rename sheet")
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, sifterr.Wrapf(err, sifterr.CodeRenderFailed, "create sheet %q", sheet)
			}
		}

		if err := writeSheet(f, sheet, res.Table); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, sifterr.Wrap(err, sifterr.CodeWriteFailed, "write workbook")
	}
	return buf.Bytes(), nil
}

// writeSheet fills one sheet with a table: header row first, then data
// rows in order.
func writeSheet(f *excelize.File, sheet string, t *model.Table) error {
	if err := setRow(f, sheet, 1, t.ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := setRow(f, sheet, i+2, t.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	vals := make([]interface{}, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return sifterr.Wrap(err, sifterr.CodeRenderFailed, "cell coordinates")
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return sifterr.Wrapf(err, sifterr.CodeRenderFailed, "write sheet %q row %d", sheet, row)
	}
	return nil
}

// sheetName sanitizes and truncates a candidate name, then disambiguates
// collisions with a numeric suffix that still fits the limit. The used
// map records names already taken in this workbook, keyed case-folded
// because the XLSX format treats sheet names case-insensitively.
func sheetName(name string, used map[string]bool) string {
	s := sanitizeSheetName(name)

	if key := strings.ToLower(s); !used[key] {
		used[key] = true
		return s
	}

	for n := 2; ; n++ {
		suffix := fmt.Sprintf("_%d", n)
		base := []rune(s)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate := string(base) + suffix
		if key := strings.ToLower(candidate); !used[key] {
			used[key] = true
			return candidate
		}
	}
}

// sheetNameIllegal holds the characters the XLSX format forbids in sheet
// names, plus the literal period which confuses downstream tooling.
const sheetNameIllegal = `:\/?*[].`

func sanitizeSheetName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(sheetNameIllegal, r) {
			sb.WriteRune('_')
		} else {
			sb.WriteRune(r)
		}
	}
	s := sb.String()
	if s == "" {
		s = "Sheet"
	}
	if runes := []rune(s); len(runes) > maxSheetName {
		s = string(runes[:maxSheetName])
	}
	return s
}
