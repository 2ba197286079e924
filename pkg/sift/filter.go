package sift

import (
	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
)

// FilterRows produces a new table containing exactly the rows of t whose
// column cell, in canonical form, is a member of values. Row order is
// preserved and all other columns pass through unchanged.
//
// This is a pure function. The comparison canonicalizes each cell on
// read instead of rewriting the column in place, so the same loaded
// table can back multiple filters without aliasing hazards.
func FilterRows(t *model.Table, column string, values model.ValueSet) (*model.Table, error) {
	cells, ok := t.Column(column)
	if !ok {
		return nil, sifterr.MissingColumn(column, t.ColumnNames())
	}

	keep := make([]int, 0, len(cells))
	for i, cell := range cells {
		if values.Has(cell) {
			keep = append(keep, i)
		}
	}

	return t.Select(keep), nil
}
