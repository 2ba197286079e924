// Package sift implements the template-driven filtering core: building a
// reference value set from a template table and reducing target tables to
// the rows whose chosen column is a member.
package sift

import (
	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
)

// ExtractValues builds the deduplicated set of canonical values found in
// a template table's column. The table is not mutated; canonicalization
// happens on read. Fails with a MissingColumn error when the column is
// absent.
func ExtractValues(t *model.Table, column string) (model.ValueSet, error) {
	cells, ok := t.Column(column)
	if !ok {
		return nil, sifterr.MissingColumn(column, t.ColumnNames())
	}

	set := model.NewValueSet()
	for _, cell := range cells {
		set.Add(cell)
	}
	return set, nil
}
