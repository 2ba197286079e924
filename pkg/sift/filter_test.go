package sift

import (
	"testing"

	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
)

func mustTable(t *testing.T, header []string, rows [][]string) *model.Table {
	t.Helper()
	table, err := model.NewTable(header, rows)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestExtractValues_Dedup(t *testing.T) {
	table := mustTable(t, []string{"id"}, [][]string{{"1"}, {"2"}, {"2"}, {"3"}, {"3.0"}})

	set, err := ExtractValues(table, "id")
	if err != nil {
		t.Fatalf("ExtractValues failed: %v", err)
	}
	if set.Len() != 3 {
		t.Errorf("Expected 3 distinct values, got %d", set.Len())
	}
	for _, v := range []string{"1", "2", "3"} {
		if !set.Has(v) {
			t.Errorf("Missing value %q", v)
		}
	}
}

func TestExtractValues_MissingColumn(t *testing.T) {
	table := mustTable(t, []string{"name"}, [][]string{{"alice"}})

	_, err := ExtractValues(table, "id")
	if !sifterr.IsCode(err, sifterr.CodeMissingColumn) {
		t.Errorf("Expected CodeMissingColumn, got %v", err)
	}
}

func TestFilterRows_MembershipAndOrder(t *testing.T) {
	template := mustTable(t, []string{"id"}, [][]string{{"1"}, {"2"}, {"3"}})
	set, err := ExtractValues(template, "id")
	if err != nil {
		t.Fatalf("ExtractValues failed: %v", err)
	}

	target := mustTable(t, []string{"id", "name"}, [][]string{
		{"2", "bob"}, {"3", "carol"}, {"4", "dave"}, {"5", "erin"},
	})

	filtered, err := FilterRows(target, "id", set)
	if err != nil {
		t.Fatalf("FilterRows failed: %v", err)
	}

	if filtered.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", filtered.NumRows())
	}
	ids, _ := filtered.Column("id")
	if ids[0] != "2" || ids[1] != "3" {
		t.Errorf("Expected ids [2 3] in order, got %v", ids)
	}
	names, _ := filtered.Column("name")
	if names[0] != "bob" || names[1] != "carol" {
		t.Errorf("Other columns not passed through: %v", names)
	}
	if target.NumRows() != 4 {
		t.Errorf("FilterRows mutated input table: %d rows", target.NumRows())
	}
}

func TestFilterRows_TypeInsensitive(t *testing.T) {
	set := model.NewValueSet()
	set.Add("7")

	target := mustTable(t, []string{"n"}, [][]string{{"7.0"}, {"07"}, {"8"}})
	filtered, err := FilterRows(target, "n", set)
	if err != nil {
		t.Fatalf("FilterRows failed: %v", err)
	}
	if filtered.NumRows() != 2 {
		t.Errorf("Expected numeric 7.0 and 07 to match 7, got %d rows", filtered.NumRows())
	}
}

func TestFilterRows_FullSetKeepsAllRows(t *testing.T) {
	target := mustTable(t, []string{"id"}, [][]string{{"a"}, {"b"}, {"c"}})
	set, err := ExtractValues(target, "id")
	if err != nil {
		t.Fatalf("ExtractValues failed: %v", err)
	}

	filtered, err := FilterRows(target, "id", set)
	if err != nil {
		t.Fatalf("FilterRows failed: %v", err)
	}
	if filtered.NumRows() != target.NumRows() {
		t.Errorf("Full value set should keep all rows, got %d of %d", filtered.NumRows(), target.NumRows())
	}
	ids, _ := filtered.Column("id")
	if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("Order not preserved: %v", ids)
	}
}

func TestFilterRows_Idempotent(t *testing.T) {
	set := model.NewValueSet()
	set.Add("2")
	set.Add("3")

	target := mustTable(t, []string{"id"}, [][]string{{"1"}, {"2"}, {"3"}, {"4"}})

	once, err := FilterRows(target, "id", set)
	if err != nil {
		t.Fatalf("FilterRows failed: %v", err)
	}
	twice, err := FilterRows(once, "id", set)
	if err != nil {
		t.Fatalf("FilterRows (second pass) failed: %v", err)
	}

	if once.NumRows() != twice.NumRows() {
		t.Fatalf("Not idempotent: %d vs %d rows", once.NumRows(), twice.NumRows())
	}
	a, _ := once.Column("id")
	b, _ := twice.Column("id")
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Row %d differs after refilter: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestFilterRows_MissingColumn(t *testing.T) {
	target := mustTable(t, []string{"name", "age"}, [][]string{{"alice", "30"}})

	_, err := FilterRows(target, "id", model.NewValueSet())
	if !sifterr.IsCode(err, sifterr.CodeMissingColumn) {
		t.Errorf("Expected CodeMissingColumn, got %v", err)
	}
}

func TestFilterRows_EmptySet(t *testing.T) {
	target := mustTable(t, []string{"id"}, [][]string{{"1"}, {"2"}})

	filtered, err := FilterRows(target, "id", model.NewValueSet())
	if err != nil {
		t.Fatalf("FilterRows failed: %v", err)
	}
	if filtered.NumRows() != 0 {
		t.Errorf("Empty set should filter everything, got %d rows", filtered.NumRows())
	}
	if filtered.NumColumns() != 1 {
		t.Errorf("Column set should survive an empty filter: %v", filtered.ColumnNames())
	}
}
