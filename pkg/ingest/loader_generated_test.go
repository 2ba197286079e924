package ingest

import (
	"context"
	"testing"

	"github.com/csvsift/csvsift/internal/model"
	"github.com/csvsift/csvsift/pkg/testing/generators"
)

func sampleColumns() []generators.ColumnSpec {
	return []generators.ColumnSpec{
		{Name: "id", Type: generators.TypeInt, MinInt: 1, MaxInt: 99999},
		{Name: "name", Type: generators.TypeString},
		{Name: "score", Type: generators.TypeFloat, Nullable: true},
	}
}

func TestLoad_GeneratedWellFormed(t *testing.T) {
	g := generators.NewTableGenerator(42)
	g.Columns = sampleColumns()
	g.NullRate = 0.1

	data := g.Generate(500)

	table, err := load(t, "generated.csv", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.NumRows() != 500 {
		t.Errorf("Expected 500 rows, got %d", table.NumRows())
	}
	if table.NumColumns() != 3 {
		t.Errorf("Expected 3 columns, got %d", table.NumColumns())
	}
}

func TestLoad_GeneratedRaggedRowsDropped(t *testing.T) {
	g := generators.NewTableGenerator(7)
	g.Columns = sampleColumns()
	g.RaggedRate = 0.2

	data := g.Generate(500)

	table, err := load(t, "ragged_generated.csv", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.NumRows() >= 500 || table.NumRows() == 0 {
		t.Errorf("Expected some but not all rows to survive, got %d", table.NumRows())
	}
}

func TestLoad_GeneratedSemicolon(t *testing.T) {
	g := generators.NewTableGenerator(11)
	g.Columns = sampleColumns()
	g.Delimiter = ';'

	data := g.Generate(100)

	l := NewLoader(Config{Delimiter: ';'})
	table, err := l.Load(context.Background(), model.RawInput{Name: "semi_generated.csv", Data: data})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.NumRows() != 100 {
		t.Errorf("Expected 100 rows, got %d", table.NumRows())
	}
}
