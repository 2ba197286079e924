// Package generators provides test data generation for the ingest and
// pipeline tests: deterministic delimited text with controllable
// delimiter, null rate and ragged-row rate.
package generators

import (
	"bytes"
	"math/rand"
	"strconv"
	"strings"
)

// TableGenerator generates delimited-text test data.
type TableGenerator struct {
	rng *rand.Rand

	// Schema
	Columns []ColumnSpec

	// Output settings
	Delimiter rune

	// Data characteristics
	NullRate   float64 // probability of an empty cell in nullable columns
	RaggedRate float64 // probability of a row with a wrong field count
}

// ColumnSpec defines a column's generation rules.
type ColumnSpec struct {
	Name     string
	Type     ColumnType
	Nullable bool

	// For ints
	MinInt int64
	MaxInt int64

	// For enums
	Values []string
}

// ColumnType defines column data types.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	TypeEnum
)

// NewTableGenerator creates a generator with default settings and a
// fixed seed, so tests are reproducible.
func NewTableGenerator(seed int64) *TableGenerator {
	return &TableGenerator{
		rng:       rand.New(rand.NewSource(seed)),
		Delimiter: ',',
	}
}

// Generate produces a header plus n data rows as raw bytes. Ragged rows
// carry one extra field, so a permissive loader should drop exactly
// those rows.
func (g *TableGenerator) Generate(n int) []byte {
	var buf bytes.Buffer
	delim := string(g.Delimiter)

	header := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		header[i] = col.Name
	}
	buf.WriteString(strings.Join(header, delim))
	buf.WriteByte('\n')

	for i := 0; i < n; i++ {
		row := make([]string, len(g.Columns))
		for j, col := range g.Columns {
			row[j] = g.generateValue(col)
		}
		if g.RaggedRate > 0 && g.rng.Float64() < g.RaggedRate {
			row = append(row, "stray")
		}
		buf.WriteString(strings.Join(row, delim))
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

func (g *TableGenerator) generateValue(col ColumnSpec) string {
	if col.Nullable && g.rng.Float64() < g.NullRate {
		return ""
	}

	switch col.Type {
	case TypeInt:
		return g.generateInt(col)
	case TypeFloat:
		return strconv.FormatFloat(g.rng.Float64()*1000, 'f', 2, 64)
	case TypeEnum:
		if len(col.Values) == 0 {
			return ""
		}
		return col.Values[g.rng.Intn(len(col.Values))]
	default:
		return g.generateString()
	}
}

func (g *TableGenerator) generateString() string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length := 5 + g.rng.Intn(10)
	result := make([]byte, length)
	for i := range result {
		result[i] = chars[g.rng.Intn(len(chars))]
	}
	return string(result)
}

func (g *TableGenerator) generateInt(col ColumnSpec) string {
	minVal := col.MinInt
	maxVal := col.MaxInt
	if maxVal == 0 {
		maxVal = 1000000
	}
	val := minVal + g.rng.Int63n(maxVal-minVal+1)
	return strconv.FormatInt(val, 10)
}
