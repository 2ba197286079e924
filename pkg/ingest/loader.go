// Package ingest turns raw uploaded bytes into in-memory tables. It
// tolerates the messy reality of regionally-configured spreadsheet
// exports: unknown encodings, ragged rows, stray delimiters and mixed
// quoting. Parsing is attempted through an ordered fallback chain of
// (encoding, parse-mode) configurations; the first structurally
// successful, non-empty result wins.
package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/csvsift/csvsift/internal/model"
	sifterr "github.com/csvsift/csvsift/pkg/errors"
	"github.com/csvsift/csvsift/pkg/ingest/detect"
)

// charset names the text encodings the fallback chain can try.
type charset int

const (
	charsetUTF8 charset = iota
	charsetLatin1
	charsetWindows1252
)

func (c charset) String() string {
	switch c {
	case charsetUTF8:
		return "utf-8"
	case charsetLatin1:
		return "latin-1"
	case charsetWindows1252:
		return "windows-1252"
	default:
		return "unknown"
	}
}

// attempt is one entry in the fallback chain: an encoding plus parse-mode
// knobs. New encodings are appended to the chain, not wired into control
// flow.
type attempt struct {
	charset          charset
	autoDelimiter    bool
	trimLeadingSpace bool
}

func (a attempt) describe() string {
	s := a.charset.String()
	if a.autoDelimiter {
		s += "+autodelim"
	}
	return s
}

// fallbackChain is tried in order. UTF-8 first, then the two single-byte
// encodings regional tools commonly emit, then one last permissive pass
// with automatic delimiter detection and leading-space trimming.
var fallbackChain = []attempt{
	{charset: charsetUTF8},
	{charset: charsetLatin1},
	{charset: charsetWindows1252},
	{charset: charsetLatin1, autoDelimiter: true, trimLeadingSpace: true},
}

// parseCharset maps a configured encoding name to a charset.
func parseCharset(name string) (charset, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return charsetUTF8, true
	case "latin-1", "latin1", "iso-8859-1":
		return charsetLatin1, true
	case "windows-1252", "cp1252":
		return charsetWindows1252, true
	default:
		return 0, false
	}
}

// buildChain turns a configured encoding order into a fallback chain:
// one fixed-delimiter attempt per encoding, then the permissive
// auto-delimiter pass on the last of them. Unknown names are skipped;
// an all-unknown list falls back to the default chain.
func buildChain(names []string) []attempt {
	var out []attempt
	for _, n := range names {
		if c, ok := parseCharset(n); ok {
			out = append(out, attempt{charset: c})
		}
	}
	if len(out) == 0 {
		return fallbackChain
	}
	last := out[len(out)-1].charset
	return append(out, attempt{charset: last, autoDelimiter: true, trimLeadingSpace: true})
}

// Config controls loader behavior.
type Config struct {
	// Delimiter is the declared field delimiter for the fixed-delimiter
	// attempts. Zero means comma.
	Delimiter rune

	// Encodings overrides the fallback chain order. Recognized names:
	// "utf-8", "latin-1", "windows-1252". Empty means the default chain.
	Encodings []string
}

// Loader parses RawInputs into Tables.
type Loader struct {
	cfg   Config
	chain []attempt
}

// NewLoader creates a loader with the given config.
func NewLoader(cfg Config) *Loader {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	chain := fallbackChain
	if len(cfg.Encodings) > 0 {
		chain = buildChain(cfg.Encodings)
	}
	return &Loader{cfg: cfg, chain: chain}
}

// Load parses raw into a Table, working through the fallback chain. A
// raw csv parse error never escapes: exhausting the chain yields a coded
// LoadFailed error carrying every attempt's underlying error.
func (l *Loader) Load(ctx context.Context, raw model.RawInput) (*model.Table, error) {
	data := raw.Data
	name := raw.Name

	// Transparent gzip passthrough for .csv.gz style uploads.
	if isGzipName(name) {
		var err error
		data, err = gunzip(data)
		if err != nil {
			return nil, sifterr.LoadFailed(raw.Name, err)
		}
		name = stripGzipExt(name)
	}

	// XLSX inputs carry their own encoding; the chain does not apply.
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		t, err := loadXLSX(data)
		if err != nil {
			return nil, sifterr.LoadFailed(raw.Name, err)
		}
		return t, nil
	}

	// UTF-16 text passes utf8.Valid (NUL bytes are valid UTF-8) and
	// would parse into NUL-riddled mojibake, so reject it up front.
	sniffed := detect.Sniff(data)
	if sniffed == detect.EncodingUTF16LE || sniffed == detect.EncodingUTF16BE {
		return nil, sifterr.New(sifterr.CodeEncodingError, "unsupported text encoding").
			WithContext("file", raw.Name).
			WithContext("encoding", sniffed.String())
	}

	var attempts sifterr.MultiError
	for i, att := range l.chain {
		if err := ctx.Err(); err != nil {
			return nil, sifterr.ContextCanceled("load " + raw.Name)
		}

		// Known-legacy bytes can never pass UTF-8 validation; skip
		// straight to the single-byte attempts. The final attempt is
		// never skipped so the empty-table rule still applies.
		if sniffed == detect.EncodingLegacy && att.charset == charsetUTF8 && i < len(l.chain)-1 {
			attempts.Add(fmt.Errorf("%s: skipped, input sniffed as %s", att.describe(), sniffed))
			continue
		}

		t, err := l.parse(data, att)
		if err != nil {
			attempts.Add(fmt.Errorf("%s: %w", att.describe(), err))
			continue
		}
		if t.NumRows() > 0 {
			return t, nil
		}
		if i == len(l.chain)-1 {
			// Structurally sound but empty on the loosest settings:
			// an empty table, not a failure.
			return t, nil
		}
		attempts.Add(fmt.Errorf("%s: parsed zero data rows", att.describe()))
	}

	return nil, sifterr.LoadFailed(raw.Name, attempts.Combined())
}

// parse runs a single fallback attempt over a fresh reader.
func (l *Loader) parse(data []byte, att attempt) (*model.Table, error) {
	data = detect.StripBOM(data)

	decoded, err := decode(data, att.charset)
	if err != nil {
		return nil, err
	}

	delim := l.cfg.Delimiter
	if att.autoDelimiter {
		delim = detect.Delimiter(decoded)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = att.trimLeadingSpace
	r.FieldsPerRecord = -1 // ragged rows are dropped below, not fatal

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, err
	}
	if !hasColumns(header) {
		return nil, fmt.Errorf("no columns in header row")
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue // skip the malformed row, keep the rest
			}
			return nil, err
		}
		rows = append(rows, record)
	}

	return model.NewTable(header, rows)
}

// decode converts raw bytes into UTF-8 text under the attempt's charset.
// The UTF-8 attempt validates rather than transcodes, so mojibake from a
// Latin-1 file fails fast and falls through to the next attempt.
func decode(data []byte, c charset) ([]byte, error) {
	switch c {
	case charsetUTF8:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("input is not valid utf-8")
		}
		return data, nil
	case charsetLatin1:
		return transformBytes(data, charmap.ISO8859_1)
	case charsetWindows1252:
		return transformBytes(data, charmap.Windows1252)
	default:
		return nil, fmt.Errorf("unsupported charset")
	}
}

func transformBytes(data []byte, cm *charmap.Charmap) ([]byte, error) {
	out, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", cm, err)
	}
	return out, nil
}

// hasColumns reports whether a header row names at least one column.
func hasColumns(header []string) bool {
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}

// loadXLSX reads the first sheet of a workbook into a Table. Short rows
// are padded with empty cells, matching spreadsheet semantics where
// trailing blanks are simply absent from the row.
func loadXLSX(data []byte) (*model.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets found in xlsx file")
		}
		sheet = sheets[0]
	}

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer it.Close()

	if !it.Next() {
		return nil, fmt.Errorf("xlsx sheet is empty")
	}
	header, err := it.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !hasColumns(header) {
		return nil, fmt.Errorf("no columns in header row")
	}

	var rows [][]string
	for it.Next() {
		cols, err := it.Columns()
		if err != nil {
			continue // skip malformed rows
		}
		if len(cols) == 0 {
			continue
		}
		if len(cols) < len(header) {
			padded := make([]string, len(header))
			copy(padded, cols)
			cols = padded
		} else if len(cols) > len(header) {
			cols = cols[:len(header)]
		}
		rows = append(rows, cols)
	}

	return model.NewTable(header, rows)
}

// --- gzip helpers ---

func isGzipName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gz")
}

func stripGzipExt(name string) string {
	return name[:len(name)-3]
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}
