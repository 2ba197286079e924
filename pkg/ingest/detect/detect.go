// Package detect provides lightweight structural sniffing for delimited
// text: delimiter inference and encoding classification over a sample of
// the input bytes.
package detect

import (
	"math"
	"unicode/utf8"
)

// Encoding classifies the byte-level text encoding of a sample.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingASCII
	EncodingUTF8
	EncodingUTF8BOM
	EncodingUTF16LE
	EncodingUTF16BE
	EncodingLegacy // non-UTF-8 single-byte (Latin-1 / Windows-1252 family)
)

// String returns a human-readable encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingUTF8:
		return "utf-8"
	case EncodingUTF8BOM:
		return "utf-8-bom"
	case EncodingUTF16LE:
		return "utf-16le"
	case EncodingUTF16BE:
		return "utf-16be"
	case EncodingLegacy:
		return "legacy-8bit"
	default:
		return "unknown"
	}
}

// Sniff identifies the character encoding of a sample.
func Sniff(sample []byte) Encoding {
	if len(sample) == 0 {
		return EncodingUnknown
	}

	// Check BOM
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return EncodingUTF8BOM
	}
	if len(sample) >= 2 {
		if sample[0] == 0xFF && sample[1] == 0xFE {
			return EncodingUTF16LE
		}
		if sample[0] == 0xFE && sample[1] == 0xFF {
			return EncodingUTF16BE
		}
	}

	if utf8.Valid(sample) {
		isASCII := true
		for _, b := range sample {
			if b > 127 {
				isASCII = false
				break
			}
		}
		if isASCII {
			return EncodingASCII
		}
		return EncodingUTF8
	}

	return EncodingLegacy
}

// StripBOM removes a leading UTF-8 byte order mark, if present.
func StripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// Delimiter infers the field delimiter of a delimited-text sample.
// Each candidate is scored by the variance of its per-line occurrence
// count (quote-aware); a real delimiter appears a consistent number of
// times per row, so the lowest variance-to-mean ratio wins.
func Delimiter(sample []byte) rune {
	candidates := []byte{',', '\t', ';', '|', ':'}
	bestDelim := byte(',')
	bestScore := math.MaxFloat64

	for _, delim := range candidates {
		counts := countDelimiterPerLine(sample, delim)
		if len(counts) < 2 {
			continue
		}

		avg := mean(counts)
		if avg < 1 {
			continue
		}

		v := variance(counts)
		score := v / avg
		if score < bestScore {
			bestScore = score
			bestDelim = delim
		}
	}

	return rune(bestDelim)
}

func countDelimiterPerLine(sample []byte, delim byte) []int {
	var counts []int
	inQuote := false
	count := 0

	for _, b := range sample {
		if b == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote {
			if b == delim {
				count++
			} else if b == '\n' {
				counts = append(counts, count)
				count = 0
			}
		}
	}
	return counts
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func variance(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		diff := float64(v) - m
		sum += diff * diff
	}
	return sum / float64(len(values))
}
