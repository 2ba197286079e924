package detect

import "testing"

func TestSniff(t *testing.T) {
	cases := []struct {
		name   string
		sample []byte
		want   Encoding
	}{
		{"empty", nil, EncodingUnknown},
		{"ascii", []byte("id,name\n1,alice\n"), EncodingASCII},
		{"utf8", []byte("id,ville\n1,Orléans\n"), EncodingUTF8},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'i', 'd'}, EncodingUTF8BOM},
		{"utf16le bom", []byte{0xFF, 0xFE, 'i', 0x00}, EncodingUTF16LE},
		{"utf16be bom", []byte{0xFE, 0xFF, 0x00, 'i'}, EncodingUTF16BE},
		{"latin1", []byte{'i', 'd', ',', 0xE9, '\n'}, EncodingLegacy},
	}

	for _, c := range cases {
		if got := Sniff(c.sample); got != c.want {
			t.Errorf("%s: Sniff = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestStripBOM(t *testing.T) {
	withBOM := []byte{0xEF, 0xBB, 0xBF, 'a', 'b'}
	if got := string(StripBOM(withBOM)); got != "ab" {
		t.Errorf("StripBOM = %q", got)
	}
	plain := []byte("ab")
	if got := string(StripBOM(plain)); got != "ab" {
		t.Errorf("StripBOM on plain input = %q", got)
	}
}

func TestDelimiter(t *testing.T) {
	cases := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3\n4,5,6\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n4;5;6\n", ';'},
		{"tab", "a\tb\tc\n1\t2\t3\n4\t5\t6\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n4|5|6\n", '|'},
		{"semicolon with decimal commas", "id;value\n1;3,14\n2;2,71\n3;1,41\n", ';'},
	}

	for _, c := range cases {
		if got := Delimiter([]byte(c.sample)); got != c.want {
			t.Errorf("%s: Delimiter = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestDelimiter_QuoteAware(t *testing.T) {
	sample := "name,desc\n\"x;y;z\",one\n\"a;b;c\",two\n"
	if got := Delimiter([]byte(sample)); got != ',' {
		t.Errorf("Delimiter counted quoted semicolons: got %q", got)
	}
}
