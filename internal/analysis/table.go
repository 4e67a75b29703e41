package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrEmptyFile is returned for uploads without any content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrUnreadable is returned when no encoding/separator combination yields a table.
	ErrUnreadable = errors.New("file unreadable: no supported encoding and separator combination produced more than one column")
)

// sniffLines is how many lines of the decoded text are used to trial a separator.
const sniffLines = 20

// RawTable is an uploaded file parsed into rows keyed by raw header.
type RawTable struct {
	Name      string
	Headers   []string
	Rows      []map[string]string
	Encoding  string
	Separator rune
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the values of header h in row order.
func (t *RawTable) Column(h string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[h]
	}
	return out
}

type textDecoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// Encodings are tried top to bottom; iso-8859-1 always decodes so it is last.
var textDecoders = []textDecoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "utf-16", decode: decodeUTF16},
	{name: "windows-1252", decode: decodeCharmap(charmap.Windows1252)},
	{name: "iso-8859-1", decode: decodeCharmap(charmap.ISO8859_1)},
}

// Separators are tried in this order for every encoding.
var separators = []rune{',', ';', '\t', '|'}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	zipMagic   = []byte("PK\x03\x04")
)

func decodeUTF8(b []byte) (string, bool) {
	b = bytes.TrimPrefix(b, bomUTF8)
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func decodeUTF16(b []byte) (string, bool) {
	if !bytes.HasPrefix(b, bomUTF16LE) && !bytes.HasPrefix(b, bomUTF16BE) {
		return "", false
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeCharmap(enc encoding.Encoding) func([]byte) (string, bool) {
	return func(b []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}

// ReadTable sniffs the encoding and separator of data and parses it into a RawTable.
// XLSX workbooks are detected by their zip signature; the file name is not
// trusted, so a CSV saved as .xlsx is still read as text.
// Sniffing is best effort: the first combination whose header has more than one
// column wins, it does not validate the file format.
func ReadTable(data []byte, name string) (*RawTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if bytes.HasPrefix(data, zipMagic) {
		return readXLSX(data, name)
	}
	for _, dec := range textDecoders {
		text, ok := dec.decode(data)
		if !ok {
			continue
		}
		for _, sep := range separators {
			if !trialSeparator(text, sep) {
				continue
			}
			records, err := readRecords(strings.NewReader(text), sep, 0)
			if err != nil {
				continue
			}
			t := buildTable(records)
			if len(t.Headers) <= 1 {
				continue
			}
			t.Name = name
			t.Encoding = dec.name
			t.Separator = sep
			return t, nil
		}
	}
	return nil, ErrUnreadable
}

// trialSeparator parses a small prefix of text and reports whether sep splits the header.
func trialSeparator(text string, sep rune) bool {
	prefix := text
	for i, n := 0, 0; i < len(text); i++ {
		if text[i] == '\n' {
			n++
			if n == sniffLines {
				prefix = text[:i]
				break
			}
		}
	}
	records, err := readRecords(strings.NewReader(prefix), sep, 1)
	if err != nil || len(records) == 0 {
		return false
	}
	return len(records[0]) > 1
}

// readRecords reads up to limit records (0 = all) skipping fully blank lines.
func readRecords(r io.Reader, sep rune, limit int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	var out [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		if blankRecord(rec) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// buildTable turns records (header first) into a RawTable. Short rows are padded,
// long rows truncated, blank and repeated headers get positional names.
func buildTable(records [][]string) *RawTable {
	t := &RawTable{}
	if len(records) == 0 {
		return t
	}
	seen := map[string]int{}
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 1
		}
		t.Headers = append(t.Headers, h)
	}
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
