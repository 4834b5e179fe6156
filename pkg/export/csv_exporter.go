package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOption tweaks the CSV dialect.
type CSVOption func(*CSVExporter)

// WithComma sets the field separator, e.g. ';' for locales that use a
// decimal comma.
func WithComma(comma rune) CSVOption {
	return func(e *CSVExporter) { e.comma = comma }
}

// WithBOM prefixes the output with a UTF-8 byte order mark so spreadsheet
// applications detect the encoding of non-ASCII names.
func WithBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = true }
}

// CSVExporter renders a Dataset as CSV, header row first. The title is not
// written.
type CSVExporter struct {
	comma rune
	bom   bool
}

// NewCSVExporter builds a comma separated exporter without BOM.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{comma: ','}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render encodes data.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	var buf bytes.Buffer
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.Comma = e.comma

	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, data.record(row))
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
