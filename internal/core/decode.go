package core

// decode.go turns an uploaded file into header-keyed rows.
//
// The format is chosen from the file name extension alone. CSV text goes
// through the encoding chain in encoding.go; XLSX workbooks are read by the
// spreadsheet reader registered in xlsx.go, which is compiled out with the
// noxlsx build tag.
//
// Header cells are lower-cased and also trimmed of surrounding whitespace,
// so " Email " in an export still maps to the email column. Quoting is
// lenient: a stray quote inside an unquoted cell, as in Robert "Bob" Smith,
// is kept as text instead of failing the file.

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
)

// SpreadsheetReader decodes the active sheet of a workbook into rows.
type SpreadsheetReader func(data []byte) ([]Row, error)

// spreadsheetReader is set at init time when spreadsheet support is built in.
var spreadsheetReader SpreadsheetReader

// Capabilities lists the optional decoders available in this build.
type Capabilities struct {
	Spreadsheet bool `json:"xlsx"`
}

// CurrentCapabilities reports the optional decoders compiled into this binary.
func CurrentCapabilities() Capabilities {
	return Capabilities{Spreadsheet: spreadsheetReader != nil}
}

// DecodedFile is the Decoder output.
type DecodedFile struct {
	Format   FileFormat
	Encoding string // text encoding detected for CSV input
	Rows     []Row
}

// Decoder converts file bytes into rows.
type Decoder struct {
	spreadsheet SpreadsheetReader
}

// NewDecoder returns a Decoder using the spreadsheet support of this build.
func NewDecoder() *Decoder {
	return &Decoder{spreadsheet: spreadsheetReader}
}

// DetectFormat selects the file format from the name's extension.
//
// An empty name is treated as CSV while an unknown extension is rejected.
// The asymmetry is long-standing behaviour and callers rely on it.
func DetectFormat(fileName string) (FileFormat, error) {
	if fileName == "" {
		return FormatCSV, nil
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q (supported: .csv, .xlsx)", ErrUnsupportedFormat, fileName)
}

// Decode parses data according to the format implied by fileName.
func (d *Decoder) Decode(data []byte, fileName string) (*DecodedFile, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		if d.spreadsheet == nil {
			return nil, fmt.Errorf("%w: this build cannot read .xlsx files", ErrMissingDependency)
		}
		rows, err := d.spreadsheet(data)
		if err != nil {
			return nil, fmt.Errorf("%w: read spreadsheet: %v", ErrDecodeFailure, err)
		}
		return &DecodedFile{Format: FormatXLSX, Rows: rows}, nil

	default:
		text, enc, err := decodeText(data)
		if err != nil {
			return nil, err
		}
		rows, err := parseCSVRows(text)
		if err != nil {
			return nil, fmt.Errorf("%w: parse CSV: %v", ErrDecodeFailure, err)
		}
		return &DecodedFile{Format: FormatCSV, Encoding: enc, Rows: rows}, nil
	}
}

// parseCSVRows reads delimited text using the first record as header.
// Rows whose cells are all empty are dropped; line numbers still count them.
func parseCSVRows(text string) ([]Row, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := normalizeHeader(records[0])

	var rows []Row
	for i, record := range records[1:] {
		values := zipRow(header, record)
		if isBlankRow(values) {
			continue
		}
		rows = append(rows, Row{Line: i + 2, Values: values})
	}
	return rows, nil
}

// normalizeHeader trims and lower-cases header cells. Trimming goes beyond
// plain lower-casing so padded export headers still match the column table.
// Blank cells stay "" and are skipped by zipRow.
func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, h := range cells {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return header
}

// zipRow pairs header keys with cells by column index. Missing cells become "".
// When a header repeats, the rightmost column wins.
func zipRow(header, cells []string) RawRow {
	values := make(RawRow, len(header))
	for col, key := range header {
		if key == "" {
			continue
		}
		if col < len(cells) {
			values[key] = cells[col]
		} else {
			values[key] = ""
		}
	}
	return values
}
