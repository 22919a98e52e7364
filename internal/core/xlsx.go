//go:build !noxlsx

package core

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func init() {
	spreadsheetReader = readWorkbook
}

// readWorkbook reads the active sheet of an XLSX workbook. Row 1 is the header.
func readWorkbook(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, errors.New("workbook has no active sheet")
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := normalizeHeader(records[0])

	var rows []Row
	for i, cells := range records[1:] {
		values := zipRow(header, cells)
		if isBlankRow(values) {
			continue
		}
		rows = append(rows, Row{Line: i + 2, Values: values})
	}
	return rows, nil
}
