package analysis

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX loads the first sheet of a workbook. The first non-blank row is the header.
func readXLSX(data []byte, name string) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, sheets[0], err)
	}
	var records [][]string
	for _, r := range rows {
		if blankRecord(r) {
			continue
		}
		records = append(records, r)
	}
	t := buildTable(records)
	if len(t.Headers) <= 1 {
		return nil, ErrUnreadable
	}
	t.Name = name
	t.Encoding = "xlsx"
	return t, nil
}
