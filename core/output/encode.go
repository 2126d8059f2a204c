package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"geomancer/core/merge"
	"geomancer/core/utils"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet name of XLSX output.
const SheetName = "Geomancer Output"

const (
	FormatCSV  = ".csv"
	FormatXLSX = ".xlsx"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FormatFor returns the output extension for an input filename.
func FormatFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// ContentType returns the MIME type of an artifact name.
func ContentType(name string) string {
	if strings.EqualFold(filepath.Ext(name), FormatXLSX) {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// Encode serializes the table in the given format.
func Encode(format string, t *merge.Table) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return encodeXLSX(t)
	case FormatCSV:
		return encodeCSV(t)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

func encodeCSV(t *merge.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	record := make([]string, t.Width())
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = utils.ToString(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(t *merge.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}
	for r, row := range t.Rows {
		cells := make([]any, t.Width())
		for i := range cells {
			cells[i] = ""
			if i < len(row) && row[i] != nil {
				cells[i] = row[i]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
