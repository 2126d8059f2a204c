// Package spreadsheet reads uploaded CSV and XLSX files into a header row
// plus ordered string rows.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for extensions other than csv, txt, xlsx and xlsm.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ErrTooManyRows is returned when a file exceeds the configured row cap.
var ErrTooManyRows = errors.New("spreadsheet has too many rows")

// Config holds upload limits.
type Config struct {
	// MaxRows caps data rows per upload. Zero disables the cap.
	MaxRows int `mapstructure:"max_rows" default:"20000"`
}

// Sheet is a parsed spreadsheet.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Read parses data according to the extension of name.
func Read(name string, data []byte, cfg Config) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", "":
		records, err = readCSV(data)
	case ".xlsx", ".xlsm":
		records, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	// blank lines above the header are skipped; below it every record is a row
	for len(records) > 0 && isEmpty(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}

	sheet := &Sheet{Header: trimRow(records[0]), Rows: records[1:]}
	if cfg.MaxRows > 0 && len(sheet.Rows) > cfg.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, the limit is %d", ErrTooManyRows, len(sheet.Rows), cfg.MaxRows)
	}
	return sheet, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func isEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
