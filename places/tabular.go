// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"

	"github.com/jcodagnone/latlong/extraction"
)

// Format is a tabular export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates an --output-format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, csv or xlsx)", s)
	}
}

// xlsxSheet is the worksheet holding the exported places.
const xlsxSheet = "Places"

// Row is the tabular view of a place. Coordinates are kept as the decimal
// text stored in the JSON file.
type Row struct {
	Key       string `csv:"key"`
	Name      string `csv:"name"`
	URL       string `csv:"gmaps_url"`
	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`
}

var rowHeader = []string{"key", "name", "gmaps_url", "latitude", "longitude"}

// Rows returns one row per place, in collection order.
func (c *Collection) Rows() []Row {
	rows := make([]Row, 0, len(c.Records))

	for _, r := range c.Records {
		row := Row{Key: r.Key, Name: r.Name, URL: r.URL}
		if r.Coordinate != nil {
			row.Latitude = r.Coordinate.LatText
			row.Longitude = r.Coordinate.LngText
		}

		rows = append(rows, row)
	}

	return rows
}

// FromRows builds a collection from tabular rows. Rows with only one of
// latitude and longitude are loaded without coordinate.
func FromRows(rows []Row) (*Collection, error) {
	c := NewCollection()

	for i, row := range rows {
		if row.Key == "" {
			return nil, fmt.Errorf("row %d: empty key", i+1)
		}

		var coord *extraction.Coordinate

		if row.Latitude != "" && row.Longitude != "" {
			parsed, err := extraction.ParseCoordinate(row.Latitude, row.Longitude)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): %w", i+1, row.Key, err)
			}

			coord = &parsed
		}

		r, err := NewRecord(row.Key, row.Name, row.URL, coord)
		if err != nil {
			return nil, err
		}

		c.Add(r)
	}

	return c, nil
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(Row{}); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("csv row %s: %w", row.Key, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ReadCSV reads rows written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("csv header: %w", err)
	}

	var rows []Row

	for {
		var row Row

		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}

		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}

		rows = append(rows, row)
	}
}

// WriteXLSX writes rows into a single "Places" worksheet.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range rowHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}

	for i, row := range rows {
		values := []string{row.Key, row.Name, row.URL, row.Latitude, row.Longitude}

		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			// coordinates stay text so no digit is lost to float formatting
			if err := f.SetCellStr(xlsxSheet, cell, v); err != nil {
				return fmt.Errorf("xlsx %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(xlsxSheet, "A", "A", 20)
	_ = f.SetColWidth(xlsxSheet, "B", "B", 40)
	_ = f.SetColWidth(xlsxSheet, "C", "C", 60)
	_ = f.SetColWidth(xlsxSheet, "D", "E", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	return nil
}

// ReadXLSX reads rows written by WriteXLSX.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx open: %w", err)
	}
	defer f.Close()

	cells, err := f.GetRows(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx rows: %w", err)
	}

	var rows []Row

	for i, c := range cells {
		if i == 0 {
			continue
		}

		// trailing empty cells are omitted by GetRows
		c = append(c, make([]string, len(rowHeader))...)
		rows = append(rows, Row{Key: c[0], Name: c[1], URL: c[2], Latitude: c[3], Longitude: c[4]})
	}

	return rows, nil
}

// ExportPath is where a collection loaded from input is exported: the
// input file name with the format extension, in the current directory.
func ExportPath(input string, format Format) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	return stem + "." + string(format)
}

// Export writes the collection to path in the given tabular format.
func (c *Collection) Export(path string, format Format) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	switch format {
	case FormatCSV:
		err = WriteCSV(f, c.Rows())
	case FormatXLSX:
		err = WriteXLSX(f, c.Rows())
	case FormatJSON:
		var data []byte
		if data, err = c.Marshal(); err == nil {
			_, err = f.Write(data)
		}
	default:
		err = fmt.Errorf("unknown format %q", format)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	return nil
}

// Import reads a CSV or XLSX file, chosen by extension, into a collection.
func Import(path string) (*Collection, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	var rows []Row

	switch Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")) {
	case FormatXLSX:
		rows, err = ReadXLSX(f)
	case FormatCSV:
		rows, err = ReadCSV(f)
	default:
		return nil, fmt.Errorf("import %s: want a .csv or .xlsx file", path)
	}

	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	return FromRows(rows)
}
