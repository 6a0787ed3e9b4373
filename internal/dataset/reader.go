// Package dataset reads property batch files in CSV and XLSX formats.
// Columns follow the housing dataset header (area, bedrooms, mainroad,
// furnishingstatus, ...) in any order; unknown columns are ignored.
package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/homemetric/valuation-cli/internal/model"
)

// ReadProperties loads a batch of property inputs from a file, chosen
// by extension.
func ReadProperties(path string) ([]model.PropertyInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func readCSV(path string) ([]model.PropertyInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return parseRows(rows)
}

func readXLSX(path string) ([]model.PropertyInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("dataset: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]model.PropertyInput, error) {
	if len(rows) < 2 {
		return nil, eris.New("dataset: file needs a header row and at least one property")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	properties := make([]model.PropertyInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		in, err := parseRow(columns, row)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: row %d", i+2)
		}
		properties = append(properties, in)
	}
	return properties, nil
}

func parseRow(columns map[string]int, row []string) (model.PropertyInput, error) {
	var in model.PropertyInput
	var err error

	if in.Area, err = floatField(columns, row, "area"); err != nil {
		return in, err
	}
	if in.Bedrooms, err = intField(columns, row, "bedrooms"); err != nil {
		return in, err
	}
	if in.Bathrooms, err = intField(columns, row, "bathrooms"); err != nil {
		return in, err
	}
	if in.Stories, err = intField(columns, row, "stories"); err != nil {
		return in, err
	}
	if in.Parking, err = intField(columns, row, "parking"); err != nil {
		return in, err
	}
	if in.MainRoad, err = boolField(columns, row, "mainroad"); err != nil {
		return in, err
	}
	if in.GuestRoom, err = boolField(columns, row, "guestroom"); err != nil {
		return in, err
	}
	if in.Basement, err = boolField(columns, row, "basement"); err != nil {
		return in, err
	}
	if in.HotWaterHeating, err = boolField(columns, row, "hotwaterheating"); err != nil {
		return in, err
	}
	if in.AirConditioning, err = boolField(columns, row, "airconditioning"); err != nil {
		return in, err
	}
	if in.PreferredArea, err = boolField(columns, row, "prefarea"); err != nil {
		return in, err
	}

	in.FurnishingStatus = model.FurnishingStatus(strings.ToLower(cellValue(columns, row, "furnishingstatus")))
	in.City = cellValue(columns, row, "city")
	return in, nil
}

func cellValue(columns map[string]int, row []string, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func floatField(columns map[string]int, row []string, name string) (float64, error) {
	v := cellValue(columns, row, name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "column %s", name)
	}
	return f, nil
}

func intField(columns map[string]int, row []string, name string) (int, error) {
	v := cellValue(columns, row, name)
	if v == "" {
		return 0, nil
	}
	// XLSX numeric cells may render as "2.0".
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "column %s", name)
	}
	return int(f), nil
}

func boolField(columns map[string]int, row []string, name string) (bool, error) {
	switch strings.ToLower(cellValue(columns, row, name)) {
	case "yes", "true", "1", "y":
		return true, nil
	case "no", "false", "0", "n", "":
		return false, nil
	default:
		return false, eris.Errorf("column %s: unrecognized boolean %q", name, cellValue(columns, row, name))
	}
}
