// Package load reads raw building records from JSON and XLSX files. Records
// come out unvalidated; callers run them through the normalizer.
package load

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/renolab/renoplan/internal/model"
)

// xlsxHeader is the expected column order of a buildings workbook.
var xlsxHeader = []string{
	"id", "name", "country", "category", "construction_year",
	"floors", "floor_area_m2", "latitude", "longitude",
	"capex_override", "maintenance_override",
}

// LoadBuildings reads building records from a file, dispatching on the
// extension (.json or .xlsx).
func LoadBuildings(path string) ([]model.RawBuilding, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return loadJSON(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, eris.Errorf("load: unsupported file extension %q", ext)
	}
}

func loadJSON(path string) ([]model.RawBuilding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "load: read json file")
	}

	var buildings []model.RawBuilding
	if err := json.Unmarshal(data, &buildings); err != nil {
		return nil, eris.Wrap(err, "load: parse json buildings")
	}
	return buildings, nil
}

func loadXLSX(path string) ([]model.RawBuilding, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "load: open xlsx file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("load: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("load: workbook sheet is empty")
	}

	if err := checkHeader(rowToStrings(sheet.Rows[0])); err != nil {
		return nil, err
	}

	var buildings []model.RawBuilding
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if isBlankRow(cells) {
			continue
		}
		b, err := rowToBuilding(cells)
		if err != nil {
			return nil, eris.Wrapf(err, "load: row %d", i+2)
		}
		buildings = append(buildings, b)
	}
	return buildings, nil
}

func checkHeader(cells []string) error {
	if len(cells) < len(xlsxHeader) {
		return eris.Errorf("load: header has %d columns, want %d", len(cells), len(xlsxHeader))
	}
	for i, want := range xlsxHeader {
		if got := strings.ToLower(strings.TrimSpace(cells[i])); got != want {
			return eris.Errorf("load: header column %d is %q, want %q", i+1, cells[i], want)
		}
	}
	return nil
}

func rowToBuilding(cells []string) (model.RawBuilding, error) {
	// Short rows pad out to blank cells so trailing optional columns can
	// be omitted.
	for len(cells) < len(xlsxHeader) {
		cells = append(cells, "")
	}

	year, err := parseInt(cells[4], "construction_year")
	if err != nil {
		return model.RawBuilding{}, err
	}
	floors, err := parseInt(cells[5], "floors")
	if err != nil {
		return model.RawBuilding{}, err
	}
	area, err := parseFloat(cells[6], "floor_area_m2")
	if err != nil {
		return model.RawBuilding{}, err
	}
	lat, err := parseFloat(cells[7], "latitude")
	if err != nil {
		return model.RawBuilding{}, err
	}
	lng, err := parseFloat(cells[8], "longitude")
	if err != nil {
		return model.RawBuilding{}, err
	}
	capex, err := parseOptionalFloat(cells[9], "capex_override")
	if err != nil {
		return model.RawBuilding{}, err
	}
	maint, err := parseOptionalFloat(cells[10], "maintenance_override")
	if err != nil {
		return model.RawBuilding{}, err
	}

	return model.RawBuilding{
		ID:                  strings.TrimSpace(cells[0]),
		Name:                strings.TrimSpace(cells[1]),
		Country:             strings.TrimSpace(cells[2]),
		Category:            strings.TrimSpace(cells[3]),
		ConstructionYear:    year,
		Floors:              floors,
		FloorAreaM2:         area,
		Latitude:            lat,
		Longitude:           lng,
		CapexOverride:       capex,
		MaintenanceOverride: maint,
	}, nil
}

func parseInt(cell, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0, eris.Errorf("load: %s: not an integer: %q", field, cell)
	}
	return v, nil
}

func parseFloat(cell, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, eris.Errorf("load: %s: not a number: %q", field, cell)
	}
	return v, nil
}

// parseOptionalFloat maps a blank cell to nil and keeps an explicit "0" as a
// real zero value.
func parseOptionalFloat(cell, field string) (*float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("load: %s: not a number: %q", field, cell)
	}
	return &v, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
