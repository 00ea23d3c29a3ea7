// Package normalize validates raw building records and reshapes them into
// canonical descriptors. It is pure: no I/O, no side effects.
package normalize

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/renolab/renoplan/internal/model"
)

// Construction-year bounds accepted for analysis.
const (
	MinConstructionYear = 1800
	MaxConstructionYear = 2030
)

// FieldError describes a single invalid field on a raw record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the full field-level error list for one record.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	parts := make([]string, len(ve))
	for i, fe := range ve {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid building record: " + strings.Join(parts, "; ")
}

// Rejected pairs a failed record with its error list.
type Rejected struct {
	Index  int              `json:"index"`
	ID     string           `json:"id"`
	Errors ValidationErrors `json:"errors"`
}

// Normalize validates a raw record and produces its canonical descriptor.
// A record with any invalid field is rejected entirely; the returned error is
// a ValidationErrors listing every failed field.
func Normalize(raw model.RawBuilding) (*model.BuildingDescriptor, error) {
	var errs ValidationErrors

	id := strings.TrimSpace(raw.ID)
	name := strings.TrimSpace(raw.Name)
	country := strings.TrimSpace(raw.Country)
	category := strings.TrimSpace(raw.Category)

	if id == "" {
		errs = append(errs, FieldError{Field: "id", Message: "must not be empty"})
	}
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "must not be empty"})
	}
	if country == "" {
		errs = append(errs, FieldError{Field: "country", Message: "must not be empty"})
	}
	if category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "must not be empty"})
	}
	if raw.ConstructionYear < MinConstructionYear || raw.ConstructionYear > MaxConstructionYear {
		errs = append(errs, FieldError{
			Field:   "construction_year",
			Message: fmt.Sprintf("must be between %d and %d", MinConstructionYear, MaxConstructionYear),
		})
	}
	if raw.Floors < 1 {
		errs = append(errs, FieldError{Field: "floors", Message: "must be at least 1"})
	}
	if raw.FloorAreaM2 <= 0 {
		errs = append(errs, FieldError{Field: "floor_area_m2", Message: "must be positive"})
	}
	if raw.Latitude < -90 || raw.Latitude > 90 {
		errs = append(errs, FieldError{Field: "latitude", Message: "must be between -90 and 90"})
	}
	if raw.Longitude < -180 || raw.Longitude > 180 {
		errs = append(errs, FieldError{Field: "longitude", Message: "must be between -180 and 180"})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &model.BuildingDescriptor{
		ID:               id,
		Name:             name,
		Country:          country,
		Category:         category,
		ConstructionYear: raw.ConstructionYear,
		Period:           model.PeriodForYear(raw.ConstructionYear),
		Floors:           raw.Floors,
		FloorAreaM2:      raw.FloorAreaM2,
		Latitude:         raw.Latitude,
		Longitude:        raw.Longitude,
		Location:         geom.NewPointFlat(geom.XY, []float64{raw.Longitude, raw.Latitude}),
		Archetype:        strings.TrimSpace(raw.Archetype),
		Modifications:    raw.Modifications,
		Costs: model.CostOverride{
			Capex:             raw.CapexOverride,
			AnnualMaintenance: raw.MaintenanceOverride,
		},
	}, nil
}

// All normalizes a slice of raw records, splitting valid descriptors from
// rejected rows. Valid descriptors keep their input order.
func All(raws []model.RawBuilding) ([]model.BuildingDescriptor, []Rejected) {
	var valid []model.BuildingDescriptor
	var rejected []Rejected

	for i, raw := range raws {
		desc, err := Normalize(raw)
		if err != nil {
			var ve ValidationErrors
			if errs, ok := err.(ValidationErrors); ok {
				ve = errs
			}
			rejected = append(rejected, Rejected{Index: i, ID: strings.TrimSpace(raw.ID), Errors: ve})
			continue
		}
		valid = append(valid, *desc)
	}

	return valid, rejected
}
