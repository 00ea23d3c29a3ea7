package model

import (
	"github.com/twpayne/go-geom"
)

// ConstructionPeriod is the bucket a building's construction year falls into.
// The buckets match the archetype tables used by the estimation service.
type ConstructionPeriod string

const (
	PeriodPre1945  ConstructionPeriod = "pre-1945"
	Period1945to70 ConstructionPeriod = "1945-1970"
	Period1971to90 ConstructionPeriod = "1971-1990"
	Period1991to00 ConstructionPeriod = "1991-2000"
	Period2001to10 ConstructionPeriod = "2001-2010"
	PeriodPost2010 ConstructionPeriod = "post-2010"
)

// periodTable maps the last year of each bucket to its period, in order.
// Years beyond the table fall into PeriodPost2010.
var periodTable = []struct {
	until  int
	period ConstructionPeriod
}{
	{1944, PeriodPre1945},
	{1970, Period1945to70},
	{1990, Period1971to90},
	{2000, Period1991to00},
	{2010, Period2001to10},
}

// PeriodForYear returns the construction-period bucket for a year.
func PeriodForYear(year int) ConstructionPeriod {
	for _, e := range periodTable {
		if year <= e.until {
			return e.period
		}
	}
	return PeriodPost2010
}

// RawBuilding is an unvalidated building record as it arrives from user input
// or a file import. It must pass through normalize.Normalize before any
// analysis sees it.
type RawBuilding struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Country             string         `json:"country"`
	Category            string         `json:"category"`
	ConstructionYear    int            `json:"construction_year"`
	Floors              int            `json:"floors"`
	FloorAreaM2         float64        `json:"floor_area_m2"`
	Latitude            float64        `json:"latitude"`
	Longitude           float64        `json:"longitude"`
	Archetype           string         `json:"archetype,omitempty"`
	Modifications       map[string]any `json:"modifications,omitempty"`
	CapexOverride       *float64       `json:"capex_override,omitempty"`
	MaintenanceOverride *float64       `json:"maintenance_override,omitempty"`
}

// CostOverride carries optional user-supplied cost figures. A nil field means
// "no override" and lets the financial service apply its dataset default; an
// explicit zero is a real override and is preserved as such.
type CostOverride struct {
	Capex             *float64 `json:"capex,omitempty"`
	AnnualMaintenance *float64 `json:"annual_maintenance,omitempty"`
}

// BuildingDescriptor is the canonical, validated form of a building. It is
// immutable once produced by the normalizer.
type BuildingDescriptor struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Country          string             `json:"country"`
	Category         string             `json:"category"`
	ConstructionYear int                `json:"construction_year"`
	Period           ConstructionPeriod `json:"period"`
	Floors           int                `json:"floors"`
	FloorAreaM2      float64            `json:"floor_area_m2"`
	Latitude         float64            `json:"latitude"`
	Longitude        float64            `json:"longitude"`
	Location         *geom.Point        `json:"-"`
	Archetype        string             `json:"archetype,omitempty"`
	Modifications    map[string]any     `json:"modifications,omitempty"`
	Costs            CostOverride       `json:"costs"`
}

// Coordinates returns the building's position. The normalized geometry point
// is authoritative when present; the raw fields are the fallback for
// descriptors built outside the normalizer.
func (d BuildingDescriptor) Coordinates() (lat, lng float64) {
	if d.Location != nil {
		return d.Location.Y(), d.Location.X()
	}
	return d.Latitude, d.Longitude
}
