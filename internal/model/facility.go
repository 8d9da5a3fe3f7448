package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// Published attribute names.
const (
	ColCCMID     = "CCM_ID"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"

	AttrStaffedAllBeds  = "Staffed All Beds"
	AttrStaffedICUBeds  = "Staffed ICU Beds"
	AttrLicensedAllBeds = "Licensed All Beds"
	AttrAllBedOccupancy = "All Bed Occupancy Rate"
	AttrICUBedOccupancy = "ICU Bed Occupancy Rate"
)

// Raw DH columns on the merged input.
const (
	RawDHObjectID     = "OBJECTID"
	RawDHName         = "HOSPITAL_NAME"
	RawDHType         = "HOSPITAL_TYPE"
	RawDHAddress      = "HQ_ADDRESS"
	RawDHAddress2     = "HQ_ADDRESS1"
	RawDHCity         = "HQ_CITY"
	RawDHState        = "HQ_STATE"
	RawDHZip          = "HQ_ZIP_CODE"
	RawDHCounty       = "COUNTY_NAME"
	RawDHStaffedBeds  = "NUM_STAFFED_BEDS"
	RawDHICUBeds      = "NUM_ICU_BEDS"
	RawDHLicensedBeds = "NUM_LICENSED_BEDS"
	RawDHUtilization  = "BED_UTILIZATION"
)

// Raw HCRIS columns on the merged input.
const (
	RawHCRISStaffedBeds  = "Total Staffed Beds"
	RawHCRISICUBeds      = "Total ICU Beds"
	RawHCRISOccupancy    = "Bed Occupancy Rate"
	RawHCRISICUOccupancy = "ICU Occupancy Rate"
)

// SourceSuffix is appended to a computed attribute name to form its
// provenance column.
const SourceSuffix = " - SOURCE"

// ProvenanceNone marks a computed attribute for which no source had data.
const ProvenanceNone = "None"

// SourceCol returns the provenance column name for a computed attribute.
func SourceCol(attr string) string {
	return attr + SourceSuffix
}

// DHSource returns the provenance label for a DH-sourced column.
func DHSource(col string) string { return "DH-" + col }

// HCRISSource returns the provenance label for an HCRIS-sourced column.
func HCRISSource(col string) string { return "HCRIS-" + col }

// ComputedAttrs lists the derived attributes in publication order.
// Licensed beds must come after staffed beds: its reconciliation reads the
// already-resolved staffed value.
var ComputedAttrs = []string{
	AttrStaffedAllBeds,
	AttrStaffedICUBeds,
	AttrLicensedAllBeds,
	AttrAllBedOccupancy,
	AttrICUBedOccupancy,
}

// DirectMap lists raw-to-published column copies in publication order.
var DirectMap = []struct {
	Raw string
	Out string
}{
	{RawDHName, "Name"},
	{RawDHType, "Hospital Type"},
	{RawDHAddress, "Address"},
	{RawDHAddress2, "Address_2"},
	{RawDHCity, "City"},
	{RawDHState, "State"},
	{RawDHZip, "Zipcode"},
	{RawDHCounty, "County"},
}

// Facility is one hospital record: a point location plus a flat attribute map.
// Attribute values are nil (absent), float64, or string.
type Facility struct {
	Point *geom.Point
	Attrs map[string]any
}

// NewFacility creates a facility at the given location. Either coordinate
// pair may be omitted by passing a nil point.
func NewFacility(point *geom.Point, attrs map[string]any) *Facility {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &Facility{Point: point, Attrs: attrs}
}

// ID returns the facility's CCM_ID, or "" if unassigned.
func (f *Facility) ID() string {
	return CanonicalID(f.Attrs[ColCCMID])
}

// Num returns the named attribute coerced to float64.
// Returns ok=false for absent, nil, or non-numeric values.
func (f *Facility) Num(key string) (float64, bool) {
	return ToFloat(f.Attrs[key])
}

// SetPoint replaces the facility location.
func (f *Facility) SetPoint(lon, lat float64) {
	f.Point = geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

// Coords returns the facility's longitude and latitude.
// ok is false when the facility has no geometry.
func (f *Facility) Coords() (lon, lat float64, ok bool) {
	if f.Point == nil {
		return 0, 0, false
	}
	return f.Point.X(), f.Point.Y(), true
}

// CanonicalID renders an identifier value as a stable string key.
// JSON numbers arrive as float64; integral values are printed without a
// fractional part so "1234" and 1234.0 index identically.
func CanonicalID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		if id == float64(int64(id)) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// ToFloat coerces an attribute value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
