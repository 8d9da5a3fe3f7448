package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twpayne/go-geom"
)

func TestCanonicalID(t *testing.T) {
	assert.Equal(t, "1234", CanonicalID(float64(1234)))
	assert.Equal(t, "1234", CanonicalID("1234"))
	assert.Equal(t, "1234", CanonicalID(" 1234 "))
	assert.Equal(t, "1234.5", CanonicalID(1234.5))
	assert.Equal(t, "42", CanonicalID(42))
	assert.Equal(t, "42", CanonicalID(int64(42)))
	assert.Equal(t, "", CanonicalID(nil))
}

func TestToFloat(t *testing.T) {
	v, ok := ToFloat(float64(12))
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)

	v, ok = ToFloat("0.66")
	assert.True(t, ok)
	assert.InDelta(t, 0.66, v, 1e-9)

	v, ok = ToFloat(" 7 ")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	_, ok = ToFloat(nil)
	assert.False(t, ok)

	_, ok = ToFloat("General Acute Care")
	assert.False(t, ok)
}

func TestFacilityCoords(t *testing.T) {
	f := NewFacility(nil, nil)
	_, _, ok := f.Coords()
	assert.False(t, ok)

	f.SetPoint(-86.78, 33.5)
	lon, lat, ok := f.Coords()
	assert.True(t, ok)
	assert.Equal(t, -86.78, lon)
	assert.Equal(t, 33.5, lat)

	g := NewFacility(geom.NewPointFlat(geom.XY, []float64{-77.0, 38.9}), nil)
	lon, lat, ok = g.Coords()
	assert.True(t, ok)
	assert.Equal(t, -77.0, lon)
	assert.Equal(t, 38.9, lat)
}

func TestFacilityNum(t *testing.T) {
	f := NewFacility(nil, map[string]any{
		AttrStaffedAllBeds: float64(120),
		"Name":             "General Hospital",
	})

	v, ok := f.Num(AttrStaffedAllBeds)
	assert.True(t, ok)
	assert.Equal(t, 120.0, v)

	_, ok = f.Num("Name")
	assert.False(t, ok)

	_, ok = f.Num(AttrLicensedAllBeds)
	assert.False(t, ok)
}

func TestSourceLabels(t *testing.T) {
	assert.Equal(t, "Staffed All Beds - SOURCE", SourceCol(AttrStaffedAllBeds))
	assert.Equal(t, "DH-NUM_STAFFED_BEDS", DHSource(RawDHStaffedBeds))
	assert.Equal(t, "HCRIS-Total Staffed Beds", HCRISSource(RawHCRISStaffedBeds))
}
