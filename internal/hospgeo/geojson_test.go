package hospgeo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carecap/hospcap-cli/internal/model"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-86.78, 33.5]},
      "properties": {"HOSPITAL_NAME": "General Hospital", "NUM_STAFFED_BEDS": 120}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-77.03, 38.9]},
      "properties": {"HOSPITAL_NAME": "City Medical Center", "NUM_STAFFED_BEDS": null}
    }
  ]
}`

func TestLoadCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.geojson")
	require.NoError(t, os.WriteFile(path, []byte(sampleGeoJSON), 0o644))

	fc, err := LoadCollection(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	facilities := Facilities(fc)
	require.Len(t, facilities, 2)

	lon, lat, ok := facilities[0].Coords()
	require.True(t, ok)
	assert.InDelta(t, -86.78, lon, 1e-9)
	assert.InDelta(t, 33.5, lat, 1e-9)
	assert.Equal(t, "General Hospital", facilities[0].Attrs["HOSPITAL_NAME"])

	// JSON numbers decode as float64; JSON null decodes as nil.
	beds, ok := facilities[0].Num(model.RawDHStaffedBeds)
	require.True(t, ok)
	assert.Equal(t, 120.0, beds)
	assert.Nil(t, facilities[1].Attrs[model.RawDHStaffedBeds])
}

func TestLoadCollectionMissingFile(t *testing.T) {
	_, err := LoadCollection(filepath.Join(t.TempDir(), "nope.geojson"))
	assert.Error(t, err)
}

func TestWriteCollectionRoundTrip(t *testing.T) {
	f := model.NewFacility(nil, map[string]any{
		model.ColCCMID: "17",
		"Name":         "General Hospital",
	})
	f.SetPoint(-86.78, 33.5)

	path := filepath.Join(t.TempDir(), "out", "published.geojson")
	require.NoError(t, WriteCollection(path, Collection([]*model.Facility{f})))

	fc, err := LoadCollection(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	got := Facilities(fc)[0]
	assert.Equal(t, "17", got.ID())
	assert.Equal(t, "General Hospital", got.Attrs["Name"])

	lon, lat, ok := got.Coords()
	require.True(t, ok)
	assert.InDelta(t, -86.78, lon, 1e-9)
	assert.InDelta(t, 33.5, lat, 1e-9)

	// No stray temp file once the rename has landed.
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}
