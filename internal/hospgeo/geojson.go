// Package hospgeo reads and writes the facility feature collections the
// pipeline consumes and publishes.
package hospgeo

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/carecap/hospcap-cli/internal/model"
)

// LoadCollection reads a GeoJSON FeatureCollection from disk.
func LoadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "hospgeo: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "hospgeo: parse %s", path)
	}

	return &fc, nil
}

// WriteCollection serializes a FeatureCollection to disk. The file is
// written to a temporary sibling and renamed so a failed run never leaves a
// partial output behind.
func WriteCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "hospgeo: marshal collection")
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "hospgeo: create output dir for %s", path)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "hospgeo: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "hospgeo: rename %s", path)
	}

	return nil
}

// Facilities converts a FeatureCollection to facility records. Non-point
// geometries are carried as location-less facilities; geometry validation is
// upstream's responsibility.
func Facilities(fc *geojson.FeatureCollection) []*model.Facility {
	out := make([]*model.Facility, 0, len(fc.Features))
	for _, ft := range fc.Features {
		var pt *geom.Point
		if p, ok := ft.Geometry.(*geom.Point); ok {
			pt = p
		}
		out = append(out, model.NewFacility(pt, ft.Properties))
	}
	return out
}

// Collection converts facility records back to a FeatureCollection.
// Feature IDs carry the CCM_ID.
func Collection(facilities []*model.Facility) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(facilities))}
	for _, f := range facilities {
		var g geom.T
		if f.Point != nil {
			g = f.Point
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         f.ID(),
			Geometry:   g,
			Properties: f.Attrs,
		})
	}
	return fc
}
