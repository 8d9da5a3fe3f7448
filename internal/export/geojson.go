package export

import (
	"github.com/carecap/hospcap-cli/internal/hospgeo"
	"github.com/carecap/hospcap-cli/internal/model"
)

// WriteGeoJSON writes the facility collection as a GeoJSON FeatureCollection.
func WriteGeoJSON(path string, facilities []*model.Facility) error {
	return hospgeo.WriteCollection(path, hospgeo.Collection(facilities))
}
