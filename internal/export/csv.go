// Package export serializes the published facility collection to GeoJSON,
// CSV, and optionally a point shapefile.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/carecap/hospcap-cli/internal/model"
)

// WriteCSV writes the facility collection as a flat table restricted to the
// manifest's ordered column list. Latitude and Longitude are derived from
// geometry; every other column must exist on every facility or the export
// aborts with no partial file left behind.
func WriteCSV(path string, facilities []*model.Facility, manifest *model.ExportManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create output dir for %s", path)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", tmp)
	}

	if err := writeCSVBody(f, facilities, manifest); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "export: close %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "export: rename %s", path)
	}

	return nil
}

func writeCSVBody(f *os.File, facilities []*model.Facility, manifest *model.ExportManifest) error {
	w := csv.NewWriter(f)

	if err := w.Write(manifest.Columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, fac := range facilities {
		row, err := buildRow(fac, manifest)
		if err != nil {
			return err
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "export: flush")
}

func buildRow(f *model.Facility, manifest *model.ExportManifest) ([]string, error) {
	lon, lat, hasPt := f.Coords()

	row := make([]string, 0, len(manifest.Columns))
	for _, col := range manifest.Columns {
		switch col {
		case model.ColLatitude:
			row = append(row, formatCoord(lat, hasPt))
		case model.ColLongitude:
			row = append(row, formatCoord(lon, hasPt))
		default:
			v, ok := f.Attrs[col]
			if !ok {
				return nil, eris.Errorf("export: facility %q missing column %q", f.ID(), col)
			}
			row = append(row, formatCell(v))
		}
	}

	return row, nil
}

func formatCoord(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", c)
	}
}
