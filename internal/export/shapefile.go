package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carecap/hospcap-cli/internal/model"
)

// dbfTextWidth is the attribute width used for every shapefile column.
// DBF cells are fixed-width text; published values are short.
const dbfTextWidth = 128

// WriteShapefile writes the facility collection as a point shapefile with
// the manifest's columns as DBF attributes. Facilities without geometry are
// skipped: a shapefile record cannot carry a null shape.
func WriteShapefile(path string, facilities []*model.Facility, manifest *model.ExportManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create output dir for %s", path)
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := make([]shp.Field, len(manifest.Columns))
	for i, col := range manifest.Columns {
		fields[i] = shp.StringField(dbfFieldName(col, i), dbfTextWidth)
	}
	w.SetFields(fields)

	log := zap.L().With(zap.String("component", "export"))
	var skipped int

	for _, f := range facilities {
		lon, lat, ok := f.Coords()
		if !ok {
			skipped++
			continue
		}

		idx := int(w.Write(&shp.Point{X: lon, Y: lat}))
		for j, col := range manifest.Columns {
			var cell string
			switch col {
			case model.ColLatitude:
				cell = formatCoord(lat, true)
			case model.ColLongitude:
				cell = formatCoord(lon, true)
			default:
				cell = formatCell(f.Attrs[col])
			}
			if err := w.WriteAttribute(idx, j, cell); err != nil {
				return eris.Wrapf(err, "export: shapefile attribute %s", col)
			}
		}
	}

	if skipped > 0 {
		log.Warn("skipped facilities without geometry in shapefile export",
			zap.Int("skipped", skipped))
	}

	return nil
}

// dbfFieldName fits a published column name into the 10-character DBF
// limit: uppercased, non-alphanumerics collapsed to underscores, suffixed
// with the column index when truncation would collide.
func dbfFieldName(col string, idx int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(col) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) <= 10 {
		return name
	}

	suffix := fmt.Sprintf("%d", idx)
	return name[:10-len(suffix)] + suffix
}
