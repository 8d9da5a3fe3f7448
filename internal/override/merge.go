package override

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/carecap/hospcap-cli/internal/model"
)

// MergeStats summarizes one merge pass.
type MergeStats struct {
	Applied       int
	NewFacilities int
}

// Merge applies the override table to the reconciled facility collection.
//
// Facilities whose CCM_ID appears in the table get each override value
// copied over the matching attribute already present on the facility; a full
// coordinate pair replaces the point geometry. Override ids with no matching
// facility are appended as brand-new point features carrying every
// non-coordinate, non-metadata column of the table, blank cells as nil. No
// facility is removed, and applying the same table twice is a no-op on the
// second pass.
func Merge(facilities []*model.Facility, tbl *Table) ([]*model.Facility, MergeStats) {
	log := zap.L().With(zap.String("component", "override"))

	var stats MergeStats
	existing := make(map[string]bool, len(facilities))

	for _, f := range facilities {
		id := f.ID()
		existing[id] = true

		rec := tbl.Get(id)
		if rec == nil {
			continue
		}

		for col, cell := range rec.Attrs {
			if _, ok := f.Attrs[col]; ok {
				f.Attrs[col] = coerceCell(cell)
			}
		}
		if rec.HasCoordinates() {
			f.SetPoint(*rec.Longitude, *rec.Latitude)
		}

		stats.Applied++
		log.Info("applied manual override",
			zap.String("ccm_id", id),
			zap.String("reason", rec.Reason),
			zap.String("new_source", rec.NewSource),
		)
	}

	for _, id := range tbl.IDs() {
		if existing[id] {
			continue
		}
		rec := tbl.Get(id)

		attrs := map[string]any{model.ColCCMID: rec.CCMID}
		for _, col := range tbl.AttrColumns {
			attrs[col] = nil
		}
		for col, cell := range rec.Attrs {
			attrs[col] = coerceCell(cell)
		}

		f := model.NewFacility(nil, attrs)
		if rec.HasCoordinates() {
			f.SetPoint(*rec.Longitude, *rec.Latitude)
		} else {
			log.Warn("new override facility has no coordinates", zap.String("ccm_id", id))
		}

		facilities = append(facilities, f)
		stats.NewFacilities++
		log.Info("inserted new facility from override",
			zap.String("ccm_id", id),
			zap.String("reason", rec.Reason),
			zap.String("new_source", rec.NewSource),
		)
	}

	return facilities, stats
}

// coerceCell turns a spreadsheet cell into an attribute value: numeric text
// becomes float64, anything else stays a string.
func coerceCell(cell string) any {
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
