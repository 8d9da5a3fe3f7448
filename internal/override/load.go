// Package override loads the manual-override table and merges it into the
// reconciled facility collection.
package override

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carecap/hospcap-cli/internal/fetcher"
	"github.com/carecap/hospcap-cli/internal/model"
)

// specialColumns are consumed by the merge step itself and never treated as
// attribute overrides.
var specialColumns = map[string]bool{
	strings.ToLower(model.ColCCMID):          true,
	strings.ToLower(model.ColLatitude):       true,
	strings.ToLower(model.ColLongitude):      true,
	strings.ToLower(model.ColOverrideReason): true,
	strings.ToLower(model.ColOverrideSource): true,
}

// Table is the manual-override table indexed by CCM_ID.
type Table struct {
	ids  []string // insertion order, deduplicated
	byID map[string]*model.OverrideRecord

	// AttrColumns lists the table's attribute columns (header minus id,
	// coordinates, and metadata) in header order. New facilities synthesized
	// from the table carry every one of these, blank cells as nil.
	AttrColumns []string

	// Diagnostics collected during load, surfaced by `overrides validate`.
	UnknownColumns []string
	DuplicateIDs   []string
	PartialCoords  []string
}

// Load reads an override table from CSV or, for .xlsx paths, from the first
// sheet of a workbook. Duplicate CCM_IDs keep the last row; the earlier row
// is logged and reported.
func Load(path string, manifest *model.ExportManifest) (*Table, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}

	colIdx := fetcher.MapColumns(header)
	if _, ok := colIdx[strings.ToLower(model.ColCCMID)]; !ok {
		return nil, eris.Errorf("override: %s has no %s column", path, model.ColCCMID)
	}

	log := zap.L().With(zap.String("component", "override"))
	t := &Table{byID: make(map[string]*model.OverrideRecord)}

	for _, col := range header {
		if col == "" || specialColumns[strings.ToLower(col)] {
			continue
		}
		t.AttrColumns = append(t.AttrColumns, col)
		if !manifest.Has(col) {
			t.UnknownColumns = append(t.UnknownColumns, col)
			log.Warn("override column not in export manifest", zap.String("column", col))
		}
	}

	for _, row := range rows {
		id := fetcher.GetCol(row, colIdx, model.ColCCMID)
		if id == "" {
			continue
		}

		rec := &model.OverrideRecord{
			CCMID:     id,
			Reason:    fetcher.GetCol(row, colIdx, model.ColOverrideReason),
			NewSource: fetcher.GetCol(row, colIdx, model.ColOverrideSource),
			Attrs:     make(map[string]string),
		}

		rec.Latitude = parseCoord(fetcher.GetCol(row, colIdx, model.ColLatitude))
		rec.Longitude = parseCoord(fetcher.GetCol(row, colIdx, model.ColLongitude))
		if (rec.Latitude == nil) != (rec.Longitude == nil) {
			t.PartialCoords = append(t.PartialCoords, id)
			log.Warn("override supplies only one coordinate, pair ignored",
				zap.String("ccm_id", id))
		}

		for _, col := range header {
			if col == "" || specialColumns[strings.ToLower(col)] {
				continue
			}
			if cell := fetcher.GetCol(row, colIdx, col); cell != "" {
				rec.Attrs[col] = cell
			}
		}

		if _, dup := t.byID[id]; dup {
			t.DuplicateIDs = append(t.DuplicateIDs, id)
			log.Warn("duplicate override row, keeping last", zap.String("ccm_id", id))
		} else {
			t.ids = append(t.ids, id)
		}
		t.byID[id] = rec
	}

	return t, nil
}

func readTable(path string) ([]string, [][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fetcher.ReadXLSXTable(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "override: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return fetcher.ReadCSVTable(f)
}

func parseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Get returns the override record for an id, or nil.
func (t *Table) Get(id string) *model.OverrideRecord {
	return t.byID[id]
}

// IDs returns the table's CCM_IDs in first-appearance order.
func (t *Table) IDs() []string {
	return t.ids
}

// Len returns the number of distinct override ids.
func (t *Table) Len() int {
	return len(t.byID)
}
