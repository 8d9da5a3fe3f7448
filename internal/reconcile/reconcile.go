// Package reconcile resolves each published bed-capacity attribute from the
// competing DH and HCRIS source columns, recording provenance per value.
package reconcile

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carecap/hospcap-cli/internal/model"
)

// Candidate pairs a provenance label with the raw column it reads.
type Candidate struct {
	Label  string
	Column string
}

// Rule declares the source priority order for one computed attribute.
// Candidates are evaluated in order; the first non-null value wins.
type Rule struct {
	Attr       string
	Candidates []Candidate
}

// Rules lists the priority-fallback rules for the computed attributes.
// Licensed beds is absent here: it is mandatory and reconciled against the
// staffed-beds result by Facility.
var Rules = []Rule{
	{
		Attr: model.AttrStaffedAllBeds,
		Candidates: []Candidate{
			{model.DHSource(model.RawDHStaffedBeds), model.RawDHStaffedBeds},
			{model.HCRISSource(model.RawHCRISStaffedBeds), model.RawHCRISStaffedBeds},
		},
	},
	{
		Attr: model.AttrStaffedICUBeds,
		Candidates: []Candidate{
			{model.DHSource(model.RawDHICUBeds), model.RawDHICUBeds},
			{model.HCRISSource(model.RawHCRISICUBeds), model.RawHCRISICUBeds},
		},
	},
	{
		Attr: model.AttrAllBedOccupancy,
		Candidates: []Candidate{
			{model.DHSource(model.RawDHUtilization), model.RawDHUtilization},
			{model.HCRISSource(model.RawHCRISOccupancy), model.RawHCRISOccupancy},
		},
	},
	{
		Attr: model.AttrICUBedOccupancy,
		Candidates: []Candidate{
			{model.HCRISSource(model.RawHCRISICUOccupancy), model.RawHCRISICUOccupancy},
		},
	},
}

// Result is one resolved attribute value and the label of the source that
// produced it. A nil Value carries Source == model.ProvenanceNone.
type Result struct {
	Value  any
	Source string
}

// Resolve evaluates a rule against a raw attribute map, stopping at the
// first non-null candidate. A zero value is data, not absence.
func Resolve(attrs map[string]any, rule Rule) Result {
	for _, c := range rule.Candidates {
		if v, ok := attrs[c.Column]; ok && v != nil {
			return Result{Value: v, Source: c.Label}
		}
	}
	return Result{Value: nil, Source: model.ProvenanceNone}
}

// Facility reconciles all computed attributes for one facility's raw
// attribute map. The returned map is keyed by published attribute name; the
// facility itself is not mutated.
//
// A missing licensed-bed count is fatal: DH is the only licensed-bed source
// and the published dataset guarantees the column.
func Facility(attrs map[string]any, warnThreshold float64) (map[string]Result, error) {
	results := make(map[string]Result, len(Rules)+1)
	for _, rule := range Rules {
		results[rule.Attr] = Resolve(attrs, rule)
	}

	licensed, err := reconcileLicensed(attrs, results[model.AttrStaffedAllBeds])
	if err != nil {
		// Dump the record so the bad source row can be found upstream.
		zap.L().Error("facility has no licensed bed count",
			zap.Any("properties", attrs))
		return nil, err
	}
	results[model.AttrLicensedAllBeds] = licensed

	warnStaffedDiscrepancy(attrs, warnThreshold)

	return results, nil
}

// reconcileLicensed resolves licensed beds from DH and floors the result at
// the already-resolved staffed-beds value: the published licensed figure is
// never below the published staffed figure.
func reconcileLicensed(attrs map[string]any, staffed Result) (Result, error) {
	raw, ok := attrs[model.RawDHLicensedBeds]
	if !ok || raw == nil {
		return Result{}, eris.Errorf(
			"reconcile: facility %q (%s=%s) has no %s value",
			model.CanonicalID(attrs[model.RawDHName]),
			model.RawDHObjectID,
			model.CanonicalID(attrs[model.RawDHObjectID]),
			model.RawDHLicensedBeds,
		)
	}

	licensed := Result{Value: raw, Source: model.DHSource(model.RawDHLicensedBeds)}

	licensedN, okL := model.ToFloat(licensed.Value)
	staffedN, okS := model.ToFloat(staffed.Value)
	if okL && okS && licensedN < staffedN {
		return staffed, nil
	}

	return licensed, nil
}

// warnStaffedDiscrepancy logs when DH and HCRIS both report staffed beds and
// disagree by more than the threshold. Diagnostic only.
func warnStaffedDiscrepancy(attrs map[string]any, threshold float64) {
	dh, okDH := model.ToFloat(attrs[model.RawDHStaffedBeds])
	hcris, okHCRIS := model.ToFloat(attrs[model.RawHCRISStaffedBeds])
	if !okDH || !okHCRIS {
		return
	}
	if diff := math.Abs(dh - hcris); diff > threshold {
		zap.L().Warn("staffed bed counts disagree between sources",
			zap.String("facility", model.CanonicalID(attrs[model.RawDHName])),
			zap.String("object_id", model.CanonicalID(attrs[model.RawDHObjectID])),
			zap.Float64("dh", dh),
			zap.Float64("hcris", hcris),
			zap.Float64("diff", diff),
		)
	}
}
