package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carecap/hospcap-cli/internal/model"
)

func rawAttrs(overlay map[string]any) map[string]any {
	attrs := map[string]any{
		model.RawDHObjectID:        float64(17),
		model.RawDHName:            "General Hospital",
		model.RawDHStaffedBeds:     float64(120),
		model.RawDHICUBeds:         float64(12),
		model.RawDHLicensedBeds:    float64(150),
		model.RawDHUtilization:     0.66,
		model.RawHCRISStaffedBeds:  float64(118),
		model.RawHCRISICUBeds:      float64(10),
		model.RawHCRISOccupancy:    0.61,
		model.RawHCRISICUOccupancy: 0.7,
	}
	for k, v := range overlay {
		attrs[k] = v
	}
	return attrs
}

func TestResolvePrefersDH(t *testing.T) {
	results, err := Facility(rawAttrs(nil), 10)
	require.NoError(t, err)

	assert.Equal(t, float64(120), results[model.AttrStaffedAllBeds].Value)
	assert.Equal(t, "DH-NUM_STAFFED_BEDS", results[model.AttrStaffedAllBeds].Source)
	assert.Equal(t, float64(12), results[model.AttrStaffedICUBeds].Value)
	assert.Equal(t, 0.66, results[model.AttrAllBedOccupancy].Value)
}

func TestResolveFallsBackToHCRIS(t *testing.T) {
	attrs := rawAttrs(map[string]any{
		model.RawDHStaffedBeds:    nil,
		model.RawHCRISStaffedBeds: float64(42),
	})

	results, err := Facility(attrs, 10)
	require.NoError(t, err)

	assert.Equal(t, float64(42), results[model.AttrStaffedAllBeds].Value)
	assert.Equal(t, "HCRIS-Total Staffed Beds", results[model.AttrStaffedAllBeds].Source)
}

func TestResolveZeroIsNotAbsent(t *testing.T) {
	attrs := rawAttrs(map[string]any{
		model.RawDHStaffedBeds:    float64(0),
		model.RawHCRISStaffedBeds: float64(42),
	})

	results, err := Facility(attrs, 10)
	require.NoError(t, err)

	// A zero staffed-bed count is a valid DH value; no fallback.
	assert.Equal(t, float64(0), results[model.AttrStaffedAllBeds].Value)
	assert.Equal(t, "DH-NUM_STAFFED_BEDS", results[model.AttrStaffedAllBeds].Source)
}

func TestResolveBothAbsent(t *testing.T) {
	attrs := rawAttrs(map[string]any{
		model.RawDHICUBeds:    nil,
		model.RawHCRISICUBeds: nil,
	})

	results, err := Facility(attrs, 10)
	require.NoError(t, err)

	assert.Nil(t, results[model.AttrStaffedICUBeds].Value)
	assert.Equal(t, model.ProvenanceNone, results[model.AttrStaffedICUBeds].Source)
}

func TestICUOccupancyHCRISOnly(t *testing.T) {
	// A DH utilization value must never leak into ICU occupancy.
	results, err := Facility(rawAttrs(map[string]any{model.RawHCRISICUOccupancy: nil}), 10)
	require.NoError(t, err)

	assert.Nil(t, results[model.AttrICUBedOccupancy].Value)
	assert.Equal(t, model.ProvenanceNone, results[model.AttrICUBedOccupancy].Source)

	results, err = Facility(rawAttrs(nil), 10)
	require.NoError(t, err)
	assert.Equal(t, 0.7, results[model.AttrICUBedOccupancy].Value)
	assert.Equal(t, "HCRIS-ICU Occupancy Rate", results[model.AttrICUBedOccupancy].Source)
}

func TestLicensedFloorsAtStaffed(t *testing.T) {
	attrs := rawAttrs(map[string]any{
		model.RawDHLicensedBeds: float64(50),
		model.RawDHStaffedBeds:  float64(60),
	})

	results, err := Facility(attrs, 10)
	require.NoError(t, err)

	// Licensed takes staffed's value AND its source.
	assert.Equal(t, float64(60), results[model.AttrLicensedAllBeds].Value)
	assert.Equal(t, "DH-NUM_STAFFED_BEDS", results[model.AttrLicensedAllBeds].Source)
}

func TestLicensedFloorUsesStaffedFallbackSource(t *testing.T) {
	attrs := rawAttrs(map[string]any{
		model.RawDHLicensedBeds:   float64(50),
		model.RawDHStaffedBeds:    nil,
		model.RawHCRISStaffedBeds: float64(60),
	})

	results, err := Facility(attrs, 10)
	require.NoError(t, err)

	assert.Equal(t, float64(60), results[model.AttrLicensedAllBeds].Value)
	assert.Equal(t, "HCRIS-Total Staffed Beds", results[model.AttrLicensedAllBeds].Source)
}

func TestLicensedKeptWhenAboveStaffed(t *testing.T) {
	results, err := Facility(rawAttrs(nil), 10)
	require.NoError(t, err)

	assert.Equal(t, float64(150), results[model.AttrLicensedAllBeds].Value)
	assert.Equal(t, "DH-NUM_LICENSED_BEDS", results[model.AttrLicensedAllBeds].Source)
}

func TestLicensedMissingIsFatal(t *testing.T) {
	attrs := rawAttrs(map[string]any{model.RawDHLicensedBeds: nil})

	_, err := Facility(attrs, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUM_LICENSED_BEDS")
	assert.Contains(t, err.Error(), "17")
}

func TestProvenanceLabelEnumeration(t *testing.T) {
	cases := []map[string]any{
		rawAttrs(nil),
		rawAttrs(map[string]any{model.RawDHStaffedBeds: nil}),
		rawAttrs(map[string]any{model.RawDHStaffedBeds: nil, model.RawHCRISStaffedBeds: nil}),
		rawAttrs(map[string]any{model.RawDHUtilization: nil, model.RawHCRISOccupancy: nil, model.RawHCRISICUOccupancy: nil}),
	}

	for _, attrs := range cases {
		results, err := Facility(attrs, 10)
		require.NoError(t, err)

		for attr, res := range results {
			valid := res.Source == model.ProvenanceNone ||
				strings.HasPrefix(res.Source, "DH-") ||
				strings.HasPrefix(res.Source, "HCRIS-")
			assert.True(t, valid, "attr %s source %q", attr, res.Source)

			// "None" occurs iff the value is absent.
			assert.Equal(t, res.Value == nil, res.Source == model.ProvenanceNone, attr)
		}

		// Published licensed >= published staffed whenever both are numeric.
		licensed, okL := model.ToFloat(results[model.AttrLicensedAllBeds].Value)
		staffed, okS := model.ToFloat(results[model.AttrStaffedAllBeds].Value)
		if okL && okS {
			assert.GreaterOrEqual(t, licensed, staffed)
		}
	}
}
