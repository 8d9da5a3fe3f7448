package model

// Override table metadata columns. These are consumed by the merge step and
// never copied into a facility's attribute set.
const (
	ColOverrideReason = "Manual Override Reason"
	ColOverrideSource = "Manual Override New Data Source"
)

// OverrideRecord is one row of the manual-override table.
type OverrideRecord struct {
	CCMID     string
	Latitude  *float64
	Longitude *float64
	Reason    string
	NewSource string

	// Attrs holds every non-empty override cell keyed by column name,
	// excluding CCM_ID, coordinates, and the two metadata columns.
	Attrs map[string]string
}

// HasCoordinates reports whether the record supplies a full coordinate pair.
func (r *OverrideRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}
