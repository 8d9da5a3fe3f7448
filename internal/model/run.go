package model

import "time"

// Publish run statuses.
const (
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// PublishRun records one execution of the publish pipeline in the ledger.
type PublishRun struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	BaseFacilities   int       `json:"base_facilities"`
	OverridesApplied int       `json:"overrides_applied"`
	NewFacilities    int       `json:"new_facilities"`
	ConfigDigest     string    `json:"config_digest,omitempty"`
	GeoJSONPath      string    `json:"geojson_path,omitempty"`
	CSVPath          string    `json:"csv_path,omitempty"`
	ShapefilePath    string    `json:"shapefile_path,omitempty"`
	Error            string    `json:"error,omitempty"`
}
