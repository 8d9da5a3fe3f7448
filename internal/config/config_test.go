package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, filepath.Join("data", "processed", "dh_hcris_merged.geojson"), cfg.Data.BasePath())
	assert.Equal(t, filepath.Join("data", "external", "manual_overrides.csv"), cfg.Data.OverridePath())
	assert.Equal(t, filepath.Join("data", "published"), cfg.Export.OutDir)
	assert.False(t, cfg.Export.Shapefile)
	assert.InDelta(t, 10.0, cfg.Reconcile.StaffedBedWarnThreshold, 0.001)
	assert.Equal(t, 600, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
data:
  dir: /srv/hospcap
  override_file: /srv/hospcap/overrides.xlsx
export:
  shapefile: true
ledger:
  driver: postgres
  database_url: postgres://localhost/hospcap
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/hospcap", cfg.Data.Dir)
	assert.Equal(t, "/srv/hospcap/overrides.xlsx", cfg.Data.OverridePath())
	assert.Equal(t, filepath.Join("/srv/hospcap", "processed", "dh_hcris_merged.geojson"), cfg.Data.BasePath())
	assert.True(t, cfg.Export.Shapefile)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "postgres://localhost/hospcap", cfg.Ledger.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.InDelta(t, 10.0, cfg.Reconcile.StaffedBedWarnThreshold, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := "log:\n  level: info\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("HOSPCAP_LOG_LEVEL", "warn")
	t.Setenv("HOSPCAP_DATA_DIR", "/tmp/hospcap-data")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/hospcap-data", cfg.Data.Dir)
}

func TestExportPaths(t *testing.T) {
	e := ExportConfig{OutDir: "/out"}
	assert.Equal(t, filepath.Join("/out", "hospital_capacity.geojson"), e.GeoJSONPath())
	assert.Equal(t, filepath.Join("/out", "hospital_capacity.csv"), e.CSVPath())
	assert.Equal(t, filepath.Join("/out", "hospital_capacity.shp"), e.ShapefilePath())
}

func TestDigest(t *testing.T) {
	a := &Config{Data: DataConfig{Dir: "data"}}
	b := &Config{Data: DataConfig{Dir: "data"}}
	c := &Config{Data: DataConfig{Dir: "elsewhere"}}

	assert.Len(t, a.Digest(), 12)
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
