package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Ledger    LedgerConfig    `yaml:"ledger" mapstructure:"ledger"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the pipeline inputs. Paths left empty resolve to
// conventional locations under Dir.
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	BaseGeoJSON  string `yaml:"base_geojson" mapstructure:"base_geojson"`
	OverrideFile string `yaml:"override_file" mapstructure:"override_file"`
}

// BasePath returns the merged DH+HCRIS GeoJSON input path.
func (d DataConfig) BasePath() string {
	if d.BaseGeoJSON != "" {
		return d.BaseGeoJSON
	}
	return filepath.Join(d.Dir, "processed", "dh_hcris_merged.geojson")
}

// OverridePath returns the manual-override table path.
func (d DataConfig) OverridePath() string {
	if d.OverrideFile != "" {
		return d.OverrideFile
	}
	return filepath.Join(d.Dir, "external", "manual_overrides.csv")
}

// ExportConfig configures the published outputs.
type ExportConfig struct {
	OutDir       string `yaml:"out_dir" mapstructure:"out_dir"`
	Shapefile    bool   `yaml:"shapefile" mapstructure:"shapefile"`
	ManifestPath string `yaml:"manifest_path" mapstructure:"manifest_path"`
}

// GeoJSONPath returns the published GeoJSON output path.
func (e ExportConfig) GeoJSONPath() string {
	return filepath.Join(e.OutDir, "hospital_capacity.geojson")
}

// CSVPath returns the published CSV output path.
func (e ExportConfig) CSVPath() string {
	return filepath.Join(e.OutDir, "hospital_capacity.csv")
}

// ShapefilePath returns the optional shapefile output path.
func (e ExportConfig) ShapefilePath() string {
	return filepath.Join(e.OutDir, "hospital_capacity.shp")
}

// ReconcileConfig tunes reconciliation diagnostics.
type ReconcileConfig struct {
	StaffedBedWarnThreshold float64 `yaml:"staffed_bed_warn_threshold" mapstructure:"staffed_bed_warn_threshold"`
}

// FetchConfig configures source-file download.
type FetchConfig struct {
	DHURL       string  `yaml:"dh_url" mapstructure:"dh_url"`
	HCRISURL    string  `yaml:"hcris_url" mapstructure:"hcris_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LedgerConfig configures the publish-run ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOSPCAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("export.out_dir", filepath.Join("data", "published"))
	v.SetDefault("export.shapefile", false)
	v.SetDefault("reconcile.staffed_bed_warn_threshold", 10.0)
	v.SetDefault("fetch.timeout_secs", 600)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.path", filepath.Join("data", "ledger.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Digest returns a short fingerprint of the effective configuration. Recorded
// with each publish run so outputs can be traced back to the settings that
// produced them.
func (c *Config) Digest() string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:12]
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
