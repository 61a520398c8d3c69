// Package config holds application settings unmarshalled from Viper: the
// config file, PEPTIDESYNTH_ environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"peptidesynth/internal/blob"
	"peptidesynth/internal/history"
	"peptidesynth/internal/plan"
	"peptidesynth/internal/residue"
)

// EnvPrefix namespaces environment overrides, e.g. PEPTIDESYNTH_RACK_SIZE.
const EnvPrefix = "PEPTIDESYNTH"

// VialConfig describes the residue vials.
type VialConfig struct {
	VolumeML     float64 `mapstructure:"volume_ml"`
	CoilVolumeML float64 `mapstructure:"coil_volume_ml"`
	// MaxPerVial overrides the capacity derived from the volumes when positive.
	MaxPerVial int `mapstructure:"max_per_vial"`
}

// RackConfig describes the autosampler racks.
type RackConfig struct {
	Size int `mapstructure:"size"`
}

// ReagentConfig feeds the mass and volume arithmetic.
type ReagentConfig struct {
	Concentration float64 `mapstructure:"concentration"`
}

// SynthesisConfig selects the coupling order.
type SynthesisConfig struct {
	Direction string `mapstructure:"direction"`
}

// DeprotectionConfig sizes the deprotection vials.
type DeprotectionConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	VolumeML       float64 `mapstructure:"volume_ml"`
	InjectVolumeML float64 `mapstructure:"inject_volume_ml"`
}

// ResiduesConfig points at the residue table; empty uses the built-in one.
type ResiduesConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig selects the layout snapshot blob store.
type StorageConfig struct {
	Driver blob.Driver   `mapstructure:"driver"`
	FSRoot string        `mapstructure:"fs_root"`
	S3     blob.S3Config `mapstructure:"s3"`
	Retain int           `mapstructure:"retain"`
}

// MetricsConfig controls optional metric and trace output files.
type MetricsConfig struct {
	Textfile  string `mapstructure:"textfile"`
	TraceFile string `mapstructure:"trace_file"`
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the root-level settings struct.
type Config struct {
	Vial         VialConfig         `mapstructure:"vial"`
	Rack         RackConfig         `mapstructure:"rack"`
	Reagent      ReagentConfig      `mapstructure:"reagent"`
	Synthesis    SynthesisConfig    `mapstructure:"synthesis"`
	Deprotection DeprotectionConfig `mapstructure:"deprotection"`
	Residues     ResiduesConfig     `mapstructure:"residues"`
	Storage      StorageConfig      `mapstructure:"storage"`
	History      history.Config     `mapstructure:"history"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          LogConfig          `mapstructure:"log"`
}

var defaults = map[string]any{
	"vial.volume_ml":                16.0,
	"vial.coil_volume_ml":           2.5,
	"vial.max_per_vial":             0,
	"rack.size":                     plan.DefaultRackSize,
	"reagent.concentration":         0.4,
	"synthesis.direction":           string(plan.AsWritten),
	"deprotection.enabled":          true,
	"deprotection.volume_ml":        16.0,
	"deprotection.inject_volume_ml": 1.5,
	"residues.path":                 "",
	"storage.driver":                string(blob.DriverFilesystem),
	"storage.fs_root":               "./layouts",
	"storage.s3.region":             "",
	"storage.s3.bucket":             "",
	"storage.s3.prefix":             "",
	"storage.s3.endpoint":           "",
	"storage.s3.path_style":         false,
	"storage.retain":                5,
	"history.driver":                string(history.DriverSQLite),
	"history.dsn":                   "peptidesynth.db",
	"metrics.textfile":              "",
	"metrics.trace_file":            "",
	"log.level":                     "info",
	"log.format":                    "text",
}

// SetDefaults registers every key so environment variables can override it.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads file (or peptidesynth.yaml from the working directory and
// $HOME/.config/peptidesynth when file is empty), applies environment
// overrides and validates the result. A missing default config file is not
// an error.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("peptidesynth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/peptidesynth")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// MaxPerVial is the configured capacity or the one derived from the volumes.
func (c Config) MaxPerVial() int {
	if c.Vial.MaxPerVial > 0 {
		return c.Vial.MaxPerVial
	}
	return residue.MaxPerVial(c.Vial.VolumeML, c.Vial.CoilVolumeML)
}

// Direction parses the configured synthesis direction.
func (c Config) Direction() (plan.Direction, error) {
	return plan.ParseDirection(c.Synthesis.Direction)
}

// ReagentParams returns the parameters for per-vial quantities.
func (c Config) ReagentParams() residue.ReagentParams {
	return residue.ReagentParams{
		Concentration: c.Reagent.Concentration,
		VialVolumeML:  c.Vial.VolumeML,
		CoilVolumeML:  c.Vial.CoilVolumeML,
		MaxPerVial:    c.MaxPerVial(),
	}
}

// Blob returns the blob store selection.
func (c Config) Blob() blob.Config {
	return blob.Config{Driver: c.Storage.Driver, FSRoot: c.Storage.FSRoot, S3: c.Storage.S3}
}

// Validate rejects settings that would make any plan impossible.
func (c Config) Validate() error {
	if c.Vial.MaxPerVial < 0 {
		return plan.InvalidCapacityError{MaxPerVial: c.Vial.MaxPerVial}
	}
	if c.MaxPerVial() <= 0 {
		return plan.InvalidCapacityError{MaxPerVial: c.MaxPerVial()}
	}
	if c.Rack.Size <= 0 {
		return plan.InvalidRackSizeError{RackSize: c.Rack.Size}
	}
	if c.Reagent.Concentration <= 0 {
		return fmt.Errorf("reagent.concentration must be positive, got %v", c.Reagent.Concentration)
	}
	if _, err := c.Direction(); err != nil {
		return err
	}
	if c.Deprotection.Enabled && (c.Deprotection.VolumeML <= 0 || c.Deprotection.InjectVolumeML <= 0) {
		return fmt.Errorf("deprotection volumes must be positive")
	}
	if c.Storage.Retain < 0 {
		return fmt.Errorf("storage.retain must not be negative, got %d", c.Storage.Retain)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// Logger builds the root logger writing to w.
func (c LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log.level %q: %w", s, err)
	}
	return level, nil
}
