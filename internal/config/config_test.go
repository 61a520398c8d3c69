package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"peptidesynth/internal/blob"
	"peptidesynth/internal/plan"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	c, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MaxPerVial() != 6 || c.Rack.Size != 30 || c.Reagent.Concentration != 0.4 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if !c.Deprotection.Enabled || c.Deprotection.InjectVolumeML != 1.5 {
		t.Fatalf("unexpected deprotection defaults %+v", c.Deprotection)
	}
	if c.Blob().Driver != blob.DriverFilesystem || c.Storage.Retain != 5 {
		t.Fatalf("unexpected storage defaults %+v", c.Storage)
	}
	if d, _ := c.Direction(); d != plan.AsWritten {
		t.Fatalf("unexpected direction %s", d)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peptidesynth.yaml")
	yaml := `
vial:
  max_per_vial: 4
rack:
  size: 12
synthesis:
  direction: c-to-n
storage:
  driver: s3
  s3:
    bucket: layouts
    path_style: true
history:
  driver: memory
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PEPTIDESYNTH_RACK_SIZE", "20")
	c, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MaxPerVial() != 4 {
		t.Fatalf("max per vial %d", c.MaxPerVial())
	}
	if c.Rack.Size != 20 {
		t.Fatalf("env should override file, got rack size %d", c.Rack.Size)
	}
	if c.Storage.S3.Bucket != "layouts" || !c.Storage.S3.PathStyle || c.History.Driver != "memory" {
		t.Fatalf("nested settings not decoded: %+v %+v", c.Storage, c.History)
	}
	if d, _ := c.Direction(); d != plan.CToN {
		t.Fatalf("direction %s", d)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c, err := Load(viper.New(), "")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return c
	}
	chdir(t, t.TempDir())
	cases := []struct {
		name   string
		mutate func(*Config)
		check  func(error) bool
	}{
		{"zero rack", func(c *Config) { c.Rack.Size = 0 }, func(err error) bool { return errors.As(err, new(plan.InvalidRackSizeError)) }},
		{"tiny vial", func(c *Config) { c.Vial.VolumeML = 1 }, func(err error) bool { return errors.As(err, new(plan.InvalidCapacityError)) }},
		{"negative capacity", func(c *Config) { c.Vial.MaxPerVial = -1 }, func(err error) bool { return errors.As(err, new(plan.InvalidCapacityError)) }},
		{"direction", func(c *Config) { c.Synthesis.Direction = "n-to-x" }, func(err error) bool { return err != nil }},
		{"deprotection", func(c *Config) { c.Deprotection.InjectVolumeML = 0 }, func(err error) bool { return err != nil }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, func(err error) bool { return err != nil }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, func(err error) bool { return err != nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			if err := c.Validate(); !tc.check(err) {
				t.Fatalf("unexpected validation result %v", err)
			}
		})
	}
	c := base()
	c.Deprotection.Enabled = false
	c.Deprotection.InjectVolumeML = 0
	if err := c.Validate(); err != nil {
		t.Fatalf("disabled deprotection should skip volume checks: %v", err)
	}
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "debug", Format: "json"}.Logger(&buf)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	logger.Debug("planned", "vials", 3)
	if !strings.Contains(buf.String(), `"vials":3`) {
		t.Fatalf("expected json debug line, got %q", buf.String())
	}
	buf.Reset()
	logger, _ = LogConfig{Level: "warn"}.Logger(&buf)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
