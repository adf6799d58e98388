package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.OutputSuffix = "conv"
	cfg.RunLog = "Out/runs.csv"
	cfg.Formats = map[string]string{"linxo_csv": `export\.csv$`}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "In", cfg.InputDir)
	assert.Equal(t, "Out", cfg.OutputDir)
	assert.Equal(t, "01/02/2006", cfg.DateFormat)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.QIFHeader)
	assert.Empty(t, cfg.Formats)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("output_dir: Export\nlog:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Export", cfg.OutputDir)
	assert.Equal(t, "In", cfg.InputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "01/02/2006", cfg.DateFormat)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("input_dir: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "input_dir: In")
	assert.Contains(t, contents, "output_dir: Out")
	assert.Contains(t, contents, "date_format: 01/02/2006")
	assert.NotContains(t, contents, "run_log")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.InputDir = ""
	cfg.DateFormat = "01/2006"
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Formats = map[string]string{"broken": "("}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"input_dir", "date_format", "loud", "xml", "formats.broken"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvInputDir:  "Downloads",
		EnvLogLevel:  "debug",
		EnvLogFormat: "",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "Downloads", cfg.InputDir)
	assert.Equal(t, "Out", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	t.Setenv(EnvOutputDir, "")
	os.Unsetenv(EnvOutputDir)
	t.Setenv(EnvLogLevel, "warn")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvOutputDir+"=Converted\n"+EnvLogLevel+"=debug\n"), 0o644))

	cfg := Default()
	require.NoError(t, LoadEnv(path, cfg))
	assert.Equal(t, "Converted", cfg.OutputDir)
	// Variables already in the environment win over the file.
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env"), cfg))
	assert.Equal(t, "In", cfg.InputDir)
}
