package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	path := writeConfig(t, string(DefaultConfig()))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, settings.Elevation.Zone)
	assert.Equal(t, "FICHERO", settings.Elevation.FileKey)
	assert.Equal(t, 1950, settings.Ephemeris.Start)
	assert.Equal(t, 2050, settings.Ephemeris.End)
	assert.Equal(t, 6*time.Hour, settings.Ephemeris.Step)
	assert.Equal(t, []string{"ourol"}, settings.Estimate.ExcludeSites)
	assert.InDelta(t, 10.0, settings.Estimate.MaxAzimuthDiff, 1e-9)
	assert.InDelta(t, 3100.0, settings.Estimate.PhotoRadius, 1e-9)
	assert.InDelta(t, -5.0, settings.Validation.LowerBound, 1e-9)
	assert.InDelta(t, 5.0, settings.Validation.UpperBound, 1e-9)
	assert.Equal(t, "csv", settings.Output.Format)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Same(t, settings, GetSettings())
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
estimate:
  run: train
  workers: 4
output:
  format: table
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "train", settings.Estimate.Run)
	assert.Equal(t, 4, settings.Estimate.Workers)
	assert.Equal(t, "table", settings.Output.Format)
	assert.Equal(t, "data/sites.csv", settings.Data.Sites)
	assert.Equal(t, "data/labels/train", settings.LabelsDir(settings.Estimate.Run))
	assert.Equal(t, filepath.Join("results", "train_site_predictions.csv"),
		settings.OutputPath("train", "site_predictions.csv"))
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HUBHEIGHT_ESTIMATE_RUN", "validation")
	t.Setenv("HUBHEIGHT_VALIDATION_ALPHA", "0.01")
	t.Setenv("HUBHEIGHT_ELEVATION_ZONE", "29")

	settings, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.Equal(t, "validation", settings.Estimate.Run)
	assert.InDelta(t, 0.01, settings.Validation.Alpha, 1e-12)
	assert.Equal(t, 29, settings.Elevation.Zone)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	path := writeConfig(t, `
elevation:
  zone: 12
validation:
  lowerbound: 5
  upperbound: -5
output:
  format: xml
`)

	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
	assert.Contains(t, err.Error(), "elevation.zone")
	assert.Contains(t, err.Error(), "output.format")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDotenvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile,
		[]byte("HUBHEIGHT_TEST_FROM_FILE=file\nHUBHEIGHT_TEST_PRESET=file\n"), 0o600))

	t.Setenv("HUBHEIGHT_TEST_PRESET", "env")
	t.Setenv("HUBHEIGHT_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("HUBHEIGHT_TEST_FROM_FILE"))

	require.NoError(t, loadDotenv(envFile, filepath.Join(dir, ".env.secret")))

	assert.Equal(t, "file", os.Getenv("HUBHEIGHT_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("HUBHEIGHT_TEST_PRESET"))
}
