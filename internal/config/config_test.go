package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
}

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "dummy", cfg.Driver)
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, [2]int{9009, 9010}, cfg.PortRotation)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestApplyDefaults_BK4075DefaultsTo19200Baud(t *testing.T) {
	cfg := &Config{Driver: "bk4075"}
	ApplyDefaults(cfg)
	assert.Equal(t, 19200, cfg.BaudRate)
}

func TestApplyDefaults_NormalizesLogLevelCase(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug", Format: "text"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestApplyDefaults_PreservesExplicitPortRotation(t *testing.T) {
	cfg := &Config{PortRotation: [2]int{5000, 5001}}
	ApplyDefaults(cfg)
	assert.Equal(t, [2]int{5000, 5001}, cfg.PortRotation)
}

func TestValidate_RejectsInvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestValidate_RejectsInvalidBaudRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.BaudRate = 4800
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_RejectsMissingDriver(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Driver = ""
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_RejectsPortOutOfRange(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max")
}

func TestValidate_RejectsEqualPortRotationValues(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.PortRotation = [2]int{9009, 9009}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differ")
}

func TestLoad_NonexistentExplicitPathFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/to/bode.yaml")
	require.NoError(t, err)
	assert.Equal(t, "dummy", cfg.Driver)
}

func TestLoad_EmptyPathUsesDefaultsWhenNoFileFound(t *testing.T) {
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(original) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dummy", cfg.Driver)
}

func TestLoad_EnvOverridesApplyWithNoConfigFilePresent(t *testing.T) {
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(original) })

	t.Setenv("BODE_DRIVER", "jds6600")
	t.Setenv("BODE_PORT", "/dev/ttyUSB0")
	t.Setenv("BODE_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "jds6600", cfg.Driver)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}
