// Package config loads and validates the bridge's runtime settings:
// which AWG driver to drive, the wire-level quirks it needs (UDP
// Portmap, port rotation pair), and the ambient logging/metrics knobs.
// Precedence is layered: environment overrides file overrides
// defaults, trimmed to the handful of settings this bridge actually
// has.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the bridge's full runtime configuration.
type Config struct {
	// Driver selects the AWG backend: jds6600, bk4075, fy6600, fy,
	// ad9910, dg800, utg1000x, or dummy.
	Driver string `mapstructure:"driver" validate:"required" yaml:"driver"`

	// Port is a device path for serial drivers or a host:port for
	// VISA-style drivers. Empty for the dummy driver.
	Port string `mapstructure:"port" yaml:"port"`

	// BaudRate applies only to serial drivers. Default 115200; bk4075
	// defaults to 19200.
	BaudRate int `mapstructure:"baud_rate" validate:"omitempty,oneof=9600 19200 115200" yaml:"baud_rate"`

	// UDP enables the UDP/111 Portmap listener, required for the
	// SDS800X-HD scope family.
	UDP bool `mapstructure:"udp" yaml:"udp"`

	// PortRotation is the two-element VXI-11 TCP port rotation set.
	PortRotation [2]int `mapstructure:"port_rotation" validate:"dive,min=1,max=65535" yaml:"port_rotation"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the optional Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// GetDefaultConfig returns a Config with every field at its
// documented default.
func GetDefaultConfig() *Config {
	return &Config{
		Driver:       "dummy",
		BaudRate:     115200,
		UDP:          false,
		PortRotation: [2]int{9009, 9010},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// ApplyDefaults fills any zero-valued fields in cfg with their
// documented defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Driver == "" {
		cfg.Driver = "dummy"
	}
	if cfg.BaudRate == 0 {
		if cfg.Driver == "bk4075" {
			cfg.BaudRate = 19200
		} else {
			cfg.BaudRate = 115200
		}
	}
	if cfg.PortRotation == ([2]int{}) {
		cfg.PortRotation = [2]int{9009, 9010}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.PortRotation[0] == cfg.PortRotation[1] {
		return fmt.Errorf("configuration validation failed: port_rotation values must differ")
	}
	return nil
}

// Load builds a Config from environment variables (BODE_*), an
// optional YAML file at configPath, and defaults, in that precedence
// order, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	bindDefaults(v, GetDefaultConfig())

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal unconditionally, file or no file: AutomaticEnv only
	// resolves BODE_* for keys viper already knows about, which
	// bindDefaults just registered.
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bode")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
}

// bindDefaults registers every field of a default Config as a viper
// default, so AutomaticEnv has a key to match BODE_* against even when
// no YAML file is present and no field has been set explicitly yet.
func bindDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("driver", defaults.Driver)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("baud_rate", defaults.BaudRate)
	v.SetDefault("udp", defaults.UDP)
	v.SetDefault("port_rotation", []int{defaults.PortRotation[0], defaults.PortRotation[1]})
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output", defaults.Logging.Output)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("metrics.port", defaults.Metrics.Port)
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}
