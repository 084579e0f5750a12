package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
	"github.com/bstrobel/sds1004x-bode/internal/awg/dummy"
	"github.com/bstrobel/sds1004x-bode/internal/awg/scpinet"
	"github.com/bstrobel/sds1004x-bode/internal/bridge"
	"github.com/bstrobel/sds1004x-bode/internal/config"
	"github.com/bstrobel/sds1004x-bode/internal/logger"
	"github.com/bstrobel/sds1004x-bode/internal/metrics"
	metricsprom "github.com/bstrobel/sds1004x-bode/internal/metrics/prometheus"
)

// serialDrivers speak the same newline-terminated ASCII dialect over a
// raw tty; scpiDrivers speak SCPI over a VISA-style raw-TCP transport.
// The concrete dialect differences between drivers in the same family
// are an external-driver concern, not this bridge's.
var serialDrivers = map[string]bool{
	"jds6600": true,
	"bk4075":  true,
	"fy6600":  true,
	"fy":      true,
	"ad9910":  true,
}

var scpiDrivers = map[string]bool{
	"dg800":    true,
	"utg1000x": true,
}

func runStart(cmd *cobra.Command, args []string) error {
	driverName := args[0]

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg.Driver = driverName
	if len(args) >= 2 {
		cfg.Port = args[1]
	}
	if len(args) >= 3 {
		baud, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid baud_rate %q: %w", args[2], err)
		}
		cfg.BaudRate = baud
	}
	if udp, _ := cmd.Flags().GetBool("udp"); udp {
		cfg.UDP = true
	}
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	driver, err := buildDriver(cfg)
	if err != nil {
		return err
	}

	// NewBridgeMetrics is always called: when metrics are disabled it
	// returns a nil *bridgeMetrics whose methods are all nil-receiver
	// safe, so the bridge never needs an "is metrics enabled" branch
	// of its own around every recorded call.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		stopMetricsServer := serveMetrics(cfg.Metrics.Port)
		defer stopMetricsServer()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	}
	bridgeMetrics := metricsprom.NewBridgeMetrics()

	br := bridge.New(cfg, driver, bridgeMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("bode bridge starting",
		logger.KeyDriver, cfg.Driver,
		"port_rotation", cfg.PortRotation,
		"udp", cfg.UDP)

	return br.Run(ctx)
}

// buildDriver constructs the concrete awg.Driver named by cfg.Driver.
// Drivers requiring a serial port are only available on linux, the one
// platform internal/awg/serial builds for.
func buildDriver(cfg *config.Config) (awg.Driver, error) {
	switch {
	case cfg.Driver == "dummy":
		return dummy.New(), nil
	case scpiDrivers[cfg.Driver]:
		if cfg.Port == "" {
			return nil, fmt.Errorf("driver %q requires a host:port argument", cfg.Driver)
		}
		return scpinet.New(cfg.Port), nil
	case serialDrivers[cfg.Driver]:
		if cfg.Port == "" {
			return nil, fmt.Errorf("driver %q requires a serial device path argument", cfg.Driver)
		}
		return newSerialDriver(cfg.Port, cfg.BaudRate)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// newSerialDriver constructs the serial-port awg.Driver. It is set by
// an init() in a platform-specific file: internal/awg/serial only
// builds on linux, so this indirection keeps start.go itself
// platform-independent.
var newSerialDriver func(path string, baudRate int) (awg.Driver, error)
