// Package bridge owns the process-wide wiring: one AWG driver, one
// VXI-11 port rotation, and the Portmap and VXI-11 servers that share
// it. Run is the sole place that calls driver.Connect/Disconnect, a
// scoped acquisition held for exactly the server loop's lifetime.
package bridge

import (
	"context"
	"fmt"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
	"github.com/bstrobel/sds1004x-bode/internal/config"
	"github.com/bstrobel/sds1004x-bode/internal/logger"
	"github.com/bstrobel/sds1004x-bode/internal/metrics"
	"github.com/bstrobel/sds1004x-bode/internal/portmap"
	"github.com/bstrobel/sds1004x-bode/internal/scpi"
	"github.com/bstrobel/sds1004x-bode/internal/vxi11"
)

// Bridge wires the Portmap responder, the VXI-11 responder, and the
// SCPI dispatcher around one AWG driver.
type Bridge struct {
	driver   awg.Driver
	portmap  *portmap.Server
	vxi11    *vxi11.Server
	rotation *vxi11.PortRotation
	metrics  metrics.BridgeMetrics
}

// Option customizes a Bridge at construction time.
type Option func(*options)

type options struct {
	portmapPort int
}

// WithPortmapPort overrides the well-known Portmap port (111). Tests
// use this to bind an ephemeral port instead of one requiring root.
func WithPortmapPort(port int) Option {
	return func(o *options) { o.portmapPort = port }
}

// New builds a Bridge from cfg and driver. No network resources are
// acquired until Run is called.
func New(cfg *config.Config, driver awg.Driver, bridgeMetrics metrics.BridgeMetrics, opts ...Option) *Bridge {
	o := options{portmapPort: 111}
	for _, opt := range opts {
		opt(&o)
	}

	rotation := vxi11.NewPortRotation(cfg.PortRotation)
	resolver := portmap.NewResolver()
	dispatcher := scpi.New(driver, scpi.WithMetrics(bridgeMetrics))

	vxi11Server := vxi11.NewServer(vxi11.ServerConfig{
		Rotation:  rotation,
		Processor: dispatcher,
		Binder:    resolver,
		Metrics:   bridgeMetrics,
	})

	portmapServer := portmap.NewServer(portmap.ServerConfig{
		Port:     o.portmapPort,
		Resolver: resolver,
		BindUDP:  cfg.UDP,
		Metrics:  bridgeMetrics,
	})

	return &Bridge{
		driver:   driver,
		portmap:  portmapServer,
		vxi11:    vxi11Server,
		rotation: rotation,
		metrics:  bridgeMetrics,
	}
}

// PortmapAddr returns the Portmap TCP listener's address, for tests.
func (b *Bridge) PortmapAddr() string { return b.portmap.Addr() }

// VXI11Addr returns the VXI-11 listener's current address, for tests.
func (b *Bridge) VXI11Addr() string { return b.vxi11.Addr() }

// Run connects the driver, serves both RPC listeners until ctx is
// cancelled, then disconnects the driver unconditionally — whether
// shutdown was clean or a listener failed to bind.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.driver.Connect(); err != nil {
		return fmt.Errorf("bridge: connect driver: %w", err)
	}
	defer func() {
		if err := b.driver.Disconnect(); err != nil {
			logger.Warn("bridge: driver disconnect failed", logger.KeyError, err)
		}
	}()

	for ch := 1; ch <= awg.ChannelCount; ch++ {
		if err := b.driver.InitializeChannel(ch); err != nil {
			return fmt.Errorf("bridge: initialize channel %d: %w", ch, err)
		}
	}

	errCh := make(chan error, 2)
	go func() { errCh <- b.portmap.Serve(ctx) }()
	go func() { errCh <- b.vxi11.Serve(ctx) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			b.Stop()
		}
	}
	return firstErr
}

// Stop shuts down both listeners. Safe to call multiple times and
// safe to call before Run (both servers tolerate Stop-before-Serve).
func (b *Bridge) Stop() {
	b.portmap.Stop()
	b.vxi11.Stop()
}
