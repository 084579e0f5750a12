// Package dummy implements awg.Driver with no hardware behind it —
// every call just logs what a real driver would have done. It exists
// so the bridge can be exercised (and tested) without a physical
// generator attached.
package dummy

import (
	"github.com/bstrobel/sds1004x-bode/internal/awg"
	"github.com/bstrobel/sds1004x-bode/internal/logger"
)

// Driver is the no-op awg.Driver implementation.
type Driver struct{}

// New returns a ready-to-use dummy Driver.
func New() *Driver { return &Driver{} }

func (d *Driver) Connect() error {
	logger.Info("dummy driver connected")
	return nil
}

func (d *Driver) Disconnect() error {
	logger.Info("dummy driver disconnected")
	return nil
}

func (d *Driver) InitializeChannel(channel int) error {
	logger.Debug("dummy: initialize_channel", logger.KeyChannel, channel)
	return nil
}

func (d *Driver) SetOutputLoad(channel int, load awg.OutputLoad) error {
	logger.Debug("dummy: set_output_load", logger.KeyChannel, channel, "load", load.String())
	return nil
}

func (d *Driver) SetOutputOn(channel int, enabled bool) error {
	logger.Debug("dummy: set_output_on", logger.KeyChannel, channel, "enabled", enabled)
	return nil
}

func (d *Driver) SetWaveformType(channel int, waveform awg.WaveformType) error {
	logger.Debug("dummy: set_waveform_type", logger.KeyChannel, channel, "waveform", waveform.String())
	return nil
}

func (d *Driver) SetFrequency(channel int, hz float64) error {
	logger.Debug("dummy: set_frequency", logger.KeyChannel, channel, "hz", hz)
	return nil
}

func (d *Driver) SetAmplitude(channel int, vpp float64) error {
	logger.Debug("dummy: set_amplitude", logger.KeyChannel, channel, "vpp", vpp)
	return nil
}

func (d *Driver) SetOffset(channel int, volts float64) error {
	logger.Debug("dummy: set_offset", logger.KeyChannel, channel, "volts", volts)
	return nil
}

func (d *Driver) SetPhase(channel int, degrees float64) error {
	logger.Debug("dummy: set_phase", logger.KeyChannel, channel, "degrees", degrees)
	return nil
}

var _ awg.Driver = (*Driver)(nil)
