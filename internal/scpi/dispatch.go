package scpi

import (
	"fmt"
	"strings"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
	"github.com/bstrobel/sds1004x-bode/internal/logger"
	"github.com/bstrobel/sds1004x-bode/internal/metrics"
	"github.com/bstrobel/sds1004x-bode/internal/vxi11"
)

var _ vxi11.CommandProcessor = (*Dispatcher)(nil)

// identification is the reply tuple for IDN-SGLT-PRI? — an identifier
// the scope accepts as belonging to a genuine Siglent AWG family.
const identification = "SDG1062X,SDG00000000000,1.01.01.33R1"

// Dispatcher applies decoded SCPI commands to an awg.Driver and
// answers the two queries the dispatch table recognizes (IDN-SGLT-PRI?
// and BSWV?), with one channel state table shared across writes and
// queries. It implements
// vxi11.CommandProcessor.
type Dispatcher struct {
	driver  awg.Driver
	states  *awg.StateTable
	metrics metrics.BridgeMetrics
}

// Option customizes a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithMetrics records one SCPI-command and driver-error counter per
// dispatch. Omit to dispatch without metrics collection.
func WithMetrics(m metrics.BridgeMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New returns a Dispatcher driving driver, with all channel state at
// its vendor-neutral default.
func New(driver awg.Driver, opts ...Option) *Dispatcher {
	d := &Dispatcher{driver: driver, states: awg.NewStateTable()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process applies every `;`-joined command in payload, left to right,
// and returns the last query response produced (nil if none). A
// per-command parse or driver failure is logged and does not stop the
// remaining commands from being applied, matching the write-reply
// contract: a DEVICE_WRITE never fails because of what it contains.
func (d *Dispatcher) Process(payload []byte) []byte {
	var response []byte
	for _, raw := range SplitCommands(string(payload)) {
		cmd, err := ParseCommand(raw)
		if err != nil {
			logger.Warn("scpi: parse error", "command", raw, logger.KeyError, err)
			continue
		}
		if reply := d.apply(cmd); reply != nil {
			response = reply
		}
	}
	return response
}

func (d *Dispatcher) apply(cmd Command) []byte {
	switch cmd.Raw {
	case "IDN-SGLT-PRI?":
		d.recordCommand(cmd.Raw, true)
		return []byte("IDN-SGLT-PRI," + identification)
	case "OUTP":
		d.recordCommand(cmd.Raw, true)
		d.applyOutput(cmd)
		return nil
	case "BSWV":
		d.recordCommand(cmd.Raw, true)
		d.applyBSWV(cmd)
		return nil
	case "BSWV?":
		d.recordCommand(cmd.Raw, true)
		return d.queryBSWV(cmd.Channel)
	default:
		d.recordCommand(cmd.Raw, false)
		logger.Warn("scpi: unrecognized mnemonic", "mnemonic", cmd.Raw)
		return nil
	}
}

func (d *Dispatcher) recordCommand(mnemonic string, recognized bool) {
	if d.metrics == nil {
		return
	}
	d.metrics.RecordSCPICommand(mnemonic, recognized)
}

func (d *Dispatcher) applyOutput(cmd Command) {
	state := d.states.Get(cmd.Channel)
	for _, arg := range cmd.Args {
		switch {
		case arg.Key == "" && arg.Value == "ON":
			state.Enabled = true
			d.call("set_output_on", d.driver.SetOutputOn(cmd.Channel, true))
		case arg.Key == "" && arg.Value == "OFF":
			state.Enabled = false
			d.call("set_output_on", d.driver.SetOutputOn(cmd.Channel, false))
		case arg.Key == "LOAD":
			load, ok := parseLoad(arg.Value)
			if !ok {
				logger.Warn("scpi: unknown OUTP LOAD value", "value", arg.Value)
				continue
			}
			state.Load = load
			d.call("set_output_load", d.driver.SetOutputLoad(cmd.Channel, load))
		case arg.Key == "PLRT":
			// Output polarity is accepted and ignored per the documented dialect.
		default:
			logger.Debug("scpi: ignoring OUTP key", "key", arg.Key)
		}
	}
}

func (d *Dispatcher) applyBSWV(cmd Command) {
	state := d.states.Get(cmd.Channel)
	for _, arg := range cmd.Args {
		switch arg.Key {
		case "WVTP":
			wave, ok := awg.ParseWaveformType(arg.Value)
			if !ok {
				logger.Warn("scpi: unknown BSWV WVTP value", "value", arg.Value)
				continue
			}
			state.Waveform = wave
			d.call("set_waveform_type", d.driver.SetWaveformType(cmd.Channel, wave))
		case "FRQ":
			hz, err := ParseNumeric(arg.Value)
			if err != nil {
				logger.Warn("scpi: bad BSWV FRQ value", "value", arg.Value, logger.KeyError, err)
				continue
			}
			state.FreqHz = hz
			d.call("set_frequency", d.driver.SetFrequency(cmd.Channel, hz))
		case "AMP":
			vpp, err := ParseNumeric(arg.Value)
			if err != nil {
				logger.Warn("scpi: bad BSWV AMP value", "value", arg.Value, logger.KeyError, err)
				continue
			}
			state.AmpVpp = vpp
			d.call("set_amplitude", d.driver.SetAmplitude(cmd.Channel, vpp))
		case "OFST":
			v, err := ParseNumeric(arg.Value)
			if err != nil {
				logger.Warn("scpi: bad BSWV OFST value", "value", arg.Value, logger.KeyError, err)
				continue
			}
			state.OffsetV = v
			d.call("set_offset", d.driver.SetOffset(cmd.Channel, v))
		case "PHSE":
			deg, err := ParseNumeric(arg.Value)
			if err != nil {
				logger.Warn("scpi: bad BSWV PHSE value", "value", arg.Value, logger.KeyError, err)
				continue
			}
			state.PhaseDeg = deg
			d.call("set_phase", d.driver.SetPhase(cmd.Channel, deg))
		case "DUTY":
			// Duty cycle is not part of the abstract driver contract; ignored.
		default:
			logger.Debug("scpi: ignoring BSWV key", "key", arg.Key)
		}
	}
}

func (d *Dispatcher) queryBSWV(channel int) []byte {
	s := d.states.Get(channel)
	periodS := 0.0
	if s.FreqHz != 0 {
		periodS = 1 / s.FreqHz
	}
	hlev := s.OffsetV + s.AmpVpp/2
	llev := s.OffsetV - s.AmpVpp/2
	reply := fmt.Sprintf(
		"C%d:BSWV WVTP,%s,FRQ,%sHZ,PRD,%sS,AMP,%sV,OFST,%sV,HLEV,%sV,LLEV,%sV,PHSE,%s",
		channel, s.Waveform.String(),
		trimFloat(s.FreqHz), trimFloat(periodS), trimFloat(s.AmpVpp), trimFloat(s.OffsetV),
		trimFloat(hlev), trimFloat(llev), trimFloat(s.PhaseDeg),
	)
	return []byte(reply)
}

func (d *Dispatcher) call(op string, err error) {
	if err == nil {
		return
	}
	logger.Warn("scpi: driver call failed", "op", op, logger.KeyError, err)
	if d.metrics != nil {
		d.metrics.RecordDriverError(op)
	}
}

func parseLoad(v string) (awg.OutputLoad, bool) {
	switch v {
	case "50":
		return awg.Load50Ohm, true
	case "HZ":
		return awg.LoadHighZ, true
	default:
		return 0, false
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return strings.TrimSuffix(s, ".0")
}
