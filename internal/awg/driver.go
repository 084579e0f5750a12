// Package awg defines the operation contract the SCPI dispatcher
// drives: whatever physical generator is behind it, a Driver only
// needs to support per-channel waveform, amplitude, offset, frequency,
// phase, output-load and output-enable calls plus a connect/disconnect
// lifecycle. Concrete drivers (serial-line generators, SCPI-over-TCP
// instruments, or the no-op dummy) live in subpackages.
package awg

import "fmt"

// OutputLoad is the termination impedance a channel is configured
// for.
type OutputLoad int

const (
	LoadHighZ OutputLoad = iota
	Load50Ohm
)

func (l OutputLoad) String() string {
	if l == Load50Ohm {
		return "50"
	}
	return "HZ"
}

// WaveformType enumerates the BSWV WVTP values the scope can request.
type WaveformType int

const (
	WaveSine WaveformType = iota
	WaveSquare
	WaveRamp
	WavePulse
	WaveNoise
	WaveDC
	WaveArb
)

func (w WaveformType) String() string {
	switch w {
	case WaveSquare:
		return "SQUARE"
	case WaveRamp:
		return "RAMP"
	case WavePulse:
		return "PULSE"
	case WaveNoise:
		return "NOISE"
	case WaveDC:
		return "DC"
	case WaveArb:
		return "ARB"
	default:
		return "SINE"
	}
}

// ParseWaveformType maps a BSWV WVTP token to a WaveformType. Unknown
// tokens return WaveSine and ok=false so callers can log and ignore.
func ParseWaveformType(s string) (WaveformType, bool) {
	switch s {
	case "SINE":
		return WaveSine, true
	case "SQUARE":
		return WaveSquare, true
	case "RAMP":
		return WaveRamp, true
	case "PULSE":
		return WavePulse, true
	case "NOISE":
		return WaveNoise, true
	case "DC":
		return WaveDC, true
	case "ARB":
		return WaveArb, true
	default:
		return WaveSine, false
	}
}

// DriverError reports a transport-level failure talking to the
// physical generator. The SCPI dispatcher logs it and continues
// serving RPC — a DriverError must never propagate back over VXI-11.
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("awg: %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// ChannelCount is the number of channels a Siglent AWG exposes (C1,
// C2) and so the number the bridge initializes at startup, regardless
// of how many the Bode sweep ends up driving.
const ChannelCount = 2

// Driver is the operation interface every concrete generator backend
// implements. Channels are 1-indexed, matching the scope's `Cn:`
// prefix.
type Driver interface {
	Connect() error
	Disconnect() error

	InitializeChannel(channel int) error
	SetOutputLoad(channel int, load OutputLoad) error
	SetOutputOn(channel int, enabled bool) error
	SetWaveformType(channel int, waveform WaveformType) error
	SetFrequency(channel int, hz float64) error
	SetAmplitude(channel int, vpp float64) error
	SetOffset(channel int, volts float64) error
	SetPhase(channel int, degrees float64) error
}
