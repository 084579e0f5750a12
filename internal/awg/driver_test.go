package awg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputLoad_String(t *testing.T) {
	assert.Equal(t, "HZ", LoadHighZ.String())
	assert.Equal(t, "50", Load50Ohm.String())
}

func TestWaveformType_String(t *testing.T) {
	cases := map[WaveformType]string{
		WaveSine: "SINE", WaveSquare: "SQUARE", WaveRamp: "RAMP",
		WavePulse: "PULSE", WaveNoise: "NOISE", WaveDC: "DC", WaveArb: "ARB",
	}
	for wave, want := range cases {
		assert.Equal(t, want, wave.String())
	}
}

func TestParseWaveformType_KnownTokens(t *testing.T) {
	wave, ok := ParseWaveformType("SQUARE")
	assert.True(t, ok)
	assert.Equal(t, WaveSquare, wave)
}

func TestParseWaveformType_UnknownTokenDefaultsToSineNotOK(t *testing.T) {
	wave, ok := ParseWaveformType("GARBAGE")
	assert.False(t, ok)
	assert.Equal(t, WaveSine, wave)
}

func TestDriverError_WrapsUnderlyingError(t *testing.T) {
	underlying := errors.New("timeout")
	err := &DriverError{Op: "connect", Err: underlying}
	assert.Contains(t, err.Error(), "connect")
	assert.Contains(t, err.Error(), "timeout")
	assert.True(t, errors.Is(err, underlying))
}
