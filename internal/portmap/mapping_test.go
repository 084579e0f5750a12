package portmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMapping_RoundTripsFourFields(t *testing.T) {
	want := Mapping{Program: 395183, Version: 1, Protocol: ProtoTCP, Port: 9009}
	data, err := encodeMappingForTest(want)
	require.NoError(t, err)

	got, err := DecodeMapping(data)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeMapping_RejectsTruncatedInput(t *testing.T) {
	_, err := DecodeMapping([]byte{0, 0, 0})
	require.Error(t, err)
}

func TestEncodeDumpResult_TerminatesWithFalse(t *testing.T) {
	mappings := []Mapping{
		{Program: 395183, Version: 1, Protocol: ProtoTCP, Port: 9009},
		{Program: 395183, Version: 1, Protocol: ProtoUDP, Port: 0},
	}

	data, err := EncodeDumpResult(mappings)
	require.NoError(t, err)
	// Each entry is a bool(true)=4 bytes + 4 uint32 fields=16 bytes, plus
	// a final bool(false)=4 bytes terminator.
	assert.Equal(t, len(mappings)*(4+16)+4, len(data))
}

func TestEncodeDumpResult_EmptyListIsJustTerminator(t *testing.T) {
	data, err := EncodeDumpResult(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, len(data))
}

func TestEncodeGetPortResult_EncodesSingleUint32(t *testing.T) {
	data := EncodeGetPortResult(1024)
	assert.Equal(t, 4, len(data))
}
