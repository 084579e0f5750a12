package scpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommands_SplitsAndTrims(t *testing.T) {
	cmds := SplitCommands("C1:OUTP LOAD,50;BSWV WVTP,SINE\n")
	assert.Equal(t, []string{"C1:OUTP LOAD,50", "BSWV WVTP,SINE"}, cmds)
}

func TestSplitCommands_EmptyPayload(t *testing.T) {
	assert.Nil(t, SplitCommands("   \n"))
}

func TestParseCommand_ChannelPrefixDefaultsToOne(t *testing.T) {
	cmd, err := ParseCommand("BSWV FRQ,10")
	require.NoError(t, err)
	assert.Equal(t, 1, cmd.Channel)
	assert.Equal(t, "BSWV", cmd.Raw)
	assert.Equal(t, []Arg{{Key: "FRQ", Value: "10"}}, cmd.Args)
}

func TestParseCommand_ExplicitChannelPrefix(t *testing.T) {
	cmd, err := ParseCommand("C2:BSWV AMP,2")
	require.NoError(t, err)
	assert.Equal(t, 2, cmd.Channel)
	assert.Equal(t, []Arg{{Key: "AMP", Value: "2"}}, cmd.Args)
}

func TestParseCommand_StandaloneQueryHasNoArgs(t *testing.T) {
	cmd, err := ParseCommand("IDN-SGLT-PRI?")
	require.NoError(t, err)
	assert.Equal(t, "IDN-SGLT-PRI?", cmd.Raw)
	assert.Empty(t, cmd.Args)
}

func TestParseCommand_BareTokenArg(t *testing.T) {
	cmd, err := ParseCommand("OUTP ON")
	require.NoError(t, err)
	assert.Equal(t, []Arg{{Value: "ON"}}, cmd.Args)
}

func TestParseCommand_MultipleKeyValuePairs(t *testing.T) {
	cmd, err := ParseCommand("BSWV WVTP,SINE,PHSE,0,FRQ,15000,AMP,2,OFST,0")
	require.NoError(t, err)
	assert.Equal(t, []Arg{
		{Key: "WVTP", Value: "SINE"},
		{Key: "PHSE", Value: "0"},
		{Key: "FRQ", Value: "15000"},
		{Key: "AMP", Value: "2"},
		{Key: "OFST", Value: "0"},
	}, cmd.Args)
}

func TestParseCommand_EmptyStringIsError(t *testing.T) {
	_, err := ParseCommand("   ")
	require.Error(t, err)
}

func TestParseNumeric_PlainValue(t *testing.T) {
	v, err := ParseNumeric("15000")
	require.NoError(t, err)
	assert.Equal(t, 15000.0, v)
}

func TestParseNumeric_EngineeringSuffixes(t *testing.T) {
	cases := map[string]float64{
		"10HZ":  10,
		"10KHZ": 10000,
		"1MHZ":  1000000,
		"2VPP":  2,
		"5V":    5,
		"1MS":   0.001,
		"10US":  0.00001,
		"100NS": 0.0000001,
		"50%":   50,
	}
	for input, want := range cases {
		v, err := ParseNumeric(input)
		require.NoError(t, err, input)
		assert.InDelta(t, want, v, 1e-12, input)
	}
}

func TestParseNumeric_InvalidIsError(t *testing.T) {
	_, err := ParseNumeric("NOTANUMBER")
	require.Error(t, err)
}
