package scpi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
)

// recordingDriver is a fake awg.Driver that records every call it
// receives, in order, so tests can assert on call sequence as well as
// final state — grounding invariants 4 and 5 (idempotence and
// command ordering) directly.
type recordingDriver struct {
	calls             []string
	failNextFrequency bool
}

func (d *recordingDriver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *recordingDriver) Connect() error    { d.record("connect"); return nil }
func (d *recordingDriver) Disconnect() error { d.record("disconnect"); return nil }

func (d *recordingDriver) InitializeChannel(ch int) error {
	d.record("init(%d)", ch)
	return nil
}

func (d *recordingDriver) SetOutputLoad(ch int, load awg.OutputLoad) error {
	d.record("set_output_load(%d,%s)", ch, load.String())
	return nil
}

func (d *recordingDriver) SetOutputOn(ch int, enabled bool) error {
	d.record("set_output_on(%d,%v)", ch, enabled)
	return nil
}

func (d *recordingDriver) SetWaveformType(ch int, wave awg.WaveformType) error {
	d.record("set_waveform_type(%d,%s)", ch, wave.String())
	return nil
}

func (d *recordingDriver) SetFrequency(ch int, hz float64) error {
	if d.failNextFrequency {
		d.failNextFrequency = false
		return &awg.DriverError{Op: "set_frequency", Err: errors.New("transport down")}
	}
	d.record("set_frequency(%d,%g)", ch, hz)
	return nil
}

func (d *recordingDriver) SetAmplitude(ch int, vpp float64) error {
	d.record("set_amplitude(%d,%g)", ch, vpp)
	return nil
}

func (d *recordingDriver) SetOffset(ch int, v float64) error {
	d.record("set_offset(%d,%g)", ch, v)
	return nil
}

func (d *recordingDriver) SetPhase(ch int, deg float64) error {
	d.record("set_phase(%d,%g)", ch, deg)
	return nil
}

var _ awg.Driver = (*recordingDriver)(nil)

func TestDispatcher_IDNQuery(t *testing.T) {
	d := New(&recordingDriver{})
	reply := d.Process([]byte("IDN-SGLT-PRI?"))
	assert.Equal(t, "IDN-SGLT-PRI,"+identification, string(reply))
}

func TestDispatcher_BodeSetupAppliesInOrder(t *testing.T) {
	drv := &recordingDriver{}
	d := New(drv)
	reply := d.Process([]byte("C1:OUTP LOAD,50;BSWV WVTP,SINE,PHSE,0,FRQ,15000,AMP,2,OFST,0;OUTP ON"))
	assert.Nil(t, reply)
	assert.Equal(t, []string{
		"set_output_load(1,50)",
		"set_waveform_type(1,SINE)",
		"set_phase(1,0)",
		"set_frequency(1,15000)",
		"set_amplitude(1,2)",
		"set_offset(1,0)",
		"set_output_on(1,true)",
	}, drv.calls)
}

func TestDispatcher_FrequencyStepUpdatesOnlyFrequency(t *testing.T) {
	drv := &recordingDriver{}
	d := New(drv)
	d.Process([]byte("C1:OUTP LOAD,50;BSWV WVTP,SINE,PHSE,0,FRQ,15000,AMP,2,OFST,0;OUTP ON"))
	drv.calls = nil

	d.Process([]byte("C1:BSWV FRQ,10"))

	require.Equal(t, []string{"set_frequency(1,10)"}, drv.calls)
	state := d.states.Get(1)
	assert.Equal(t, 10.0, state.FreqHz)
	assert.Equal(t, 2.0, state.AmpVpp)
	assert.Equal(t, 0.0, state.OffsetV)
	assert.Equal(t, 0.0, state.PhaseDeg)
	assert.Equal(t, awg.WaveSine, state.Waveform)
	assert.Equal(t, awg.Load50Ohm, state.Load)
	assert.True(t, state.Enabled)
}

func TestDispatcher_BSWVQueryReportsCurrentState(t *testing.T) {
	drv := &recordingDriver{}
	d := New(drv)
	d.Process([]byte("C1:OUTP LOAD,50;BSWV WVTP,SINE,PHSE,0,FRQ,15000,AMP,2,OFST,0;OUTP ON"))

	reply := d.Process([]byte("C1:BSWV?"))

	s := string(reply)
	assert.Contains(t, s, "C1:BSWV WVTP,SINE")
	assert.Contains(t, s, "FRQ,15000")
	assert.Contains(t, s, "AMP,2")
}

func TestDispatcher_OnlyLastQueryResponseIsReturned(t *testing.T) {
	d := New(&recordingDriver{})
	reply := d.Process([]byte("IDN-SGLT-PRI?;C1:BSWV?"))
	assert.Contains(t, string(reply), "BSWV WVTP,SINE")
}

func TestDispatcher_IdempotentBSWVLeavesStateUnchanged(t *testing.T) {
	drv := &recordingDriver{}
	d := New(drv)
	cmd := []byte("C1:BSWV WVTP,SQUARE,FRQ,5000,AMP,1,OFST,0.5,PHSE,90")

	d.Process(cmd)
	first := *d.states.Get(1)
	d.Process(cmd)
	second := *d.states.Get(1)

	assert.Equal(t, first, second)
}

func TestDispatcher_UnknownMnemonicIsIgnoredNotFatal(t *testing.T) {
	d := New(&recordingDriver{})
	assert.NotPanics(t, func() {
		d.Process([]byte("FROBNICATE FOO,BAR"))
	})
}

func TestDispatcher_UnparseableCommandDoesNotStopLaterOnes(t *testing.T) {
	drv := &recordingDriver{}
	d := New(drv)
	d.Process([]byte("C1:;OUTP ON"))
	assert.Equal(t, []string{"set_output_on(1,true)"}, drv.calls)
}

func TestDispatcher_DriverErrorIsLoggedNotPropagated(t *testing.T) {
	drv := &recordingDriver{failNextFrequency: true}
	d := New(drv)
	assert.NotPanics(t, func() {
		reply := d.Process([]byte("BSWV FRQ,100"))
		assert.Nil(t, reply)
	})
}

func TestDispatcher_DifferentChannelsAreIndependent(t *testing.T) {
	drv := &recordingDriver{}
	d := New(drv)
	d.Process([]byte("C1:BSWV FRQ,100"))
	d.Process([]byte("C2:BSWV FRQ,200"))

	assert.Equal(t, 100.0, d.states.Get(1).FreqHz)
	assert.Equal(t, 200.0, d.states.Get(2).FreqHz)
}
