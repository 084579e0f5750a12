package awg

import "sync"

// ChannelState mirrors one AWG channel's configuration exactly as the
// BSWV query must report it back to the scope.
type ChannelState struct {
	Waveform WaveformType
	FreqHz   float64
	AmpVpp   float64
	OffsetV  float64
	PhaseDeg float64
	Load     OutputLoad
	Enabled  bool
}

// NewChannelState returns the vendor-neutral default the Data Model
// specifies: 1 kHz sine, 0 Vpp, 0 V offset, 0 degrees, high-Z, output
// off.
func NewChannelState() ChannelState {
	return ChannelState{
		Waveform: WaveSine,
		FreqHz:   1000,
		AmpVpp:   0,
		OffsetV:  0,
		PhaseDeg: 0,
		Load:     LoadHighZ,
		Enabled:  false,
	}
}

// StateTable holds per-channel state, created lazily at its default
// the first time a channel is referenced.
type StateTable struct {
	mu       sync.Mutex
	channels map[int]*ChannelState
}

// NewStateTable returns an empty StateTable.
func NewStateTable() *StateTable {
	return &StateTable{channels: make(map[int]*ChannelState)}
}

// Get returns the state for channel, creating it at its default if
// this is the first reference.
func (t *StateTable) Get(channel int) *ChannelState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.channels[channel]
	if !ok {
		s := NewChannelState()
		state = &s
		t.channels[channel] = state
	}
	return state
}
