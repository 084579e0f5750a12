package vxi11

import "sync"

// DefaultPorts is the Siglent-observed two-element rotation the
// VXI-11 listener flips between after every session. The rotation
// itself is not part of the VXI-11 standard — see the design note on
// port-flip-as-implicit-handshake — it is a quirk this responder must
// reproduce exactly or the scope will fail to reconnect.
var DefaultPorts = [2]int{9009, 9010}

// PortRotation tracks which of the two fixed ports the VXI-11
// listener currently occupies. Only the VXI-11 server reads and flips
// it; the Portmap resolver never sees it, and learns each newly bound
// port through the server's PortBinder.SetMapping call instead.
type PortRotation struct {
	mu      sync.RWMutex
	ports   [2]int
	current int
}

// NewPortRotation returns a PortRotation starting at ports[0].
func NewPortRotation(ports [2]int) *PortRotation {
	return &PortRotation{ports: ports}
}

// Current returns the port currently in effect.
func (r *PortRotation) Current() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ports[r.current]
}

// Flip switches to the other port in the rotation and returns it.
func (r *PortRotation) Flip() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = 1 - r.current
	return r.ports[r.current]
}
