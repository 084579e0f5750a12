package vxi11

import "sync"

// Link is a VXI-11 session handle: the state CREATE_LINK produces,
// DEVICE_WRITE/DEVICE_READ operate on, and DESTROY_LINK releases. The
// pending-response slot is the "small state machine" a Bode-sweep
// query/read pair rides on — populated by a query-bearing
// DEVICE_WRITE, drained by the next DEVICE_READ.
type Link struct {
	ID            uint32
	ClientID      int32
	LockTimeoutMs uint32
	DeviceName    string

	mu      sync.Mutex
	pending []byte
}

// SetPending stashes resp as the response the next DEVICE_READ on
// this link should return, replacing whatever was queued before.
func (l *Link) SetPending(resp []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = resp
}

// TakePending returns and clears the queued response, or nil if none
// is pending.
func (l *Link) TakePending() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	resp := l.pending
	l.pending = nil
	return resp
}

// LinkTable assigns and tracks the links live on one VXI-11
// connection. The spec does not enforce a single-link invariant —
// any id the client presents to DEVICE_WRITE/READ/DESTROY_LINK is
// honored if it exists in the table, regardless of how many links
// are concurrently open.
type LinkTable struct {
	mu     sync.Mutex
	links  map[uint32]*Link
	nextID uint32
}

// NewLinkTable returns an empty LinkTable. Link ids start at 1 so a
// zero id is never mistaken for a valid link.
func NewLinkTable() *LinkTable {
	return &LinkTable{links: make(map[uint32]*Link), nextID: 1}
}

// Create allocates a new Link with the next monotonically increasing
// id and registers it.
func (t *LinkTable) Create(clientID int32, lockTimeoutMs uint32, deviceName string) *Link {
	t.mu.Lock()
	defer t.mu.Unlock()

	link := &Link{
		ID:            t.nextID,
		ClientID:      clientID,
		LockTimeoutMs: lockTimeoutMs,
		DeviceName:    deviceName,
	}
	t.nextID++
	t.links[link.ID] = link
	return link
}

// Get returns the link with the given id, or nil if it does not
// exist (or was already destroyed).
func (t *LinkTable) Get(id uint32) *Link {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.links[id]
}

// Destroy removes a link from the table. Destroying an unknown id is
// a no-op — DESTROY_LINK always replies error=0 regardless.
func (t *LinkTable) Destroy(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.links, id)
}
