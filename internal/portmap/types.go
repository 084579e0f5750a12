// Package portmap implements the RFC 1833 Rpcbind/Portmap GETPORT and
// DUMP procedures the scope uses to discover which TCP and UDP ports
// the VXI-11 Core Channel (program 395183, version 1) is listening on.
// It never forwards to a real portmapper; the only program it knows
// about is the VXI-11 one the bridge itself serves.
package portmap

// Program is the well-known ONC RPC program number for the portmapper
// itself (RFC 1833 Section 3).
const Program uint32 = 100000

// Version2 is the Portmap protocol version the scope speaks.
const Version2 uint32 = 2

// Version3 and Version4 (rpcbind GETADDR-era versions) are accepted
// and answered identically to Version2: this responder only ever
// advertises the one VXI-11 mapping it owns, and a GETPORT/GETADDR
// asking about anything else gets the same port back regardless of
// which version the client claims.
const (
	Version3 uint32 = 3
	Version4 uint32 = 4
)

// Procedures within program Program, version Version2.
const (
	ProcNull    uint32 = 0
	ProcSet     uint32 = 1
	ProcUnset   uint32 = 2
	ProcGetPort uint32 = 3
	ProcDump    uint32 = 4
)

// Protocol numbers as carried in a Mapping, matching IPPROTO_TCP/UDP.
const (
	ProtoTCP uint32 = 6
	ProtoUDP uint32 = 17
)

// Mapping is the RFC 1833 `mapping` struct: a (program, version,
// protocol) tuple registered to a port. GETPORT sends one as its
// argument (with Port ignored); DUMP returns a list of them.
type Mapping struct {
	Program  uint32
	Version  uint32
	Protocol uint32
	Port     uint32
}
