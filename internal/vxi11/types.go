// Package vxi11 implements the subset of the TCG VXI-11 Rev 1.0 Core
// Channel the bridge needs to look like a Siglent AWG's instrument
// control endpoint: CREATE_LINK, DEVICE_WRITE, DEVICE_READ and
// DESTROY_LINK, plus tolerant no-op replies to the handful of other
// procedures a well-behaved VXI-11 client may still issue.
package vxi11

// Program is the ONC RPC program number for the VXI-11 Core Channel.
const Program uint32 = 395183

// Version1 is the only Core Channel version this bridge speaks.
const Version1 uint32 = 1

// Core Channel procedure numbers (VXI-11 Rev 1.0 Table B.4).
const (
	ProcCreateLink  uint32 = 10
	ProcDeviceWrite uint32 = 11
	ProcDeviceRead  uint32 = 12
	ProcDestroyLink uint32 = 23
)

// toleratedProcMin/Max bracket the procedures this bridge accepts
// without implementing any real behavior for them (READSTB, TRIGGER,
// CLEAR, REMOTE, LOCAL, LOCK, UNLOCK, ENABLE_SRQ, DOCMD) — a scope
// doing a Bode sweep never issues these, but answering PROC_UNAVAIL
// for them would be wrong; VXI-11 defines them, we just no-op them.
const (
	toleratedProcMin uint32 = 13
	toleratedProcMax uint32 = 22
)

// DeviceErrorNoError is the only Device_ErrorCode this responder ever
// returns; commands that fail are handled by logging and carrying on,
// never by reporting a VXI-11-level error back to the scope (a
// malformed SCPI payload must not break the Bode sweep).
const DeviceErrorNoError int32 = 0

// ReadReasonEnd is the Device_ReadReasons END bit (0x04): every
// DEVICE_READ this responder answers delivers its entire pending
// response (or nothing) in one shot, so END is always set.
const ReadReasonEnd uint32 = 0x04

// MaxReceiveSize is advertised in the CREATE_LINK reply as the
// largest DEVICE_WRITE payload the link will accept.
const MaxReceiveSize uint32 = 1048576
