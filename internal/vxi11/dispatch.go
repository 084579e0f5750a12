package vxi11

import (
	"bytes"
	"fmt"

	"github.com/bstrobel/sds1004x-bode/internal/xdr"
)

// CommandProcessor is what a DEVICE_WRITE payload gets handed to.
// internal/scpi.Dispatcher implements this; vxi11 only depends on the
// interface so the wire-protocol layer stays ignorant of the SCPI
// grammar it carries.
type CommandProcessor interface {
	// Process applies payload (one or more ';'-joined SCPI commands)
	// and returns the response of the last query command in it, or
	// nil if none of the commands was a query.
	Process(payload []byte) []byte
}

// ProcedureResult carries the XDR-encoded result bytes and, when true,
// tells the connection handler to close the link after replying (used
// by DESTROY_LINK to drive the post-session port flip).
type ProcedureResult struct {
	Data       []byte
	CloseAfter bool
}

// ProcedureHandler processes one Core Channel procedure's argument
// bytes against the session state and returns the XDR reply body.
type ProcedureHandler func(session *Session, data []byte) (*ProcedureResult, error)

// Procedure names and dispatches one Core Channel procedure number.
type Procedure struct {
	Name    string
	Handler ProcedureHandler
}

// DispatchTable maps procedure numbers to their handlers, the same
// shape as internal/portmap.DispatchTable — one dispatch-table idiom
// reused for both RPC programs this bridge serves.
var DispatchTable map[uint32]*Procedure

func init() {
	DispatchTable = map[uint32]*Procedure{
		ProcCreateLink: {
			Name:    "CREATE_LINK",
			Handler: handleCreateLink,
		},
		ProcDeviceWrite: {
			Name:    "DEVICE_WRITE",
			Handler: handleDeviceWrite,
		},
		ProcDeviceRead: {
			Name:    "DEVICE_READ",
			Handler: handleDeviceRead,
		},
		ProcDestroyLink: {
			Name:    "DESTROY_LINK",
			Handler: handleDestroyLink,
		},
	}
	for proc := toleratedProcMin; proc <= toleratedProcMax; proc++ {
		DispatchTable[proc] = &Procedure{Name: "TOLERATED", Handler: handleTolerated}
	}
}

// Session is the per-connection state a Core Channel handler acts on:
// the link table for this connection and the command processor writes
// are forwarded to.
type Session struct {
	Links     *LinkTable
	Processor CommandProcessor
}

func handleCreateLink(session *Session, data []byte) (*ProcedureResult, error) {
	d := xdr.NewDecoder(data)
	clientID, err := d.Int32()
	if err != nil {
		return nil, fmt.Errorf("vxi11: create_link: %w", err)
	}
	if _, err := d.Bool(); err != nil { // lockDevice, unused
		return nil, fmt.Errorf("vxi11: create_link: %w", err)
	}
	lockTimeout, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("vxi11: create_link: %w", err)
	}
	deviceName, err := d.String()
	if err != nil {
		return nil, fmt.Errorf("vxi11: create_link: %w", err)
	}

	link := session.Links.Create(clientID, lockTimeout, deviceName)

	var buf bytes.Buffer
	xdr.PutInt32(&buf, DeviceErrorNoError)
	xdr.PutUint32(&buf, link.ID)
	xdr.PutUint32(&buf, 0) // abort port, never used
	xdr.PutUint32(&buf, MaxReceiveSize)
	return &ProcedureResult{Data: buf.Bytes()}, nil
}

func handleDeviceWrite(session *Session, data []byte) (*ProcedureResult, error) {
	d := xdr.NewDecoder(data)
	linkID, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("vxi11: device_write: %w", err)
	}
	if _, err := d.Uint32(); err != nil { // io_timeout
		return nil, fmt.Errorf("vxi11: device_write: %w", err)
	}
	if _, err := d.Uint32(); err != nil { // lock_timeout
		return nil, fmt.Errorf("vxi11: device_write: %w", err)
	}
	if _, err := d.Uint32(); err != nil { // flags
		return nil, fmt.Errorf("vxi11: device_write: %w", err)
	}
	payload, err := d.Opaque()
	if err != nil {
		return nil, fmt.Errorf("vxi11: device_write: %w", err)
	}

	link := session.Links.Get(linkID)
	// An unknown link id still gets a successful reply — a parse or
	// protocol hiccup here must not break the scope's sweep.
	if link != nil {
		if resp := session.Processor.Process(payload); resp != nil {
			link.SetPending(resp)
		}
	}

	var buf bytes.Buffer
	xdr.PutInt32(&buf, DeviceErrorNoError)
	xdr.PutUint32(&buf, uint32(len(payload)))
	return &ProcedureResult{Data: buf.Bytes()}, nil
}

func handleDeviceRead(session *Session, data []byte) (*ProcedureResult, error) {
	d := xdr.NewDecoder(data)
	linkID, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("vxi11: device_read: %w", err)
	}
	// requestSize, io_timeout, lock_timeout, flags, termChar: not
	// needed to answer correctly since this responder always returns
	// its entire pending response or nothing, in one read.
	if d.Remaining() < 20 {
		return nil, fmt.Errorf("vxi11: device_read: truncated args")
	}

	var resp []byte
	if link := session.Links.Get(linkID); link != nil {
		resp = link.TakePending()
	}

	var buf bytes.Buffer
	xdr.PutInt32(&buf, DeviceErrorNoError)
	xdr.PutUint32(&buf, ReadReasonEnd)
	xdr.PutOpaque(&buf, resp)
	return &ProcedureResult{Data: buf.Bytes()}, nil
}

func handleDestroyLink(session *Session, data []byte) (*ProcedureResult, error) {
	d := xdr.NewDecoder(data)
	linkID, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("vxi11: destroy_link: %w", err)
	}
	session.Links.Destroy(linkID)

	var buf bytes.Buffer
	xdr.PutInt32(&buf, DeviceErrorNoError)
	return &ProcedureResult{Data: buf.Bytes(), CloseAfter: true}, nil
}

func handleTolerated(*Session, []byte) (*ProcedureResult, error) {
	var buf bytes.Buffer
	xdr.PutInt32(&buf, DeviceErrorNoError)
	return &ProcedureResult{Data: buf.Bytes()}, nil
}
