// Package rpc implements the ONC RPC v2 (RFC 1831) message envelope and
// TCP record-marking / UDP datagram framing shared by the Portmap and
// VXI-11 responders. It decodes only as much of a CALL as every
// procedure needs (XID, program, version, procedure, credentials) and
// leaves procedure-specific argument bytes to the caller.
package rpc

import (
	"bytes"
	"fmt"

	"github.com/bstrobel/sds1004x-bode/internal/xdr"
)

// Message types (RFC 1831 Section 8).
const (
	Call  uint32 = 0
	Reply uint32 = 1
)

// RPC protocol version. The scope always sends 2.
const Version2 uint32 = 2

// Reply statuses (RFC 1831 Section 8.1).
const (
	MsgAccepted uint32 = 0
	MsgDenied   uint32 = 1
)

// Accept statuses (RFC 1831 Section 8.2.2).
const (
	Success      uint32 = 0
	ProgUnavail  uint32 = 1
	ProgMismatch uint32 = 2
	ProcUnavail  uint32 = 3
	GarbageArgs  uint32 = 4
	SystemErr    uint32 = 5
)

// AuthNone is the only auth flavor the scope ever presents.
const AuthNone uint32 = 0

// ProtocolError indicates a syntactically valid RPC call referenced an
// unsupported program, version or procedure.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "rpc: " + e.Reason }

// CallMessage is a decoded ONC RPC CALL header plus the raw bytes of
// the procedure-specific arguments that follow it.
type CallMessage struct {
	XID       uint32
	Program   uint32
	Version   uint32
	Procedure uint32
	Args      []byte
}

// DecodeCall parses an RPC CALL message. It decodes the fixed header
// fields (XID, message type, RPC version, program, version, procedure)
// and the credential/verifier pairs (opaque bodies of whatever flavor
// the client chose — the scope always uses AUTH_NONE, a zero-length
// opaque, but the decoder does not assume that), then returns whatever
// bytes remain as Args.
func DecodeCall(data []byte) (*CallMessage, error) {
	d := xdr.NewDecoder(data)

	xid, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("rpc: decode xid: %w", err)
	}
	msgType, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("rpc: decode msg type: %w", err)
	}
	if msgType != Call {
		return nil, &ProtocolError{Reason: fmt.Sprintf("not a CALL message (type=%d)", msgType)}
	}
	if _, err := d.Uint32(); err != nil { // rpcvers
		return nil, fmt.Errorf("rpc: decode rpcvers: %w", err)
	}
	program, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("rpc: decode program: %w", err)
	}
	version, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("rpc: decode version: %w", err)
	}
	procedure, err := d.Uint32()
	if err != nil {
		return nil, fmt.Errorf("rpc: decode procedure: %w", err)
	}
	if err := skipAuth(d); err != nil { // credentials
		return nil, fmt.Errorf("rpc: decode credentials: %w", err)
	}
	if err := skipAuth(d); err != nil { // verifier
		return nil, fmt.Errorf("rpc: decode verifier: %w", err)
	}

	return &CallMessage{
		XID:       xid,
		Program:   program,
		Version:   version,
		Procedure: procedure,
		Args:      data[len(data)-d.Remaining():],
	}, nil
}

// skipAuth decodes and discards an opaque_auth structure (flavor +
// length-prefixed body).
func skipAuth(d *xdr.Decoder) error {
	if _, err := d.Uint32(); err != nil { // flavor
		return err
	}
	if _, err := d.Opaque(); err != nil { // body
		return err
	}
	return nil
}

// EncodeAcceptedReply builds a MSG_ACCEPTED reply body with the given
// accept status and procedure-specific result bytes. Pass nil result
// for replies that carry no result (e.g. PROC_UNAVAIL).
//
// Wire format: xid + msg_type(REPLY) + reply_stat(MSG_ACCEPTED) +
// verf{flavor=AUTH_NONE,len=0} + accept_stat + result.
func EncodeAcceptedReply(xid uint32, acceptStat uint32, result []byte) []byte {
	var buf bytes.Buffer
	xdr.PutUint32(&buf, xid)
	xdr.PutUint32(&buf, Reply)
	xdr.PutUint32(&buf, MsgAccepted)
	xdr.PutUint32(&buf, AuthNone) // verifier flavor
	xdr.PutUint32(&buf, 0)        // verifier length
	xdr.PutUint32(&buf, acceptStat)
	buf.Write(result)
	return buf.Bytes()
}

// EncodeProgMismatchReply builds a PROG_MISMATCH reply carrying the
// [low, high] version range the server supports.
func EncodeProgMismatchReply(xid uint32, low, high uint32) []byte {
	var result bytes.Buffer
	xdr.PutUint32(&result, low)
	xdr.PutUint32(&result, high)
	return EncodeAcceptedReply(xid, ProgMismatch, result.Bytes())
}
