package xdr

import (
	"bytes"
	"encoding/binary"
)

// PutUint32 appends a big-endian unsigned 32-bit integer.
//
// Per RFC 4506 Section 4.1: integers are encoded big-endian.
func PutUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// PutInt32 appends a big-endian signed 32-bit integer.
func PutInt32(buf *bytes.Buffer, v int32) {
	PutUint32(buf, uint32(v))
}

// PutBool appends a boolean encoded as a uint32 (0 = false, 1 = true).
//
// Per RFC 4506 Section 4.4.
func PutBool(buf *bytes.Buffer, v bool) {
	if v {
		PutUint32(buf, 1)
		return
	}
	PutUint32(buf, 0)
}

// putPadding writes the zero bytes needed to bring dataLen up to the
// next 4-byte boundary.
func putPadding(buf *bytes.Buffer, dataLen int) {
	if pad := (4 - (dataLen % 4)) % 4; pad > 0 {
		var zero [3]byte
		buf.Write(zero[:pad])
	}
}

// PutOpaque appends variable-length opaque data: a uint32 length prefix,
// the bytes, then zero padding to a 4-byte boundary.
//
// Per RFC 4506 Section 4.10.
func PutOpaque(buf *bytes.Buffer, data []byte) {
	PutUint32(buf, uint32(len(data)))
	buf.Write(data)
	putPadding(buf, len(data))
}

// PutFixedOpaque appends fixed-length opaque data padded to a 4-byte
// boundary, with no length prefix (the length is a wire constant known
// to both ends).
//
// Per RFC 4506 Section 4.9.
func PutFixedOpaque(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
	putPadding(buf, len(data))
}

// PutString appends a string using the same representation as opaque
// data (length prefix, bytes, padding).
//
// Per RFC 4506 Section 4.11.
func PutString(buf *bytes.Buffer, s string) {
	PutOpaque(buf, []byte(s))
}
