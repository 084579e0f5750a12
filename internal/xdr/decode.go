package xdr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Decoder reads XDR primitives from an in-memory buffer in sequence,
// keeping a cursor so a single malformed-length check can
// short-circuit the rest of a message.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps data for sequential XDR decoding.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Remaining reports how many bytes are left to decode.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) need(n int) error {
	if d.Remaining() < n {
		return decodeErr("need", fmt.Errorf("need %d bytes, have %d", n, d.Remaining()))
	}
	return nil
}

// Uint32 decodes a big-endian unsigned 32-bit integer.
func (d *Decoder) Uint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

// Int32 decodes a big-endian signed 32-bit integer.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

// Bool decodes a uint32-as-boolean; any non-zero value is true.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint32()
	return v != 0, err
}

func (d *Decoder) skipPadding(dataLen int) error {
	pad := (4 - (dataLen % 4)) % 4
	if err := d.need(pad); err != nil {
		return err
	}
	d.pos += pad
	return nil
}

// Opaque decodes variable-length opaque data: a uint32 length, that
// many bytes, then padding to a 4-byte boundary.
func (d *Decoder) Opaque() ([]byte, error) {
	length, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if length > MaxOpaqueLength {
		return nil, decodeErr("opaque", fmt.Errorf("length %d exceeds maximum %d", length, MaxOpaqueLength))
	}
	if err := d.need(int(length)); err != nil {
		return nil, decodeErr("opaque", err)
	}
	data := make([]byte, length)
	copy(data, d.buf[d.pos:d.pos+int(length)])
	d.pos += int(length)
	if err := d.skipPadding(int(length)); err != nil {
		return nil, decodeErr("opaque padding", err)
	}
	return data, nil
}

// FixedOpaque decodes n bytes of fixed-length opaque data padded to a
// 4-byte boundary, with no length prefix.
func (d *Decoder) FixedOpaque(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, decodeErr("fixed opaque", err)
	}
	data := make([]byte, n)
	copy(data, d.buf[d.pos:d.pos+n])
	d.pos += n
	if err := d.skipPadding(n); err != nil {
		return nil, decodeErr("fixed opaque padding", err)
	}
	return data, nil
}

// String decodes a string using the same wire representation as Opaque.
func (d *Decoder) String() (string, error) {
	data, err := d.Opaque()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeUint32 decodes a single big-endian uint32 directly from a
// reader, for callers that do not need a full Decoder over a byte
// slice. The Portmap mapping decoder does not use it; it unmarshals
// with rasky/go-xdr instead.
func DecodeUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, decodeErr("uint32", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
