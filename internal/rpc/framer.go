package rpc

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// lastFragmentBit marks the final fragment of an RPC record in the
// 4-byte record-marking header (RFC 1831 Section 10).
const lastFragmentBit = 0x80000000

// MaxFragmentSize bounds a single TCP fragment so a corrupt or hostile
// length prefix cannot force an unbounded read. Portmap and VXI-11
// payloads in this bridge are tiny (SCPI command lines); 1 MiB is
// generous headroom over anything the scope actually sends.
const MaxFragmentSize = 1 << 20

// ReadFragmented reads one complete RPC record from a TCP stream,
// reassembling however many fragments the sender split it into. Each
// fragment is a 4-byte big-endian header (top bit = last-fragment,
// remaining 31 bits = fragment length) followed by that many payload
// bytes.
//
// Returns io.EOF (unwrapped) when the connection closes cleanly before
// any fragment header is read, so callers can distinguish a normal
// client disconnect from a mid-message error.
func ReadFragmented(r io.Reader) ([]byte, error) {
	var message []byte
	for {
		var header [4]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF && len(message) == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("rpc: read fragment header: %w", err)
		}

		word := binary.BigEndian.Uint32(header[:])
		isLast := word&lastFragmentBit != 0
		length := word &^ lastFragmentBit

		if length > MaxFragmentSize {
			return nil, fmt.Errorf("rpc: fragment length %d exceeds maximum %d", length, MaxFragmentSize)
		}

		fragment := make([]byte, length)
		if _, err := io.ReadFull(r, fragment); err != nil {
			return nil, fmt.Errorf("rpc: read fragment payload: %w", err)
		}
		message = append(message, fragment...)

		if isLast {
			return message, nil
		}
	}
}

// WriteFragmented writes data as a single RPC record-marked fragment
// with the last-fragment bit set. The server never splits a reply
// across multiple fragments.
func WriteFragmented(w io.Writer, data []byte) error {
	if len(data) > MaxFragmentSize {
		return fmt.Errorf("rpc: reply length %d exceeds maximum %d", len(data), MaxFragmentSize)
	}
	header := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(header[0:4], lastFragmentBit|uint32(len(data)))
	copy(header[4:], data)
	_, err := w.Write(header)
	return err
}

// ReadDatagram reads one UDP packet as a complete, unframed RPC
// message — UDP has no record marking; each datagram is one message.
func ReadDatagram(conn *net.UDPConn, buf []byte) (int, *net.UDPAddr, error) {
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return 0, nil, err
	}
	return n, addr, nil
}

// WriteDatagram sends data verbatim to addr with no framing.
func WriteDatagram(conn *net.UDPConn, data []byte, addr *net.UDPAddr) error {
	_, err := conn.WriteToUDP(data, addr)
	return err
}
