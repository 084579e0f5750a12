package portmap

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// DecodeMapping unmarshals a GETPORT/SET/UNSET argument (a single
// Mapping struct) using the reflection-based XDR codec — unlike the
// fixed RPC envelope, a Mapping is exactly the kind of plain data
// struct that codec is meant for.
func DecodeMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &m); err != nil {
		return nil, fmt.Errorf("portmap: unmarshal mapping: %w", err)
	}
	return &m, nil
}

// EncodeGetPortResult encodes a GETPORT reply: a single uint32 port
// (0 when no matching mapping is registered).
func EncodeGetPortResult(port uint32) []byte {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, port); err != nil {
		// Marshal of a bare uint32 cannot fail.
		panic(fmt.Sprintf("portmap: marshal getport result: %v", err))
	}
	return buf.Bytes()
}

// EncodeDumpResult encodes the DUMP reply: the pmaplist of every
// mapping this responder currently knows about.
func EncodeDumpResult(mappings []Mapping) ([]byte, error) {
	var buf bytes.Buffer
	for _, m := range mappings {
		if _, err := xdr.Marshal(&buf, true); err != nil { // value follows
			return nil, fmt.Errorf("portmap: marshal dump entry flag: %w", err)
		}
		if _, err := xdr.Marshal(&buf, m); err != nil {
			return nil, fmt.Errorf("portmap: marshal dump mapping: %w", err)
		}
	}
	if _, err := xdr.Marshal(&buf, false); err != nil { // list terminator
		return nil, fmt.Errorf("portmap: marshal dump terminator: %w", err)
	}
	return buf.Bytes(), nil
}
