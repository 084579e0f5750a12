package portmap

import "fmt"

// ProcedureResult carries the XDR-encoded bytes a procedure handler
// wants placed in the RPC reply's result field.
type ProcedureResult struct {
	Data []byte
}

// ProcedureHandler processes one portmap procedure call's argument
// bytes against resolver and returns the reply data.
type ProcedureHandler func(resolver *Resolver, data []byte) (*ProcedureResult, error)

// Procedure names and dispatches one portmap procedure number.
type Procedure struct {
	Name    string
	Handler ProcedureHandler
}

// DispatchTable maps procedure numbers to their handlers. SET and
// UNSET are intentionally absent: this responder never accepts new
// registrations, it only ever answers for the VXI-11 mapping the
// bridge itself owns. CALLIT (procedure 5) is omitted too — it is an
// RPC amplification vector.
var DispatchTable map[uint32]*Procedure

func init() {
	DispatchTable = map[uint32]*Procedure{
		ProcNull: {
			Name: "NULL",
			Handler: func(*Resolver, []byte) (*ProcedureResult, error) {
				return &ProcedureResult{}, nil
			},
		},
		ProcGetPort: {
			Name: "GETPORT",
			Handler: func(resolver *Resolver, data []byte) (*ProcedureResult, error) {
				query, err := DecodeMapping(data)
				if err != nil {
					return nil, fmt.Errorf("portmap: getport: %w", err)
				}
				port := resolver.GetPort(*query)
				return &ProcedureResult{Data: EncodeGetPortResult(port)}, nil
			},
		},
		ProcDump: {
			Name: "DUMP",
			Handler: func(resolver *Resolver, _ []byte) (*ProcedureResult, error) {
				data, err := EncodeDumpResult(resolver.Dump())
				if err != nil {
					return nil, fmt.Errorf("portmap: dump: %w", err)
				}
				return &ProcedureResult{Data: data}, nil
			},
		},
	}
}
