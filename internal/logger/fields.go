package logger

// Field key constants shared by the RPC, Portmap, VXI-11 and SCPI
// layers, so grep finds every caller that logs a given concept
// regardless of which package emits it.
const (
	KeyClientAddr = "client_addr"
	KeySessionID  = "session_id"
	KeyLinkID     = "link_id"
	KeyProcedure  = "procedure"
	KeyProgram    = "program"
	KeyVersion    = "version"
	KeyPort       = "port"
	KeyProtocol   = "protocol"
	KeyChannel    = "channel"
	KeyCommand    = "command"
	KeyDriver     = "driver"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)
