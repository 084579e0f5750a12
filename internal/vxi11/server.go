package vxi11

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bstrobel/sds1004x-bode/internal/logger"
	"github.com/bstrobel/sds1004x-bode/internal/metrics"
	"github.com/bstrobel/sds1004x-bode/internal/rpc"
	"github.com/bstrobel/sds1004x-bode/internal/xdr"
)

// PortBinder is implemented by internal/portmap.Resolver: whatever the
// VXI-11 server binds to, the Portmap resolver must advertise before
// the next GETPORT is answered.
type PortBinder interface {
	SetMapping(program, version, protocol, port uint32)
}

// ServerConfig configures a VXI-11 Server.
type ServerConfig struct {
	Rotation  *PortRotation
	Processor CommandProcessor
	Binder    PortBinder

	// Metrics records RPC call counts and port flips, if non-nil.
	Metrics metrics.BridgeMetrics
}

// Server accepts one VXI-11 Core Channel TCP connection at a time,
// serves it to completion, then rebinds to the other port in the
// rotation before accepting the next — reproducing the Siglent
// port-flip quirk §9 describes.
type Server struct {
	config       ServerConfig
	mu           sync.Mutex
	listener     net.Listener
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewServer returns a Server that has not started listening yet.
func NewServer(cfg ServerConfig) *Server {
	return &Server{config: cfg, shutdown: make(chan struct{}), done: make(chan struct{})}
}

// Serve binds the current rotation port and accepts connections until
// ctx is cancelled or Stop is called, flipping the port after every
// completed session.
func (s *Server) Serve(ctx context.Context) error {
	defer close(s.done)

	if err := s.bind(s.config.Rotation.Current()); err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	for {
		ln := s.currentListener()
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
				logger.Debug("vxi11: accept error", logger.KeyError, err)
				return err
			}
		}

		s.handleConnection(ctx, conn)

		select {
		case <-s.shutdown:
			return nil
		default:
		}

		next := s.config.Rotation.Flip()
		if err := s.bind(next); err != nil {
			logger.Error("vxi11: rebind after session failed", logger.KeyPort, next, logger.KeyError, err)
			return err
		}
		if s.config.Metrics != nil {
			s.config.Metrics.RecordPortFlip(next)
		}
		logger.Info("VXI-11 moving to TCP port", logger.KeyPort, next)
	}
}

func (s *Server) bind(port int) error {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("vxi11: listen %s: %w", addr, err)
	}

	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.listener = ln
	s.mu.Unlock()

	s.config.Binder.SetMapping(Program, Version1, 6, uint32(port))
	logger.Info("vxi11 server listening", logger.KeyPort, port)
	return nil
}

func (s *Server) currentListener() net.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// handleConnection serves one VXI-11 session to completion: repeated
// RPC calls over one TCP connection until DESTROY_LINK or the client
// disconnects. The session's LogContext is attached to ctx once; each
// call logs through its own copy of it carrying that call's procedure
// name and link id, so neither carries over to the next call.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	clientAddr := conn.RemoteAddr().String()

	lc := &logger.LogContext{ClientAddr: clientAddr, SessionID: uuid.New().String()}
	ctx = logger.WithContext(ctx, lc)
	logger.InfoCtx(ctx, "Incoming connection from")

	session := &Session{Links: NewLinkTable(), Processor: s.config.Processor}

	for {
		if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
			return
		}

		msgBuf, err := rpc.ReadFragmented(conn)
		if err != nil {
			return
		}

		replyBody, closeAfter := s.processMessage(ctx, lc, session, msgBuf)
		if replyBody == nil {
			return
		}
		if err := rpc.WriteFragmented(conn, replyBody); err != nil {
			logger.WarnCtx(ctx, "vxi11: write reply failed", logger.KeyError, err)
			return
		}
		if closeAfter {
			return
		}
	}
}

func (s *Server) processMessage(ctx context.Context, lc *logger.LogContext, session *Session, data []byte) (reply []byte, closeAfter bool) {
	start := time.Now()

	call, err := rpc.DecodeCall(data)
	if err != nil {
		logger.DebugCtx(ctx, "vxi11: decode call failed", logger.KeyError, err)
		return nil, false
	}

	if call.Program != Program {
		s.recordCall("UNKNOWN", start, "PROG_UNAVAIL")
		return rpc.EncodeAcceptedReply(call.XID, rpc.ProgUnavail, nil), false
	}
	if call.Version != Version1 {
		s.recordCall("UNKNOWN", start, "PROG_MISMATCH")
		return rpc.EncodeProgMismatchReply(call.XID, Version1, Version1), false
	}

	proc, ok := DispatchTable[call.Procedure]
	if !ok {
		s.recordCall("UNKNOWN", start, "PROC_UNAVAIL")
		return rpc.EncodeAcceptedReply(call.XID, rpc.ProcUnavail, nil), false
	}

	callLC := lc.WithProcedure(proc.Name)
	if id, ok := peekLinkID(call.Procedure, call.Args); ok {
		callLC.LinkID = id
	}
	ctx = logger.WithContext(ctx, callLC)
	logger.DebugCtx(ctx, "vxi11 rpc")

	result, err := proc.Handler(session, call.Args)
	if err != nil {
		logger.DebugCtx(ctx, "vxi11: malformed args", logger.KeyError, err)
		s.recordCall(proc.Name, start, "GARBAGE_ARGS")
		return rpc.EncodeAcceptedReply(call.XID, rpc.GarbageArgs, nil), true
	}
	s.recordCall(proc.Name, start, "SUCCESS")
	return rpc.EncodeAcceptedReply(call.XID, rpc.Success, result.Data), result.CloseAfter
}

// peekLinkID extracts the link id from a procedure's argument bytes
// without running its full handler, for logging. CREATE_LINK has no
// link id yet (it allocates one) and is not included.
func peekLinkID(procedure uint32, args []byte) (uint32, bool) {
	switch procedure {
	case ProcDeviceWrite, ProcDeviceRead, ProcDestroyLink:
		d := xdr.NewDecoder(args)
		id, err := d.Uint32()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func (s *Server) recordCall(procedure string, start time.Time, acceptStatus string) {
	if s.config.Metrics == nil {
		return
	}
	s.config.Metrics.RecordRPCCall(Program, procedure, time.Since(start), acceptStatus)
}

// Stop shuts the server down. Safe to call multiple times.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.mu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Unlock()
	})
}

// Addr returns the current listener's address, for tests.
func (s *Server) Addr() string {
	ln := s.currentListener()
	if ln == nil {
		return ""
	}
	return ln.Addr().String()
}

// Done is closed when Serve returns.
func (s *Server) Done() <-chan struct{} {
	return s.done
}
