package portmap

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bstrobel/sds1004x-bode/internal/logger"
	"github.com/bstrobel/sds1004x-bode/internal/metrics"
	"github.com/bstrobel/sds1004x-bode/internal/rpc"
)

// ServerConfig configures a portmap Server.
type ServerConfig struct {
	// Port is normally 111, the well-known portmapper port.
	Port int

	// Resolver answers the actual GETPORT/DUMP lookups.
	Resolver *Resolver

	// BindUDP additionally binds UDP on Port, required for the
	// SDS800X-HD scope family which queries Portmap over UDP. The
	// older SDS1000X-E family only needs TCP.
	BindUDP bool

	// Metrics records RPC call counts, if non-nil.
	Metrics metrics.BridgeMetrics
}

// Server is an RFC 1833 portmapper listening on TCP, and on UDP as
// well when BindUDP is set, serving only the one (program, version)
// this bridge cares about.
type Server struct {
	config       ServerConfig
	tcpListener  net.Listener
	udpConn      *net.UDPConn
	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewServer returns a Server that has not started listening yet.
func NewServer(cfg ServerConfig) *Server {
	return &Server{config: cfg, shutdown: make(chan struct{})}
}

// Serve listens on TCP (and on UDP when BindUDP is set) and blocks
// until ctx is cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	tcpListener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("portmap: listen tcp %s: %w", addr, err)
	}
	s.tcpListener = tcpListener

	s.wg.Add(1)
	go s.serveTCP()

	if s.config.BindUDP {
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			_ = s.tcpListener.Close()
			return fmt.Errorf("portmap: resolve udp %s: %w", addr, err)
		}
		udpConn, err := net.ListenUDP("udp", udpAddr)
		if err != nil {
			_ = s.tcpListener.Close()
			return fmt.Errorf("portmap: listen udp %s: %w", addr, err)
		}
		s.udpConn = udpConn

		s.wg.Add(1)
		go s.serveUDP()
	}

	logger.Info("portmap server started", "address", addr, "udp", s.config.BindUDP)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	s.wg.Wait()
	return nil
}

func (s *Server) serveTCP() {
	defer s.wg.Done()

	for {
		conn, err := s.tcpListener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				logger.Debug("portmap: tcp accept error", logger.KeyError, err)
				return
			}
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleTCPConn(c)
		}(conn)
	}
}

func (s *Server) handleTCPConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	clientAddr := conn.RemoteAddr().String()

	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		logger.Debug("portmap: set deadline failed", logger.KeyClientAddr, clientAddr, logger.KeyError, err)
		return
	}

	msgBuf, err := rpc.ReadFragmented(conn)
	if err != nil {
		return
	}

	replyBody := s.processMessage(msgBuf, clientAddr)
	if replyBody == nil {
		return
	}

	if err := rpc.WriteFragmented(conn, replyBody); err != nil {
		logger.Debug("portmap: write tcp reply failed", logger.KeyClientAddr, clientAddr, logger.KeyError, err)
	}
}

func (s *Server) serveUDP() {
	defer s.wg.Done()

	buf := make([]byte, 65535)
	for {
		select {
		case <-s.shutdown:
			return
		default:
		}

		if err := s.udpConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond)); err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				continue
			}
		}

		n, clientAddr, err := rpc.ReadDatagram(s.udpConn, buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-s.shutdown:
				return
			default:
				continue
			}
		}

		msgBuf := make([]byte, n)
		copy(msgBuf, buf[:n])

		replyBody := s.processMessage(msgBuf, clientAddr.String())
		if replyBody == nil {
			continue
		}
		if err := rpc.WriteDatagram(s.udpConn, replyBody, clientAddr); err != nil {
			logger.Debug("portmap: write udp reply failed", logger.KeyClientAddr, clientAddr.String(), logger.KeyError, err)
		}
	}
}

// processMessage parses an RPC call and dispatches it, returning the
// unframed reply body, or nil if nothing should be sent back. Each
// call gets its own LogContext — a portmap request is one-shot, not a
// multi-call session like a VXI-11 connection.
func (s *Server) processMessage(data []byte, clientAddr string) []byte {
	start := time.Now()
	lc := &logger.LogContext{ClientAddr: clientAddr}
	ctx := logger.WithContext(context.Background(), lc)

	call, err := rpc.DecodeCall(data)
	if err != nil {
		logger.DebugCtx(ctx, "portmap: decode call failed", logger.KeyError, err)
		return nil
	}

	if call.Program != Program {
		s.recordCall("UNKNOWN", start, "PROG_UNAVAIL")
		return rpc.EncodeAcceptedReply(call.XID, rpc.ProgUnavail, nil)
	}
	if call.Version != Version2 && call.Version != Version3 && call.Version != Version4 {
		s.recordCall("UNKNOWN", start, "PROG_MISMATCH")
		return rpc.EncodeProgMismatchReply(call.XID, Version2, Version4)
	}

	proc, ok := DispatchTable[call.Procedure]
	if !ok {
		s.recordCall("UNKNOWN", start, "PROC_UNAVAIL")
		return rpc.EncodeAcceptedReply(call.XID, rpc.ProcUnavail, nil)
	}
	ctx = logger.WithContext(ctx, lc.WithProcedure(proc.Name))

	logger.DebugCtx(ctx, "portmap rpc")

	result, err := proc.Handler(s.config.Resolver, call.Args)
	if err != nil {
		logger.DebugCtx(ctx, "portmap: handler error", logger.KeyError, err)
		s.recordCall(proc.Name, start, "SYSTEM_ERR")
		return rpc.EncodeAcceptedReply(call.XID, rpc.SystemErr, nil)
	}
	s.recordCall(proc.Name, start, "SUCCESS")
	return rpc.EncodeAcceptedReply(call.XID, rpc.Success, result.Data)
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
		if s.tcpListener != nil {
			_ = s.tcpListener.Close()
		}
		if s.udpConn != nil {
			_ = s.udpConn.Close()
		}
	})
}

// Addr returns the TCP listener's address, for tests.
func (s *Server) Addr() string {
	if s.tcpListener != nil {
		return s.tcpListener.Addr().String()
	}
	return ""
}

// UDPAddr returns the UDP listener's address, for tests.
func (s *Server) UDPAddr() string {
	if s.udpConn != nil {
		return s.udpConn.LocalAddr().String()
	}
	return ""
}
