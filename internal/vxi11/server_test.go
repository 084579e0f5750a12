package vxi11

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bstrobel/sds1004x-bode/internal/xdr"
)

// recordingBinder captures every SetMapping call so tests can assert
// the port the Portmap resolver would have advertised at each step.
type recordingBinder struct {
	mu    sync.Mutex
	ports []uint32
}

func (b *recordingBinder) SetMapping(program, version, protocol, port uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ports = append(b.ports, port)
}

func (b *recordingBinder) last() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ports) == 0 {
		return 0
	}
	return b.ports[len(b.ports)-1]
}

func buildVXI11Call(xid, proc uint32, args []byte) []byte {
	header := make([]byte, 40)
	binary.BigEndian.PutUint32(header[0:4], xid)
	binary.BigEndian.PutUint32(header[4:8], 0) // CALL
	binary.BigEndian.PutUint32(header[8:12], 2)
	binary.BigEndian.PutUint32(header[12:16], Program)
	binary.BigEndian.PutUint32(header[16:20], Version1)
	binary.BigEndian.PutUint32(header[20:24], proc)
	binary.BigEndian.PutUint32(header[24:28], 0)
	binary.BigEndian.PutUint32(header[28:32], 0)
	binary.BigEndian.PutUint32(header[32:36], 0)
	binary.BigEndian.PutUint32(header[36:40], 0)
	return append(header, args...)
}

func sendFramedCall(t *testing.T, conn net.Conn, call []byte) []byte {
	t.Helper()
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, 0x80000000|uint32(len(call)))
	_, err := conn.Write(header)
	require.NoError(t, err)
	_, err = conn.Write(call)
	require.NoError(t, err)

	var replyHeader [4]byte
	_, err = readFullTest(conn, replyHeader[:])
	require.NoError(t, err)
	replyLen := binary.BigEndian.Uint32(replyHeader[:]) & 0x7FFFFFFF
	reply := make([]byte, replyLen)
	_, err = readFullTest(conn, reply)
	require.NoError(t, err)
	return reply
}

func readFullTest(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestServer_PortAdvertisementMatchesBoundPort(t *testing.T) {
	binder := &recordingBinder{}
	rotation := NewPortRotation([2]int{19009, 19010})
	srv := NewServer(ServerConfig{Rotation: rotation, Processor: &fakeProcessor{}, Binder: binder})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	require.Eventually(t, func() bool { return srv.Addr() != "" }, time.Second, 5*time.Millisecond)
	require.Equal(t, uint32(19009), binder.last())

	runOneSession(t, srv.Addr())

	require.Eventually(t, func() bool { return binder.last() == 19010 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 19010, rotation.Current())
}

func TestServer_PortRotationAlternatesAcrossSessions(t *testing.T) {
	binder := &recordingBinder{}
	rotation := NewPortRotation([2]int{19109, 19110})
	srv := NewServer(ServerConfig{Rotation: rotation, Processor: &fakeProcessor{}, Binder: binder})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	require.Eventually(t, func() bool { return srv.Addr() != "" }, time.Second, 5*time.Millisecond)

	seen := []int{rotation.Current()}
	for i := 0; i < 3; i++ {
		runOneSession(t, srv.Addr())
		require.Eventually(t, func() bool { return srv.Addr() != "" }, time.Second, 5*time.Millisecond)
		seen = append(seen, rotation.Current())
	}
	for i := 1; i < len(seen); i++ {
		require.NotEqual(t, seen[i-1], seen[i])
	}
}

// runOneSession drives a full CREATE_LINK -> DEVICE_WRITE -> DEVICE_READ
// -> DESTROY_LINK session against addr, the same shape as scenario S2.
func runOneSession(t *testing.T, addr string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	var createArgs bytes.Buffer
	xdr.PutInt32(&createArgs, 1)
	xdr.PutBool(&createArgs, false)
	xdr.PutUint32(&createArgs, 5000)
	xdr.PutString(&createArgs, "inst0")
	createReply := sendFramedCall(t, conn, buildVXI11Call(1, ProcCreateLink, createArgs.Bytes()))

	d := xdr.NewDecoder(createReply)
	acceptStat := skipReplyHeader(d)
	require.Equal(t, uint32(0), acceptStat)
	_, _ = d.Int32() // device error
	linkID, err := d.Uint32()
	require.NoError(t, err)

	var writeArgs bytes.Buffer
	xdr.PutUint32(&writeArgs, linkID)
	xdr.PutUint32(&writeArgs, 0)
	xdr.PutUint32(&writeArgs, 0)
	xdr.PutUint32(&writeArgs, 0)
	xdr.PutOpaque(&writeArgs, []byte("IDN-SGLT-PRI?"))
	sendFramedCall(t, conn, buildVXI11Call(2, ProcDeviceWrite, writeArgs.Bytes()))

	var readArgs bytes.Buffer
	xdr.PutUint32(&readArgs, linkID)
	xdr.PutUint32(&readArgs, 256)
	xdr.PutUint32(&readArgs, 0)
	xdr.PutUint32(&readArgs, 0)
	xdr.PutUint32(&readArgs, 0)
	xdr.PutUint32(&readArgs, 0)
	sendFramedCall(t, conn, buildVXI11Call(3, ProcDeviceRead, readArgs.Bytes()))

	var destroyArgs bytes.Buffer
	xdr.PutUint32(&destroyArgs, linkID)
	sendFramedCall(t, conn, buildVXI11Call(4, ProcDestroyLink, destroyArgs.Bytes()))
}

// skipReplyHeader decodes the leading xid+msgtype+replystat+verf fields
// of an RPC reply and returns the accept_stat.
func skipReplyHeader(d *xdr.Decoder) uint32 {
	_, _ = d.Uint32() // xid
	_, _ = d.Uint32() // msg type
	_, _ = d.Uint32() // reply stat
	_, _ = d.Uint32() // verf flavor
	_, _ = d.Uint32() // verf len
	acceptStat, _ := d.Uint32()
	return acceptStat
}
