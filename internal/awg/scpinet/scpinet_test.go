package scpinet

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
)

func startEchoListener(t *testing.T) (addr string, received chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	received = make(chan string, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			received <- scanner.Text()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String(), received
}

func TestDriver_ConnectSendsOverTCP(t *testing.T) {
	addr, received := startEchoListener(t)
	d := New(addr)
	require.NoError(t, d.Connect())
	defer d.Disconnect()

	require.NoError(t, d.SetFrequency(1, 15000))

	select {
	case line := <-received:
		require.Equal(t, "C1:BSWV FRQ,15000", line)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
	}
}

func TestDriver_SendBeforeConnectIsDriverError(t *testing.T) {
	d := New("127.0.0.1:1")
	err := d.SetFrequency(1, 10)
	require.Error(t, err)
	var driverErr *awg.DriverError
	require.ErrorAs(t, err, &driverErr)
}

func TestDriver_DisconnectBeforeConnectIsNoop(t *testing.T) {
	d := New("127.0.0.1:1")
	require.NoError(t, d.Disconnect())
}

func TestDriver_CommandFormatting(t *testing.T) {
	addr, received := startEchoListener(t)
	d := New(addr)
	require.NoError(t, d.Connect())
	defer d.Disconnect()

	require.NoError(t, d.SetOutputOn(2, true))
	require.NoError(t, d.SetWaveformType(2, awg.WaveSquare))
	require.NoError(t, d.SetOutputLoad(2, awg.Load50Ohm))

	want := []string{"C2:OUTP ON", "C2:BSWV WVTP,SQUARE", "C2:OUTP LOAD,50"}
	for _, w := range want {
		select {
		case line := <-received:
			require.Equal(t, w, line)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}
