// Package scpinet implements awg.Driver for VISA-style instruments
// reachable over raw TCP (the dg800/utg1000x class named in the CLI
// driver list) — a newline-terminated SCPI command per call, framed
// by nothing more than a TCP stream. No library in the example corpus
// targets generic raw-TCP SCPI transport, so this is built directly
// on net.Conn (see DESIGN.md for the justification).
package scpinet

import (
	"fmt"
	"net"
	"time"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
)

// Driver sends SCPI command lines to addr over a plain TCP socket.
type Driver struct {
	addr string
	conn net.Conn
}

// New returns a Driver targeting addr (host:port).
func New(addr string) *Driver {
	return &Driver{addr: addr}
}

func (d *Driver) Connect() error {
	conn, err := net.DialTimeout("tcp", d.addr, 3*time.Second)
	if err != nil {
		return &awg.DriverError{Op: "connect", Err: err}
	}
	d.conn = conn
	return nil
}

func (d *Driver) Disconnect() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	if err != nil {
		return &awg.DriverError{Op: "disconnect", Err: err}
	}
	return nil
}

func (d *Driver) send(command string) error {
	if d.conn == nil {
		return &awg.DriverError{Op: "send", Err: fmt.Errorf("not connected")}
	}
	if err := d.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return &awg.DriverError{Op: "send", Err: err}
	}
	if _, err := d.conn.Write([]byte(command + "\n")); err != nil {
		return &awg.DriverError{Op: "send", Err: err}
	}
	return nil
}

func (d *Driver) InitializeChannel(channel int) error {
	return d.send(fmt.Sprintf("C%d:OUTP OFF", channel))
}

func (d *Driver) SetOutputLoad(channel int, load awg.OutputLoad) error {
	return d.send(fmt.Sprintf("C%d:OUTP LOAD,%s", channel, load.String()))
}

func (d *Driver) SetOutputOn(channel int, enabled bool) error {
	state := "OFF"
	if enabled {
		state = "ON"
	}
	return d.send(fmt.Sprintf("C%d:OUTP %s", channel, state))
}

func (d *Driver) SetWaveformType(channel int, waveform awg.WaveformType) error {
	return d.send(fmt.Sprintf("C%d:BSWV WVTP,%s", channel, waveform.String()))
}

func (d *Driver) SetFrequency(channel int, hz float64) error {
	return d.send(fmt.Sprintf("C%d:BSWV FRQ,%g", channel, hz))
}

func (d *Driver) SetAmplitude(channel int, vpp float64) error {
	return d.send(fmt.Sprintf("C%d:BSWV AMP,%g", channel, vpp))
}

func (d *Driver) SetOffset(channel int, volts float64) error {
	return d.send(fmt.Sprintf("C%d:BSWV OFST,%g", channel, volts))
}

func (d *Driver) SetPhase(channel int, degrees float64) error {
	return d.send(fmt.Sprintf("C%d:BSWV PHSE,%g", channel, degrees))
}

var _ awg.Driver = (*Driver)(nil)
