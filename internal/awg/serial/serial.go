//go:build linux

// Package serial implements awg.Driver for the serial-line generator
// family the CLI names jds6600/bk4075/fy6600/fy/ad9910 — cheap
// function generators that speak a newline-terminated ASCII command
// dialect over a raw tty, not SCPI. It is built on daedaluz/goserial
// for the termios plumbing (open, raw mode, baud rate) rather than
// hand-rolled syscalls, the same library the pack ships for exactly
// this purpose.
package serial

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	goserial "github.com/daedaluz/goserial"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
)

// Driver talks to a serial-attached generator over a newline-delimited
// ASCII command line: "<cmd> <args...>\n", one command per call. The
// exact vocabulary is vendor-specific; this driver emits the shared
// shape (wave/freq/amp/offset/phase/load/output setters) and leaves
// concrete dialect mapping to the command string itself, following
// the per-driver-quirk scoping §1/§6 of the bridge describe.
type Driver struct {
	path     string
	baudRate int
	port     *goserial.Port
	reader   *bufio.Reader
}

// New returns a Driver for the device at path, speaking at baudRate.
func New(path string, baudRate int) *Driver {
	return &Driver{path: path, baudRate: baudRate}
}

func (d *Driver) Connect() error {
	port, err := goserial.Open(d.path, nil)
	if err != nil {
		return &awg.DriverError{Op: "connect", Err: err}
	}
	if err := port.MakeRaw(); err != nil {
		_ = port.Close()
		return &awg.DriverError{Op: "connect: make raw", Err: err}
	}

	attrs, err := port.GetAttr()
	if err != nil {
		_ = port.Close()
		return &awg.DriverError{Op: "connect: get attr", Err: err}
	}
	speed, ok := baudToCFlag(d.baudRate)
	if !ok {
		_ = port.Close()
		return &awg.DriverError{Op: "connect", Err: fmt.Errorf("unsupported baud rate %d", d.baudRate)}
	}
	attrs.SetSpeed(speed)
	if err := port.SetAttr(goserial.TCSANOW, attrs); err != nil {
		_ = port.Close()
		return &awg.DriverError{Op: "connect: set attr", Err: err}
	}

	port.SetReadTimeout(500 * time.Millisecond)
	d.port = port
	d.reader = bufio.NewReader(port)
	return nil
}

func (d *Driver) Disconnect() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.reader = nil
	if err != nil {
		return &awg.DriverError{Op: "disconnect", Err: err}
	}
	return nil
}

func (d *Driver) send(line string) error {
	if d.port == nil {
		return &awg.DriverError{Op: "send", Err: fmt.Errorf("not connected")}
	}
	if _, err := d.port.Write([]byte(line + "\n")); err != nil {
		return &awg.DriverError{Op: "send", Err: err}
	}
	return nil
}

func (d *Driver) InitializeChannel(channel int) error {
	return d.send(fmt.Sprintf("c%d:init", channel))
}

func (d *Driver) SetOutputLoad(channel int, load awg.OutputLoad) error {
	return d.send(fmt.Sprintf("c%d:load %s", channel, load.String()))
}

func (d *Driver) SetOutputOn(channel int, enabled bool) error {
	state := "off"
	if enabled {
		state = "on"
	}
	return d.send(fmt.Sprintf("c%d:output %s", channel, state))
}

func (d *Driver) SetWaveformType(channel int, waveform awg.WaveformType) error {
	return d.send(fmt.Sprintf("c%d:wave %s", channel, strings.ToLower(waveform.String())))
}

func (d *Driver) SetFrequency(channel int, hz float64) error {
	return d.send(fmt.Sprintf("c%d:freq %f", channel, hz))
}

func (d *Driver) SetAmplitude(channel int, vpp float64) error {
	return d.send(fmt.Sprintf("c%d:amp %f", channel, vpp))
}

func (d *Driver) SetOffset(channel int, volts float64) error {
	return d.send(fmt.Sprintf("c%d:offset %f", channel, volts))
}

func (d *Driver) SetPhase(channel int, degrees float64) error {
	return d.send(fmt.Sprintf("c%d:phase %f", channel, degrees))
}

// baudToCFlag maps the rates the CLI supports (115200 default, 19200
// for bk4075 per §6) to the termios speed constant.
func baudToCFlag(baud int) (goserial.CFlag, bool) {
	switch baud {
	case 9600:
		return goserial.B9600, true
	case 19200:
		return goserial.B19200, true
	case 115200:
		return goserial.B115200, true
	default:
		return 0, false
	}
}

var _ awg.Driver = (*Driver)(nil)
