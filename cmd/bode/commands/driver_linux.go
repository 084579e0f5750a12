//go:build linux

package commands

import (
	"github.com/bstrobel/sds1004x-bode/internal/awg"
	"github.com/bstrobel/sds1004x-bode/internal/awg/serial"
)

func init() {
	newSerialDriver = func(path string, baudRate int) (awg.Driver, error) {
		return serial.New(path, baudRate), nil
	}
}
