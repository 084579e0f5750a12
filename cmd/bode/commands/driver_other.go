//go:build !linux

package commands

import (
	"fmt"
	"runtime"

	"github.com/bstrobel/sds1004x-bode/internal/awg"
)

func init() {
	newSerialDriver = func(path string, baudRate int) (awg.Driver, error) {
		return nil, fmt.Errorf("serial drivers are only supported on linux (running on %s)", runtime.GOOS)
	}
}
