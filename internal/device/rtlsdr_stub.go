//go:build !cgo

package device

import (
	"errors"

	"github.com/sirupsen/logrus"

	"stream1090/internal/dsp"
)

func newRTLSDR(Settings, dsp.Rate, *logrus.Logger) (Device, error) {
	return nil, errors.New("RTL-SDR support requires a cgo build with librtlsdr installed")
}
