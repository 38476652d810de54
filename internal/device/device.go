// Package device provides the capture backends that feed raw samples into
// the ring buffer: a native RTL-SDR reader and an airspy_rx subprocess.
// Which backend runs is decided by the device configuration file; without
// one the application reads samples from stdin and no backend is used.
package device

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"stream1090/internal/dsp"
	"stream1090/internal/ring"
)

// Settings holds the key=value pairs of a device section.
type Settings map[string]string

// Config identifies a capture backend and its settings.
type Config struct {
	Type     string // "rtlsdr" or "airspy"
	Settings Settings
}

// Device is a capture backend. Open claims the hardware; Start streams raw
// sample bytes into the writer until the context is cancelled or the
// source dries up.
type Device interface {
	Open() error
	Start(ctx context.Context, w *ring.Writer[byte]) error
	Close() error
}

// New creates the backend named by cfg.Type.
func New(cfg Config, sampleRate dsp.Rate, logger *logrus.Logger) (Device, error) {
	switch cfg.Type {
	case "rtlsdr":
		return newRTLSDR(cfg.Settings, sampleRate, logger)
	case "airspy":
		return newAirspyExec(cfg.Settings, sampleRate, logger), nil
	default:
		return nil, fmt.Errorf("unknown device type %q", cfg.Type)
	}
}
