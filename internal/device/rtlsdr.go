//go:build cgo

package device

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	rtl "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"

	"stream1090/internal/dsp"
	"stream1090/internal/ring"
)

const defaultFrequency = 1090000000

// rtlsdrDevice captures from an RTL2832 dongle through librtlsdr's async
// read path. The async callback only hands buffers to the ring writer; all
// back-pressure happens there.
type rtlsdrDevice struct {
	settings   Settings
	sampleRate dsp.Rate
	logger     *logrus.Logger
	dev        *rtl.Context
}

func newRTLSDR(settings Settings, sampleRate dsp.Rate, logger *logrus.Logger) (Device, error) {
	if rtl.GetDeviceCount() == 0 {
		return nil, errors.New("no RTL-SDR devices found")
	}
	return &rtlsdrDevice{
		settings:   settings,
		sampleRate: sampleRate,
		logger:     logger,
	}, nil
}

// openDevice opens device 0, or scans for the dongle carrying the
// configured serial.
func (d *rtlsdrDevice) openDevice() (*rtl.Context, error) {
	serial, haveSerial := d.settings["serial"]
	if !haveSerial || serial == "" {
		return rtl.Open(0)
	}

	count := rtl.GetDeviceCount()
	for i := 0; i < count; i++ {
		dev, err := rtl.Open(i)
		if err != nil {
			continue
		}
		info, err := dev.GetHwInfo()
		if err == nil && strings.Trim(info.Serial, "\x00") == serial {
			return dev, nil
		}
		dev.Close()
	}
	return nil, fmt.Errorf("no RTL-SDR with serial %q", serial)
}

func (d *rtlsdrDevice) Open() error {
	dev, err := d.openDevice()
	if err != nil {
		return fmt.Errorf("open RTL-SDR device: %w", err)
	}
	d.dev = dev

	if err := dev.SetSampleRate(int(d.sampleRate)); err != nil {
		return fmt.Errorf("set sample rate: %w", err)
	}

	frequency := defaultFrequency
	if f, ok := d.intSetting("frequency"); ok {
		frequency = f
	}
	if err := dev.SetCenterFreq(frequency); err != nil {
		return fmt.Errorf("set frequency: %w", err)
	}

	d.applySettings()

	if err := dev.ResetBuffer(); err != nil {
		return fmt.Errorf("reset buffer: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"frequency":   frequency,
		"sample_rate": int(d.sampleRate),
	}).Info("RTL-SDR device configured")
	return nil
}

// applySettings pushes the remaining tuner settings; a key the tuner
// rejects is logged and skipped.
func (d *rtlsdrDevice) applySettings() {
	for key, value := range d.settings {
		var err error
		switch key {
		case "frequency", "serial":
			continue
		case "gain":
			if gain, ok := d.intSetting("gain"); ok {
				if gain == 0 {
					err = d.dev.SetTunerGainMode(false)
				} else if err = d.dev.SetTunerGainMode(true); err == nil {
					err = d.dev.SetTunerGain(gain * 10)
				}
			}
		case "agc":
			err = d.dev.SetAgcMode(value == "1" || value == "true")
		case "ppm":
			if ppm, ok := d.intSetting("ppm"); ok {
				err = d.dev.SetFreqCorrection(ppm)
			}
		default:
			d.logger.WithField("key", key).Debug("Ignoring device setting")
			continue
		}
		if err != nil {
			d.logger.WithError(err).WithField("key", key).Warn("Device setting failed")
		}
	}
}

func (d *rtlsdrDevice) intSetting(key string) (int, bool) {
	raw, ok := d.settings[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		d.logger.WithField(key, raw).Warn("Ignoring malformed device setting")
		return 0, false
	}
	return v, true
}

func (d *rtlsdrDevice) Start(ctx context.Context, w *ring.Writer[byte]) error {
	if d.dev == nil {
		return errors.New("device not open")
	}

	done := make(chan error, 1)
	go func() {
		done <- d.dev.ReadAsync(func(buf []byte) {
			if ctx.Err() != nil {
				return
			}
			w.Write(buf)
		}, nil, 0, 16*16384)
	}()

	select {
	case <-ctx.Done():
		if err := d.dev.CancelAsync(); err != nil {
			d.logger.WithError(err).Warn("Failed to cancel async read")
		}
		<-done
		return nil
	case err := <-done:
		if err != nil {
			return fmt.Errorf("RTL-SDR async read: %w", err)
		}
		return nil
	}
}

func (d *rtlsdrDevice) Close() error {
	if d.dev == nil {
		return nil
	}
	err := d.dev.Close()
	d.dev = nil
	return err
}
