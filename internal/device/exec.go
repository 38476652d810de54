package device

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"stream1090/internal/dsp"
	"stream1090/internal/ring"
)

// airspyExec captures by running airspy_rx and piping its raw output into
// the ring buffer. The airspy delivers raw samples at twice the IQ rate.
type airspyExec struct {
	settings   Settings
	sampleRate dsp.Rate
	logger     *logrus.Logger
	cmd        *exec.Cmd
}

func newAirspyExec(settings Settings, sampleRate dsp.Rate, logger *logrus.Logger) Device {
	return &airspyExec{
		settings:   settings,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

func (d *airspyExec) args() []string {
	frequency := "1090.000"
	if f, ok := d.settings["frequency"]; ok && f != "" {
		frequency = f
	}

	args := []string{
		"-t", "4", // raw samples
		"-f", frequency,
		"-a", fmt.Sprintf("%d", 2*int(d.sampleRate)),
		"-r", "-",
	}
	flagNames := map[string]string{
		"gain":       "-g",
		"lna_gain":   "-l",
		"mixer_gain": "-m",
		"vga_gain":   "-v",
		"agc":        "-h",
		"bias_tee":   "-b",
		"serial":     "-s",
	}
	for key, flag := range flagNames {
		if v, ok := d.settings[key]; ok && v != "" {
			args = append(args, flag, v)
		}
	}
	return args
}

func (d *airspyExec) Open() error {
	path, err := exec.LookPath("airspy_rx")
	if err != nil {
		return fmt.Errorf("airspy_rx not found in PATH: %w", err)
	}
	d.logger.WithField("path", path).Info("Using airspy_rx capture process")
	return nil
}

func (d *airspyExec) Start(ctx context.Context, w *ring.Writer[byte]) error {
	d.cmd = exec.CommandContext(ctx, "airspy_rx", d.args()...)
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("airspy_rx stdout: %w", err)
	}
	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start airspy_rx: %w", err)
	}
	d.logger.WithField("args", d.args()).Debug("airspy_rx started")

	buf := make([]byte, 16*16384)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	if err := d.cmd.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("airspy_rx exited: %w", err)
	}
	return nil
}

func (d *airspyExec) Close() error {
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	return nil
}
