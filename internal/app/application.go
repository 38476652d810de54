package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"stream1090/internal/adsb"
	"stream1090/internal/device"
	"stream1090/internal/dsp"
	"stream1090/internal/logging"
	"stream1090/internal/metrics"
	"stream1090/internal/output"
	"stream1090/internal/ring"
)

// ErrUnsupportedConfig marks a rate/format combination the demodulator
// cannot run; the CLI maps it to its own exit code.
var ErrUnsupportedConfig = errors.New("unsupported configuration")

const ringNumBlocks = 8

// Application wires the capture source, the sample stream and the
// demodulator core together and owns their lifecycle.
type Application struct {
	config Config
	logger *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownRequested atomic.Bool

	demod      *adsb.DemodCore
	frameOut   output.FlushingFrameWriter
	logRotator *logging.LogRotator
	collector  *metrics.Collector
}

// NewApplication creates an application instance from the CLI config.
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs the application until the input dries up or a signal asks for
// shutdown.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting stream1090")

	inputRate, err := dsp.ParseRate(app.config.SampleRate)
	if err != nil {
		return err
	}

	var outputRate dsp.Rate
	if app.config.OutputRate != "" {
		if outputRate, err = dsp.ParseRate(app.config.OutputRate); err != nil {
			return err
		}
	} else {
		def, ok := dsp.DefaultOutputRate(inputRate)
		if !ok {
			return fmt.Errorf("%w: no output rate for input %s", ErrUnsupportedConfig, inputRate)
		}
		outputRate = def
		app.logger.WithField("output_rate", outputRate.String()).Debug("Auto-selected output rate")
	}

	if err := dsp.ValidatePair(inputRate, outputRate); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedConfig, err)
	}

	format := dsp.FormatForRate(inputRate)
	app.logger.WithFields(logrus.Fields{
		"input_rate":  inputRate.String(),
		"output_rate": outputRate.String(),
		"num_streams": outputRate.NumStreams(),
		"raw_format":  format.String(),
	}).Info("Demodulator configured")

	pipeline, err := app.buildPipeline(inputRate)
	if err != nil {
		return err
	}
	converter := dsp.NewConverter(format, pipeline)

	if err := app.setupOutput(); err != nil {
		return err
	}

	app.demod = adsb.NewDemodCore(outputRate.NumStreams(), app.frameOut)
	stream := dsp.NewSampleStream(inputRate, outputRate, app.demod)

	app.installSignalHandlers()
	app.startMetrics()
	app.startStatsReporter()

	if app.config.DeviceConfig == "" {
		app.logger.Info("Reading samples from stdin")
		reader := dsp.NewStreamReader(os.Stdin, converter, stream.InputChunkSize(), app.shutdownRequested.Load)
		stream.Run(reader)
	} else {
		if err := app.runWithDevice(stream, converter, format, inputRate); err != nil {
			app.shutdown()
			return err
		}
	}

	app.shutdown()
	return nil
}

// buildPipeline assembles the optional IQ stage chain.
func (app *Application) buildPipeline(inputRate dsp.Rate) (*dsp.Pipeline, error) {
	switch {
	case app.config.TapsFile != "":
		taps, err := dsp.LoadTaps(app.config.TapsFile)
		if err != nil {
			return nil, err
		}
		app.logger.WithField("taps", len(taps)).Info("Loaded custom FIR taps")
		return dsp.NewPipeline(dsp.NewDCRemoval(0.005), dsp.NewFlipSigns(), dsp.NewIQLowPass(taps)), nil
	case app.config.IQFilter:
		return dsp.NewPipeline(dsp.NewDCRemoval(0.005), dsp.NewFlipSigns(), dsp.NewIQLowPass(dsp.BuiltinTaps(inputRate))), nil
	default:
		return dsp.NewPipeline(), nil
	}
}

// setupOutput builds the frame writer chain: stdout plus the rotated frame
// log when one is configured.
func (app *Application) setupOutput() error {
	var stdout output.FlushingFrameWriter
	if app.config.RawOutput {
		stdout = output.NewRawWriter(os.Stdout)
	} else {
		stdout = output.NewMlatWriter(os.Stdout)
	}

	if app.config.LogDir == "" {
		app.frameOut = stdout
		return nil
	}

	rotator, err := logging.NewLogRotator(app.config.LogDir, app.config.LogRotateUTC, app.logger)
	if err != nil {
		return err
	}
	app.logRotator = rotator
	app.frameOut = output.NewTee(stdout, output.NewMlatWriter(rotator))
	return nil
}

// runWithDevice runs the async producer/consumer pair: the capture backend
// writes into the ring buffer, the sample stream drains it.
func (app *Application) runWithDevice(stream *dsp.SampleStream, converter *dsp.Converter, format dsp.RawFormat, inputRate dsp.Rate) error {
	devConfig, err := device.LoadConfig(app.config.DeviceConfig)
	if err != nil {
		return err
	}

	dev, err := device.New(devConfig, inputRate, app.logger)
	if err != nil {
		return err
	}
	if err := dev.Open(); err != nil {
		return err
	}
	defer dev.Close()

	blockBytes := stream.InputChunkSize() * format.BytesPerSample()
	ringBuf := ring.New[byte](blockBytes, ringNumBlocks)
	writer := ring.NewWriter(ringBuf)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := dev.Start(app.ctx, writer); err != nil {
			app.logger.WithError(err).Error("Capture device failed")
		}
		writer.FinishLastBlock(0)
		writer.Shutdown()
	}()

	app.logger.WithField("device", devConfig.Type).Info("Capture device running")
	stream.Run(dsp.NewRingReader(ringBuf, converter, nil))
	return nil
}

// installSignalHandlers requests a graceful shutdown on SIGINT/SIGTERM.
func (app *Application) installSignalHandlers() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		select {
		case sig := <-sigChan:
			app.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
			app.shutdownRequested.Store(true)
			app.cancel()
		case <-app.ctx.Done():
		}
	}()
}

func (app *Application) startMetrics() {
	if app.config.MetricsPort <= 0 {
		return
	}
	app.collector = metrics.NewCollector()
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.collector.Serve(app.ctx, app.config.MetricsPort, app.logger); err != nil {
			app.logger.WithError(err).Error("Metrics server failed")
		}
	}()
}

// startStatsReporter logs demodulator statistics every 30 seconds and
// feeds them to the metrics collector.
func (app *Application) startStatsReporter() {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-app.ctx.Done():
				return
			case <-ticker.C:
				app.reportStats()
			}
		}
	}()
}

func (app *Application) reportStats() {
	s := app.demod.Stats().Snapshot()
	if app.collector != nil {
		app.collector.Update(s)
	}
	app.logger.WithFields(logrus.Fields{
		"signal_seconds": fmt.Sprintf("%.1f", s.ElapsedSeconds()),
		"frames_sent":    s.TotalSent(),
		"frames_dup":     s.TotalDups(),
		"df17_good":      s.DF17Good,
		"df17_repaired":  s.DF17RepairSuccess,
		"df11_good":      s.DF11GoodCRC,
		"df11_repaired":  s.DF11BitFix + s.DF11ParityFix,
		"acas_surv":      s.AcasSurvGood,
	}).Info("Demodulator statistics")
}

// shutdown stops the helper goroutines, flushes the output and writes a
// final statistics report.
func (app *Application) shutdown() {
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.frameOut != nil {
		if err := app.frameOut.Flush(); err != nil {
			app.logger.WithError(err).Error("Failed to flush output")
		}
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}
	if app.demod != nil {
		app.reportStats()
	}
	app.logger.Info("Shutdown completed")
}
