package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stream1090/internal/app"
)

func main() {
	var config app.Config

	rootCmd := &cobra.Command{
		Use:   "stream1090",
		Short: "Real-time Mode S / ADS-B demodulator",
		Long: `stream1090 demodulates Mode S / ADS-B transmissions at 1090 MHz.

It consumes raw I/Q samples from stdin or a native capture device, runs a
polyphase shift-register demodulator with incremental CRC validation and
burst-error repair, filters frames against a per-aircraft trust model and
emits them as MLAT-timestamped hex lines.

Example usage:
  rtl_sdr -g 0 -f 1090000000 -s 2400000 - | stream1090 -s 2.4 -u 8
  stream1090 -s 2.4 -u 8 -d configs/rtlsdr.ini
  airspy_rx -t 4 -g 20 -f 1090.000 -a 12000000 -r - | stream1090 -s 6 -u 12 -q`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}
			if config.SampleRate == "" {
				return errors.New("input sample rate is required (-s)")
			}
			return app.NewApplication(config).Start()
		},
	}

	rootCmd.Flags().StringVarP(&config.SampleRate, "sample-rate", "s", "", "Input sample rate in MHz (required)")
	rootCmd.Flags().StringVarP(&config.OutputRate, "output-rate", "u", "", "Output/upsample rate in MHz (defaulted from input)")
	rootCmd.Flags().StringVarP(&config.DeviceConfig, "device-config", "d", "", "Device configuration INI file ([rtlsdr] or [airspy] section)")
	rootCmd.Flags().BoolVarP(&config.IQFilter, "iq-filter", "q", false, "Enable the IQ FIR filter with built-in taps")
	rootCmd.Flags().StringVarP(&config.TapsFile, "taps-file", "f", "", "Custom FIR taps file (one float per line, max 64)")
	rootCmd.Flags().BoolVar(&config.RawOutput, "raw", false, "Write 24-byte binary frames instead of MLAT text")
	rootCmd.Flags().StringVarP(&config.LogDir, "log-dir", "l", "", "Directory for the rotated frame log")
	rootCmd.Flags().BoolVar(&config.LogRotateUTC, "utc", true, "Rotate the frame log on UTC day boundaries")
	rootCmd.Flags().IntVar(&config.MetricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&config.ShowVersion, "version", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, app.ErrUnsupportedConfig) {
			os.Exit(255)
		}
		os.Exit(1)
	}
}
