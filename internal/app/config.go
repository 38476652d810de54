package app

// Config holds the command line configuration.
type Config struct {
	SampleRate   string // input rate in MHz, required
	OutputRate   string // output/upsample rate in MHz, defaulted from the input
	DeviceConfig string // INI file selecting a native capture backend
	TapsFile     string // custom FIR taps for the IQ filter
	IQFilter     bool   // enable the IQ FIR filter with built-in taps
	RawOutput    bool   // 24-byte binary frames instead of MLAT text
	LogDir       string // directory for the rotated frame log, empty disables
	LogRotateUTC bool
	MetricsPort  int // Prometheus exposition port, 0 disables
	Verbose      bool
	ShowVersion  bool
}
