package device

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfig reads a device INI file holding one [airspy] or [rtlsdr]
// section of key=value pairs.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read device config %s: %w", path, err)
	}

	for _, section := range []string{"airspy", "rtlsdr"} {
		if v.IsSet(section) {
			return Config{
				Type:     section,
				Settings: v.GetStringMapString(section),
			}, nil
		}
	}
	return Config{}, fmt.Errorf("device config %s has no [airspy] or [rtlsdr] section", path)
}
