// Package config resolves command line flags, NSOGC_* environment variables
// and an optional config file into one Config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/nsogc-bridge/internal/settings"
	"github.com/soar/nsogc-bridge/internal/transport"
	"github.com/soar/nsogc-bridge/internal/vpad"
)

const EnvPrefix = "NSOGC"

type Config struct {
	Listen     string
	Settings   string
	Address    string
	Adapter    string
	Source     string
	Emulate    bool
	Pad        string
	LogLevel   string
	TUI        bool
	Tray       bool
	Scan       bool
	MQTTBroker string
	MQTTTopic  string
	SimHz      float64
}

func flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "optional config file (json, yaml or toml)")
	fs.String("listen", ":8080", "HTTP listen address for the live view")
	fs.String("settings", settings.DefaultPath, "calibration settings file")
	fs.String("address", "", "controller Bluetooth address (default: from settings)")
	fs.String("adapter", "hci0", "Bluetooth adapter id")
	fs.String("source", transport.KindBLE, "input source: ble or sim")
	fs.Bool("emulate", false, "start Xbox 360 emulation once connected")
	fs.String("pad", vpad.KindUinput, "virtual pad driver: uinput or log")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("tui", false, "run the terminal UI")
	fs.Bool("tray", false, "show a system tray icon")
	fs.Bool("scan", false, "list nearby Nintendo controllers and exit")
	fs.String("mqtt-broker", "", "publish state to this MQTT broker (tcp://host:1883)")
	fs.String("mqtt-topic", "nsogc/state", "MQTT topic for state updates")
	fs.Float64("sim-hz", 60, "packet rate of the simulated source")
	return fs
}

// Load parses args (without the program name). The file system is used for
// the optional config file.
func Load(name string, args []string, fsys afero.Fs) (Config, error) {
	fs := flags(name)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetFs(fsys)
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	c := Config{
		Listen:     v.GetString("listen"),
		Settings:   v.GetString("settings"),
		Address:    v.GetString("address"),
		Adapter:    v.GetString("adapter"),
		Source:     v.GetString("source"),
		Emulate:    v.GetBool("emulate"),
		Pad:        v.GetString("pad"),
		LogLevel:   v.GetString("log-level"),
		TUI:        v.GetBool("tui"),
		Tray:       v.GetBool("tray"),
		Scan:       v.GetBool("scan"),
		MQTTBroker: v.GetString("mqtt-broker"),
		MQTTTopic:  v.GetString("mqtt-topic"),
		SimHz:      v.GetFloat64("sim-hz"),
	}
	return c, c.validate()
}

func (c Config) validate() error {
	switch c.Source {
	case transport.KindBLE, transport.KindSim:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	switch c.Pad {
	case vpad.KindUinput, vpad.KindLog:
	default:
		return fmt.Errorf("unknown pad driver %q", c.Pad)
	}
	if c.SimHz <= 0 {
		return fmt.Errorf("sim-hz must be positive, got %v", c.SimHz)
	}
	return nil
}
