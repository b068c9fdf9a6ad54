package config

import (
	"testing"

	"github.com/spf13/afero"
)

func TestDefaults(t *testing.T) {
	c, err := Load("nsogc", nil, afero.NewMemMapFs())
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Listen:    ":8080",
		Settings:  "nso_gc_settings.json",
		Adapter:   "hci0",
		Source:    "ble",
		Pad:       "uinput",
		LogLevel:  "info",
		MQTTTopic: "nsogc/state",
		SimHz:     60,
	}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}
}

func TestFlagsAndEnv(t *testing.T) {
	t.Setenv("NSOGC_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("NSOGC_PAD", "log")

	c, err := Load("nsogc", []string{"--source", "sim", "--emulate", "--pad", "uinput"}, afero.NewMemMapFs())
	if err != nil {
		t.Fatal(err)
	}
	if c.Source != "sim" || !c.Emulate {
		t.Fatalf("flags not applied: %+v", c)
	}
	// an explicit flag wins over the environment
	if c.Pad != "uinput" {
		t.Fatalf("pad = %q", c.Pad)
	}
	if c.MQTTBroker != "tcp://broker:1883" {
		t.Fatalf("env not applied: %q", c.MQTTBroker)
	}
}

func TestConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/etc/nsogc.yaml", []byte("listen: \":9090\"\nsim-hz: 30\n"), 0o644)

	c, err := Load("nsogc", []string{"--config", "/etc/nsogc.yaml"}, fs)
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen != ":9090" || c.SimHz != 30 {
		t.Fatalf("file not applied: %+v", c)
	}
}

func TestInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"--source", "usb"},
		{"--pad", "vjoy"},
		{"--sim-hz", "0"},
		{"--no-such-flag"},
	} {
		if _, err := Load("nsogc", args, afero.NewMemMapFs()); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
