// Package settings persists the controller address and calibration record.
package settings

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/soar/nsogc-bridge/internal/calibration"
)

const (
	DefaultPath    = "nso_gc_settings.json"
	DefaultAddress = "3C:A9:AB:5F:70:B1"

	keyAddress     = "controller_address"
	keyCalibration = "calibration"
)

var (
	ErrNotFound  = errors.New("settings record not found")
	ErrMalformed = errors.New("malformed settings record")
)

// Record is the persisted state of one controller.
type Record struct {
	ControllerAddress string
	Calibration       calibration.Calibration
}

func Default() Record {
	return Record{
		ControllerAddress: DefaultAddress,
		Calibration:       calibration.Default(),
	}
}

// Store reads and writes a Record as a JSON file.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string { return s.path }

// WithPath returns a store for another file on the same file system.
func (s *Store) WithPath(path string) *Store {
	return NewStore(s.fs, path)
}

func (s *Store) viper() *viper.Viper {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	return v
}

// Load merges the stored record over base. Unknown keys are ignored and
// missing keys keep the value from base. A record whose calibration would
// not validate is rejected as a whole and base is returned with the error.
func (s *Store) Load(base Record) (Record, error) {
	ok, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return base, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if !ok {
		return base, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}

	v := s.viper()
	if err := v.ReadInConfig(); err != nil {
		return base, fmt.Errorf("%w: %s: %v", ErrMalformed, s.path, err)
	}

	out := base
	if v.IsSet(keyAddress) {
		addr, err := cast.ToStringE(v.Get(keyAddress))
		if err != nil {
			return base, fmt.Errorf("%w: %s: %v", ErrMalformed, keyAddress, err)
		}
		out.ControllerAddress = addr
	}

	if v.IsSet(keyCalibration) {
		raw, err := cast.ToStringMapE(v.Get(keyCalibration))
		if err != nil {
			return base, fmt.Errorf("%w: %s: %v", ErrMalformed, keyCalibration, err)
		}
		for name, value := range raw {
			f, known := calibration.FieldByName(name)
			if !known {
				continue
			}
			n, err := toNumber(value)
			if err != nil {
				return base, fmt.Errorf("%w: %s.%s: %v", ErrMalformed, keyCalibration, name, err)
			}
			out.Calibration.Set(f, n)
		}
		if err := out.Calibration.Validate(); err != nil {
			return base, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return out, nil
}

func toNumber(v any) (float64, error) {
	switch v.(type) {
	case bool, nil:
		return 0, fmt.Errorf("%v is not a number", v)
	}
	return cast.ToFloat64E(v)
}

// Save writes the whole record, creating parent directories as needed.
func (s *Store) Save(r Record) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	v := s.viper()
	v.Set(keyAddress, r.ControllerAddress)
	v.Set(keyCalibration, r.Calibration.Values())
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
