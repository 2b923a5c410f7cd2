// Package config loads the service settings from an optional YAML file,
// applying named defaults for anything the file omits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is everything tunable about the storefront core.
type Settings struct {
	// Listen is the HTTP bind address.
	Listen string `yaml:"listen"`

	Store StoreSettings `yaml:"store"`

	// MinOrder is the smallest subtotal accepted at checkout.
	MinOrder int `yaml:"min_order"`
	// DeliveryFee is the flat fee charged below FreeDeliveryMin.
	DeliveryFee int `yaml:"delivery_fee"`
	// FreeDeliveryMin is the single canonical subtotal at or above which
	// delivery is free.
	FreeDeliveryMin int `yaml:"free_delivery_min"`
}

// StoreSettings selects and locates the persistence driver.
type StoreSettings struct {
	// Driver is one of "memory", "file", "sqlite".
	Driver string `yaml:"driver"`
	// Path is the file location for the file and sqlite drivers.
	Path string `yaml:"path"`
}

// Default returns the settings used when no file overrides them.
func Default() Settings {
	return Settings{
		Listen: ":8080",
		Store: StoreSettings{
			Driver: "file",
			Path:   "efresh-store.json",
		},
		MinOrder:        99,
		DeliveryFee:     40,
		FreeDeliveryMin: 300,
	}
}

// Load reads settings from path over the defaults. A missing file is not an
// error; the defaults are returned as-is.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return s, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) validate() error {
	switch s.Store.Driver {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", s.Store.Driver)
	}
	if s.MinOrder < 0 || s.DeliveryFee < 0 || s.FreeDeliveryMin < 0 {
		return errors.New("thresholds must not be negative")
	}
	return nil
}
