package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Overlay holds the tuning knobs of the overlay core. None of them are
// correctness constraints; defaults match the reference deployment.
type Overlay struct {
	// PollIntervalMS is the delay between job status checks.
	PollIntervalMS int `yaml:"poll_interval_ms" validate:"gt=0"`
	// PollTimeoutMS is the total budget for one transcription job.
	PollTimeoutMS int `yaml:"poll_timeout_ms" validate:"gt=0"`
	// ScanDebounceMS is the quiet period after the last host mutation
	// before a re-scan runs.
	ScanDebounceMS int `yaml:"scan_debounce_ms" validate:"gt=0"`
	// ListenAddr is the bridge server bind address.
	ListenAddr string `yaml:"listen_addr" validate:"required"`
}

// DefaultOverlay returns the built-in configuration.
func DefaultOverlay() Overlay {
	return Overlay{
		PollIntervalMS: 2000,
		PollTimeoutMS:  120000,
		ScanDebounceMS: 400,
		ListenAddr:     ":8787",
	}
}

// LoadOverlay reads the overlay configuration from path, falling back to
// defaults when the file does not exist. Partial files override defaults
// field by field.
func LoadOverlay(path string) (Overlay, error) {
	cfg := DefaultOverlay()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid overlay configuration: %w", err)
	}
	return cfg, nil
}

// PollInterval returns the poll interval as a duration.
func (o Overlay) PollInterval() time.Duration {
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

// PollTimeout returns the poll budget as a duration.
func (o Overlay) PollTimeout() time.Duration {
	return time.Duration(o.PollTimeoutMS) * time.Millisecond
}

// ScanDebounce returns the scan quiet period as a duration.
func (o Overlay) ScanDebounce() time.Duration {
	return time.Duration(o.ScanDebounceMS) * time.Millisecond
}
