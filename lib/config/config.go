// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/quietmic/lib/atomicfile"
)

// EnvironmentVariable names the settings file when set.
const EnvironmentVariable = "QUIETMIC_CONFIG"

// Attenuation bounds, in dB.
const (
	MinAttenuation = 0.0
	MaxAttenuation = 100.0
)

// ErrOutOfRange is returned for an attenuation outside
// [MinAttenuation, MaxAttenuation].
var ErrOutOfRange = errors.New("attenuation out of range")

// Settings is everything quietmic needs to render the filter chain and
// drive the audio service.
type Settings struct {
	// Attenuation is the DeepFilterNet attenuation limit in dB. 100
	// suppresses as much noise as the model can; lower values leave
	// some background in exchange for fewer artifacts.
	Attenuation float64 `yaml:"attenuation" json:"attenuation"`

	// ConfigPath is where the filter-chain drop-in is written. It must
	// be inside a directory PipeWire reads at startup.
	ConfigPath string `yaml:"config_path" json:"config_path"`

	// PluginPath is the DeepFilterNet LADSPA plugin.
	PluginPath string `yaml:"plugin_path" json:"plugin_path"`

	// JournalPath records the device being replayed across a service
	// restart, so an interrupted apply can be recovered.
	JournalPath string `yaml:"journal_path" json:"journal_path"`

	// ServiceUnits are restarted to reload the filter chain.
	ServiceUnits []string `yaml:"service_units" json:"service_units"`

	// SettleTimeout caps the wait for the audio service after a
	// restart (Go duration syntax).
	SettleTimeout string `yaml:"settle_timeout" json:"settle_timeout"`

	// CommandTimeout bounds each pactl invocation (Go duration syntax).
	CommandTimeout string `yaml:"command_timeout" json:"command_timeout"`
}

// Default returns the settings used when no file overrides them.
func Default() *Settings {
	return &Settings{
		Attenuation:    100.0,
		ConfigPath:     "${HOME}/.config/pipewire/pipewire.conf.d/99-deepfilter.conf",
		PluginPath:     "${HOME}/.ladspa/libdeep_filter_ladspa.so",
		JournalPath:    "${XDG_STATE_HOME:-${HOME}/.local/state}/quietmic/apply.json",
		ServiceUnits:   []string{"pipewire", "pipewire-pulse", "wireplumber"},
		SettleTimeout:  "3s",
		CommandTimeout: "10s",
	}
}

// DefaultPath returns ~/.config/quietmic/settings.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quietmic", "settings.yaml")
}

// Load resolves the settings file and loads it. An explicit path (the
// --config flag) wins over QUIETMIC_CONFIG; both must name an existing
// file. Without either, the default path is read if it exists and
// Default() is used otherwise. The returned path is where Save should
// write.
func Load(explicitPath string) (*Settings, string, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path != "" {
		settings, err := LoadFile(path)
		return settings, path, err
	}

	path = DefaultPath()
	settings, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		settings = Default()
		settings.expandVariables()
		return settings, path, nil
	}
	return settings, path, err
}

// LoadFile reads settings from path on top of Default(), expands path
// variables and rounds the attenuation to 0.1 dB.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	settings := Default()
	if isJSON(path) {
		err = json.Unmarshal(jsonc.ToJSON(data), settings)
	} else {
		err = yaml.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	settings.expandVariables()
	settings.Attenuation = roundAttenuation(settings.Attenuation)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// Save writes settings to path atomically, creating the parent
// directory if needed.
func (s *Settings) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(s, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// SetAttenuation validates value and stores it rounded to 0.1 dB.
func (s *Settings) SetAttenuation(value float64) error {
	if err := checkAttenuation(value); err != nil {
		return err
	}
	s.Attenuation = roundAttenuation(value)
	return nil
}

// roundAttenuation rounds to the 0.1 dB the filter chain is written with.
func roundAttenuation(value float64) float64 {
	return math.Round(value*10) / 10
}

// SettleDuration parses SettleTimeout. Zero means the caller's default.
func (s *Settings) SettleDuration() time.Duration {
	return parseDuration(s.SettleTimeout)
}

// CommandDuration parses CommandTimeout. Zero means the caller's
// default.
func (s *Settings) CommandDuration() time.Duration {
	return parseDuration(s.CommandTimeout)
}

// Validate checks every field and reports all problems at once.
func (s *Settings) Validate() error {
	var errs []error
	if err := checkAttenuation(s.Attenuation); err != nil {
		errs = append(errs, err)
	}
	if s.ConfigPath == "" {
		errs = append(errs, errors.New("config_path is required"))
	}
	if s.PluginPath == "" {
		errs = append(errs, errors.New("plugin_path is required"))
	}
	if len(s.ServiceUnits) == 0 {
		errs = append(errs, errors.New("service_units must name at least one unit"))
	}
	for field, value := range map[string]string{
		"settle_timeout":  s.SettleTimeout,
		"command_timeout": s.CommandTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	return errors.Join(errs...)
}

func checkAttenuation(value float64) error {
	if math.IsNaN(value) || value < MinAttenuation || value > MaxAttenuation {
		return fmt.Errorf("%w: %v dB (want %v-%v)", ErrOutOfRange, value, MinAttenuation, MaxAttenuation)
	}
	return nil
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return duration
}

func isJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	}
	return false
}

func (s *Settings) expandVariables() {
	s.ConfigPath = expandPath(s.ConfigPath)
	s.PluginPath = expandPath(s.PluginPath)
	s.JournalPath = expandPath(s.JournalPath)
}

// varPattern matches ${VAR} and ${VAR:-default}. The default may itself
// contain one level of ${VAR}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-((?:[^{}]|\$\{[^}]*\})*))?\}`)

func expandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		path = "${HOME}/" + rest
	}
	return varPattern.ReplaceAllStringFunc(path, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if parts[2] != "" {
			return expandPath(parts[2])
		}
		return ""
	})
}
