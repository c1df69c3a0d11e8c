package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory.
const DefaultFile = ".vsmoke.yaml"

// Settings mirrors the CLI flags. Pointer fields distinguish unset from false.
type Settings struct {
	Path       string `yaml:"path,omitempty"`
	Dir        string `yaml:"dir,omitempty"`
	Keep       *bool  `yaml:"keep,omitempty"`
	TruthTable *bool  `yaml:"truth_table,omitempty"`
	Debug      *bool  `yaml:"debug,omitempty"`
	DebugFile  string `yaml:"debug_file,omitempty"`
}

// Load reads settings from path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &settings, nil
}

func (s *Settings) KeepOr(def bool) bool {
	if s.Keep == nil {
		return def
	}
	return *s.Keep
}

func (s *Settings) TruthTableOr(def bool) bool {
	if s.TruthTable == nil {
		return def
	}
	return *s.TruthTable
}

func (s *Settings) DebugOr(def bool) bool {
	if s.Debug == nil {
		return def
	}
	return *s.Debug
}
