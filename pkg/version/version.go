package version

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultFile = "version.yaml"

// Info mirrors version.yaml, written at build time and served by __version__.
type Info struct {
	Commit  string `yaml:"commit" json:"commit"`
	Source  string `yaml:"source" json:"source"`
	Version string `yaml:"version" json:"version"`
}

func Read(path string) (*Info, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read version file: %w", err)
	}
	var info Info
	if err := yaml.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to parse version file: %w", err)
	}
	return &info, nil
}

func Write(path string, info *Info) error {
	raw, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal version info: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}
	return nil
}
