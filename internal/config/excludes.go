package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const excludesFileName = "excludes.yaml"

type excludesFile struct {
	Excludes []string `yaml:"excludes"`
}

// DefaultExcludes are entry names never worth descending into.
var DefaultExcludes = []string{"proc", "sys", ".snapshots", "lost+found"}

func ExcludesPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, excludesFileName), nil
}

// LoadExcludes reads the operator's exclude patterns, falling back to the
// defaults when no file exists. Patterns match entry names, not paths.
func LoadExcludes() ([]string, error) {
	path, err := ExcludesPath()
	if err != nil {
		return DefaultExcludes, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultExcludes, nil
		}
		return DefaultExcludes, err
	}
	var stored excludesFile
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return DefaultExcludes, err
	}
	if len(stored.Excludes) == 0 {
		return DefaultExcludes, nil
	}
	return stored.Excludes, nil
}
