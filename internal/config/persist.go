package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"linkpurge/internal/domain"
)

const (
	configDirName  = "linkpurge"
	configFileName = "config.json"
)

func DefaultConfig() Config {
	return Config{
		Path:     ".",
		SafeMode: true,
		SortMode: domain.SortBySize,
	}
}

func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

func LoadConfig() (Config, error) {
	config := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return config, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}
	var stored fileConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return config, err
	}
	return mergeConfig(config, stored), nil
}

func SaveConfig(config Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeConfig(base Config, stored fileConfig) Config {
	merged := base
	if stored.Path != nil {
		merged.Path = *stored.Path
	}
	if stored.Xdev != nil {
		merged.Xdev = *stored.Xdev
	}
	if stored.Apparent != nil {
		merged.Apparent = *stored.Apparent
	}
	if stored.Verbose != nil {
		merged.Verbose = *stored.Verbose
	}
	if stored.LogFile != nil {
		merged.LogFile = *stored.LogFile
	}
	if stored.SafeMode != nil {
		merged.SafeMode = *stored.SafeMode
	}
	if stored.SortMode != nil {
		merged.SortMode = domainSortMode(*stored.SortMode, base.SortMode)
	}
	return merged
}

func domainSortMode(value string, fallback domain.SortMode) domain.SortMode {
	switch domain.SortMode(value) {
	case domain.SortByName, domain.SortBySize:
		return domain.SortMode(value)
	default:
		return fallback
	}
}
