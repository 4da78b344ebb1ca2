package config

import "linkpurge/internal/domain"

type Config struct {
	Path        string          `json:"path"`
	Xdev        bool            `json:"xdev"`
	Interactive bool            `json:"interactive"`
	Yes         bool            `json:"-"`
	DryRun      bool            `json:"-"`
	Apparent    bool            `json:"apparent"`
	Contained   bool            `json:"-"`
	Symlinks    bool            `json:"-"`
	SaveScan    string          `json:"-"`
	LoadScan    string          `json:"-"`
	Verbose     bool            `json:"verbose"`
	LogFile     string          `json:"logFile"`
	SafeMode    bool            `json:"safeMode"`
	SortMode    domain.SortMode `json:"sortMode"`
	Excludes    []string        `json:"-"`
}

type fileConfig struct {
	Path     *string `json:"path"`
	Xdev     *bool   `json:"xdev"`
	Apparent *bool   `json:"apparent"`
	Verbose  *bool   `json:"verbose"`
	LogFile  *string `json:"logFile"`
	SafeMode *bool   `json:"safeMode"`
	SortMode *string `json:"sortMode"`
}
