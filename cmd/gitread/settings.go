package main

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"

	"github.com/odvcencio/gitread/pkg/diff"
	"github.com/odvcencio/gitread/pkg/object"
)

const defaultSettingsPath = "~/.gitread.toml"

// Settings are user preferences read from a TOML file. Command-line flags
// take precedence.
type Settings struct {
	Limit     int    `toml:"limit"`
	Color     string `toml:"color"`
	Context   int    `toml:"context"`
	CacheSize int    `toml:"cache_size"`
	Debug     bool   `toml:"debug"`
}

func defaultSettings() Settings {
	return Settings{
		Limit:     100,
		Color:     "auto",
		Context:   diff.DefaultContext,
		CacheSize: object.DefaultCacheSize,
	}
}

// loadSettings decodes path over the defaults. An empty path means the
// default location, which may be absent; an explicit path must exist.
func loadSettings(path string) (Settings, error) {
	s := defaultSettings()
	explicit := path != ""
	if !explicit {
		path = defaultSettingsPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}

	md, err := toml.DecodeFile(expanded, &s)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaultSettings(), nil
		}
		return s, fmt.Errorf("settings %s: %w", expanded, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return s, fmt.Errorf("settings %s: unknown keys: %s", expanded, strings.Join(keys, ", "))
	}
	return s, nil
}

func (s Settings) validate() error {
	switch s.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", s.Color)
	}
	if s.Limit < 0 {
		return fmt.Errorf("invalid limit %d", s.Limit)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("invalid cache_size %d", s.CacheSize)
	}
	return nil
}
