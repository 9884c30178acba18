package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Config is a read-only view of the repository's config file. Keys use the
// "section.key" form; subsections keep their quotes, e.g.
// `remote "origin".url`. Lookups are case-insensitive.
type Config struct {
	v *viper.Viper
	// sections keeps subsection names as written; viper splits them on "."
	// and lowercases them.
	sections *ini.File
}

// Remote is one [remote "name"] section.
type Remote struct {
	Name  string
	URL   string
	Fetch string
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GitDir, "config")
}

// ReadConfig parses GitDir/config. A missing file yields an empty config.
func (r *Repo) ReadConfig() (*Config, error) {
	v := viper.NewWithOptions(viper.IniLoadOptions(iniOptions))
	v.SetConfigType("ini")

	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{v: v, sections: ini.Empty(iniOptions)}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("read config: parse: %w", err)
	}
	sections, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, fmt.Errorf("read config: parse: %w", err)
	}
	return &Config{v: v, sections: sections}, nil
}

var iniOptions = ini.LoadOptions{
	AllowBooleanKeys: true,
	InsensitiveKeys:  true,
}

// Get returns the value for key, or "" when unset.
func (c *Config) Get(key string) string {
	return c.v.GetString(key)
}

// Bool returns the boolean value for key. A bare key with no "=" is true.
func (c *Config) Bool(key string) bool {
	return c.v.GetBool(key)
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Keys lists every key in sorted order.
func (c *Config) Keys() []string {
	keys := c.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Remotes returns the configured remotes sorted by name. Remote names keep
// their original case and may contain dots.
func (c *Config) Remotes() []Remote {
	var remotes []Remote
	for _, sec := range c.sections.Sections() {
		rest, ok := strings.CutPrefix(sec.Name(), "remote ")
		if !ok {
			continue
		}
		name := strings.Trim(strings.TrimSpace(rest), `"`)
		if name == "" {
			continue
		}
		remotes = append(remotes, Remote{
			Name:  name,
			URL:   keyString(sec, "url"),
			Fetch: keyString(sec, "fetch"),
		})
	}
	sort.Slice(remotes, func(i, j int) bool { return remotes[i].Name < remotes[j].Name })
	return remotes
}

func keyString(sec *ini.Section, name string) string {
	key, err := sec.GetKey(name)
	if err != nil {
		return ""
	}
	return key.String()
}
