package config

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section/key lookup.
//
// Components that only need a handful of settings read them by section and
// key instead of reaching into the typed structs. Keys may be dotted to reach
// nested values ("broker.host"). Names are the YAML names.

// GetBool returns the boolean at section/key, or false if it is absent.
func (c *Config) GetBool(section, key string) bool {
	return c.GetBoolOrDefault(section, key, false)
}

// GetBoolOrDefault returns the boolean at section/key, or def if it is
// absent or not a boolean.
func (c *Config) GetBoolOrDefault(section, key string, def bool) bool {
	v, ok := c.lookup(section, key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// GetString returns the string at section/key, or "" if it is absent.
func (c *Config) GetString(section, key string) string {
	return c.GetStringOrDefault(section, key, "")
}

// GetStringOrDefault returns the string at section/key, or def if it is
// absent or empty.
func (c *Config) GetStringOrDefault(section, key, def string) string {
	v, ok := c.lookup(section, key)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return def
	}
	return s
}

// GetInt returns the integer at section/key, or 0 if it is absent.
func (c *Config) GetInt(section, key string) int {
	return c.GetIntOrDefault(section, key, 0)
}

// GetIntOrDefault returns the integer at section/key, or def if it is
// absent or not an integer.
func (c *Config) GetIntOrDefault(section, key string, def int) int {
	v, ok := c.lookup(section, key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

// lookup walks the YAML form of the configuration.
func (c *Config) lookup(section, key string) (any, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return nil, false
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, false
	}

	var cur any = tree[section]
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}
