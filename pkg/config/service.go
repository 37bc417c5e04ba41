package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/p1reader/pkg/pathing"
)

// DefaultValues is written to disk when no configuration file exists yet.
func DefaultValues() map[string]map[string]any {
	return map[string]map[string]any{
		"serial": {
			"device":              "/dev/ttyUSB0",
			"baudrate":            115200,
			"retry_delay_seconds": 10,
		},
		"transport": {
			"kind":                "websocket",
			"listen_address":      "0.0.0.0",
			"listen_port":         9039,
			"host":                "localhost:9039",
			"retry_delay_seconds": 5,
		},
		"mqtt": {
			"broker":    "tcp://localhost:1883",
			"topic":     "p1/telegram",
			"client_id": "",
		},
		"telegram": {
			"checksum_report": false,
		},
		"weekly_log": {
			"filename":           pathing.DataFile("P1reader-YYYY-Www.log"),
			"measurement_period": 30,
			"flush_period":       30,
		},
		"p1_reader_details": {
			"filename":     pathing.DataFile("p1_reader_details-DAY.csv"),
			"flush_period": 300,
		},
		"p1_reader_interval": {
			"filename":     pathing.DataFile("p1_reader_interval-PERIOD.csv"),
			"flush_period": 1800,
			"window":       300,
			"min_batches":  3,
		},
		"p1_reader_day": {
			"filename":     pathing.DataFile("p1_reader_day-DAY.csv"),
			"flush_period": 7200,
		},
		"html_report": {
			"filename":     pathing.DataFile("p1-lastm.html"),
			"flush_period": 30,
		},
		"meterdb": {
			"enabled": false,
			"path":    pathing.GetMeterDbPath(),
		},
		"metrics": {
			"listen_address": "",
		},
	}
}

// Load reads the configuration file at path. A default file is created if it
// does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = pathing.GetConfigPath()
	}

	// Create default if not exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		values := DefaultValues()
		if err := writeDefault(path, values); err != nil {
			return nil, fmt.Errorf("failed to write default config %s: %w", path, err)
		}
		return &Config{path: path, values: values}, nil
	}

	values := map[string]map[string]any{}
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return &Config{path: path, values: values}, nil
}

// Parse builds a Config from TOML text.
func Parse(text string) (*Config, error) {
	values := map[string]map[string]any{}
	if _, err := toml.Decode(text, &values); err != nil {
		return nil, err
	}
	return &Config{values: values}, nil
}

func writeDefault(path string, values map[string]map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	cfgFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer cfgFile.Close()
	return toml.NewEncoder(cfgFile).Encode(values)
}

func (c *Config) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

func (c *Config) lookup(category, key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	cat, ok := c.values[category]
	if !ok {
		return nil, false
	}
	v, ok := cat[key]
	return v, ok
}

// Get returns category/key converted to the type of def, or def when the entry
// is absent or cannot be converted. Strings have ${VAR} references expanded
// from the environment.
func Get[T any](c *Config, category, key string, def T) T {
	raw, ok := c.lookup(category, key)
	if !ok {
		return def
	}

	var out any
	switch any(def).(type) {
	case string:
		s, ok := asString(raw)
		if !ok {
			return def
		}
		out = os.ExpandEnv(s)
	case int:
		n, ok := asInt(raw)
		if !ok {
			return def
		}
		out = int(n)
	case int64:
		n, ok := asInt(raw)
		if !ok {
			return def
		}
		out = n
	case uint:
		n, ok := asInt(raw)
		if !ok || n < 0 {
			return def
		}
		out = uint(n)
	case float64:
		f, ok := asFloat(raw)
		if !ok {
			return def
		}
		out = f
	case bool:
		b, ok := raw.(bool)
		if !ok {
			return def
		}
		out = b
	case time.Duration:
		// Plain numbers are seconds, strings use time.ParseDuration.
		if f, ok := asFloat(raw); ok {
			out = time.Duration(f * float64(time.Second))
		} else if s, ok := raw.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return def
			}
			out = d
		} else {
			return def
		}
	default:
		v, ok := raw.(T)
		if !ok {
			return def
		}
		return v
	}
	return out.(T)
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func asInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(os.ExpandEnv(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(os.ExpandEnv(v), 64)
		return f, err == nil
	}
	return 0, false
}
