// Package models defines the settings and wire structures shared across packages.
package models

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout is used when request_timeout is missing or unusable.
const DefaultTimeout = 5 * time.Second

// Settings holds the forwarder configuration for one query cycle.
// Port and timeout stay as strings because the host settings UI and
// older settings files deliver them either way.
type Settings struct {
	ServerAddress     string `yaml:"server_address"`
	ServerPort        string `yaml:"server_port"`
	ServerPath        string `yaml:"server_path"`
	QueryParamName    string `yaml:"query_param_name"`
	URLEncodeQuery    bool   `yaml:"url_encode_query"`
	RequestTimeout    string `yaml:"request_timeout"`
	CustomURLTemplate string `yaml:"custom_url_template"`
	CacheTTL          string `yaml:"cache_ttl"`
	History           bool   `yaml:"history"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		ServerAddress:     "http://127.0.0.1",
		ServerPort:        "8080",
		ServerPath:        "/",
		QueryParamName:    "q",
		URLEncodeQuery:    true,
		RequestTimeout:    "5",
		CustomURLTemplate: "",
		CacheTTL:          "",
		History:           true,
	}
}

// LoadSettings reads a YAML settings file on top of the defaults.
// A missing file is not an error; the defaults are returned.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}
	s.Normalize()
	return s, nil
}

// ApplyMap overlays settings delivered inside the host RPC request.
// Values arrive as whatever the host serialized, so everything is
// coerced the same way the settings UI fields are.
func (s *Settings) ApplyMap(m map[string]any) {
	if m == nil {
		return
	}
	if v, ok := m["server_address"]; ok {
		s.ServerAddress = asString(v)
	}
	if v, ok := m["server_port"]; ok {
		s.ServerPort = asString(v)
	}
	if v, ok := m["server_path"]; ok {
		s.ServerPath = asString(v)
	}
	if v, ok := m["query_param_name"]; ok {
		s.QueryParamName = asString(v)
	}
	if v, ok := m["url_encode_query"]; ok {
		s.URLEncodeQuery = AsBool(v)
	}
	if v, ok := m["request_timeout"]; ok {
		s.RequestTimeout = asString(v)
	}
	if v, ok := m["custom_url_template"]; ok {
		s.CustomURLTemplate = asString(v)
	}
	if v, ok := m["cache_ttl"]; ok {
		s.CacheTTL = asString(v)
	}
	if v, ok := m["history"]; ok {
		s.History = AsBool(v)
	}
	s.Normalize()
}

// Normalize fixes up values that are tolerated but not canonical.
func (s *Settings) Normalize() {
	s.CustomURLTemplate = strings.TrimSpace(s.CustomURLTemplate)
	if s.ServerPath != "" && !strings.HasPrefix(s.ServerPath, "/") {
		s.ServerPath = "/" + s.ServerPath
	}
	if s.QueryParamName == "" {
		s.QueryParamName = "q"
	}
}

// Timeout parses request_timeout in seconds, falling back to the
// default for missing, non-numeric, or non-positive values.
func (s Settings) Timeout() time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(s.RequestTimeout))
	if err != nil || n <= 0 {
		return DefaultTimeout
	}
	return time.Duration(n) * time.Second
}

// CacheDuration parses cache_ttl. Zero means caching is disabled.
func (s Settings) CacheDuration() time.Duration {
	if s.CacheTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(s.CacheTTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; ports and timeouts are whole.
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// AsBool coerces host-delivered values, accepting the string forms
// "true"/"false" the settings UI produces.
func AsBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	default:
		return false
	}
}
