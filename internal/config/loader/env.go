package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// DefaultPrefix is the prefix of Scribe environment variables.
const DefaultPrefix = "SCRIBE_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "SCRIBE_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "SCRIBE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithMapping(prefix, defaultEnvMapping(prefix))
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		environ: os.Environ,
	}
}

// defaultEnvMapping maps variables of nested sections, whose path cannot
// be derived from the name.
func defaultEnvMapping(prefix string) map[string]string {
	m := map[string]string{
		"LOG_LEVEL":                        "logging.level",
		"GUARDS_LEADING_ENABLED":           "guards.leading.enabled",
		"GUARDS_LEADING_NODE":              "guards.leading.node",
		"GUARDS_LEADING_LEVEL":             "guards.leading.level",
		"GUARDS_UNIQUE_ID_ENABLED":         "guards.unique_id.enabled",
		"GUARDS_UNIQUE_ID_TYPES":           "guards.unique_id.types",
		"GUARDS_HIGHLIGHT_ENABLED":         "guards.highlight.enabled",
		"GUARDS_HIGHLIGHT_REMAP_ON_CHANGE": "guards.highlight.remap_on_change",
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[prefix+k] = v
	}
	return out
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			// SCRIBE_EDITOR_HISTORY_SIZE -> editor.history_size
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		SetByPath(config, path, l.parseValue(value))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts SCRIBE_EDITOR_HISTORY_SIZE to editor.history_size.
// The first segment names the section.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}

// parseValue attempts to parse the string value into an appropriate type.
func (l *EnvLoader) parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only with a decimal point, so that ints are not misread.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	// JSON arrays, e.g. SCRIBE_GUARDS_UNIQUE_ID_TYPES='["heading"]'
	if strings.HasPrefix(s, "[") {
		var v []any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}
