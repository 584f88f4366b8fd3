package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of environment variables read by wikisearch.
const EnvPrefix = "WIKISEARCH_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "WIKISEARCH_")
	mapping map[string]string // Env var -> config path
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "WIKISEARCH_").
// Short aliases such as PREFIX_THRESHOLD are registered for common settings.
func NewEnvLoader(prefix string) *EnvLoader {
	l := &EnvLoader{prefix: prefix}
	for suffix, path := range envAliases {
		l.AddMapping(prefix+suffix, path)
	}
	return l
}

// envAliases maps alias suffixes to config paths.
var envAliases = map[string]string{
	"LOG_LEVEL":      "logging.level",
	"THRESHOLD":      "search.threshold",
	"DISTANCE":       "search.distance",
	"LOCATION":       "search.location",
	"CASE_SENSITIVE": "search.caseSensitive",
	"LIMIT":          "search.limit",
	"WORKERS":        "search.workers",
	"STYLE":          "render.style",
	"NO_REFS":        "render.noRefs",
}

// Load reads environment variables and returns a configuration map.
// Empty values are kept as empty strings, not treated as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(config, path, l.parseValue(val))
		}
	}

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, l.prefix) {
			continue
		}

		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}

		// WIKISEARCH_SEARCH_CASE_SENSITIVE -> search.caseSensitive
		setByPath(config, l.envToPath(name), l.parseValue(value))
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

// envToPath converts WIKISEARCH_RENDER_NO_REFS to render.noRefs.
// The first segment names the section, the rest form a camelCase key.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	parts := strings.Split(name, "_")

	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part == "" {
			continue
		}
		setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}

	return section + "." + setting
}

// parseValue converts the string value into a bool, number, JSON value or
// string, in that order of preference.
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

	// Only values with a decimal point are floats.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := splitPath(path)
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// GetEnvOrDefault returns the value of the environment variable or a default.
func GetEnvOrDefault(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}
