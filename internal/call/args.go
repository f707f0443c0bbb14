package call

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var kwargPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)=(.*)$`)

// ParseInput splits raw CLI tokens into positional values and named
// kwargs. A token of the form name=value becomes a kwarg; everything
// else stays positional. Scalar values are coerced so that "8080" or
// "true" arrive typed rather than as strings.
func ParseInput(tokens []string) ([]any, map[string]any) {
	var positional []any
	kwargs := make(map[string]any)
	for _, tok := range tokens {
		if m := kwargPattern.FindStringSubmatch(tok); m != nil {
			kwargs[m[1]] = CoerceValue(m[2])
			continue
		}
		positional = append(positional, CoerceValue(tok))
	}
	return positional, kwargs
}

// CoerceValue interprets a raw string as the most specific scalar it
// parses as: bool, integer, float, null, JSON composite, else string.
func CoerceValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	case "null", "none":
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return raw
}
