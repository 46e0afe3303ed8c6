package variables

import (
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Interpolate replaces every {{path}} with the scope value at path.
// Tokens whose path does not resolve are left untouched.
func Interpolate(template string, scope map[string]any) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	return placeholder.ReplaceAllStringFunc(template, func(token string) string {
		path := strings.TrimSpace(token[2 : len(token)-2])

		value, ok := Lookup(scope, path)
		if !ok {
			return token
		}

		return Stringify(value)
	})
}

// InterpolateMap interpolates every value of a string map.
func InterpolateMap(values map[string]string, scope map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = Interpolate(value, scope)
	}

	return out
}
