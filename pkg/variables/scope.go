// Package variables implements the conversation variable scope: dotted path
// lookup and assignment, {{path}} interpolation and condition evaluation.
package variables

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrEmptyPath = errors.New("variable path cannot be empty")

// Lookup walks scope along a dot separated path. Numeric segments index lists.
func Lookup(scope map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" || scope == nil {
		return nil, false
	}

	var current any = scope

	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = value
		case map[string]string:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		default:
			return nil, false
		}
	}

	return current, true
}

// Assign stores value at path, creating intermediate maps as needed.
// Intermediate values that are not maps are replaced.
func Assign(scope map[string]any, path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}

	segments := strings.Split(path, ".")
	current := scope

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}

		current = next
	}

	current[segments[len(segments)-1]] = value

	return nil
}

// Stringify renders a scope value the way it appears inside interpolated text.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(raw)
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Clone deep copies a scope through its JSON form so snapshots never share maps.
func Clone(scope map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(scope)
	if err != nil {
		return nil, err
	}

	cloned := make(map[string]any)
	if err := json.Unmarshal(raw, &cloned); err != nil {
		return nil, err
	}

	return cloned, nil
}
