package variables

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

const (
	OperatorEquals       = "equals"
	OperatorNotEquals    = "not_equals"
	OperatorContains     = "contains"
	OperatorNotContains  = "not_contains"
	OperatorStartsWith   = "starts_with"
	OperatorEndsWith     = "ends_with"
	OperatorGreaterThan  = "greater_than"
	OperatorLessThan     = "less_than"
	OperatorIsEmpty      = "is_empty"
	OperatorIsNotEmpty   = "is_not_empty"
	OperatorMatchesRegex = "matches_regex"
)

// editor shorthands
var operatorAliases = map[string]string{
	"gt":         OperatorGreaterThan,
	"lt":         OperatorLessThan,
	"regex":      OperatorMatchesRegex,
	"exists":     OperatorIsNotEmpty,
	"not_exists": OperatorIsEmpty,
}

// NormalizeOperator resolves aliases; ok is false for unknown operators.
func NormalizeOperator(operator string) (string, bool) {
	operator = strings.ToLower(strings.TrimSpace(operator))
	if alias, ok := operatorAliases[operator]; ok {
		operator = alias
	}

	switch operator {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains,
		OperatorStartsWith, OperatorEndsWith, OperatorGreaterThan, OperatorLessThan,
		OperatorIsEmpty, OperatorIsNotEmpty, OperatorMatchesRegex:
		return operator, true
	default:
		return operator, false
	}
}

// EvaluateCondition applies rule against scope. It never fails: unknown
// operators, invalid patterns and failed numeric coercions yield false.
func EvaluateCondition(scope map[string]any, rule models.ConditionRule) bool {
	operator, ok := NormalizeOperator(rule.Operator)
	if !ok {
		return false
	}

	actual, found := Lookup(scope, rule.Variable)

	switch operator {
	case OperatorIsEmpty:
		return isEmpty(actual, found)
	case OperatorIsNotEmpty:
		return !isEmpty(actual, found)
	}

	expected := ""
	if rule.Value != nil {
		expected = Interpolate(Stringify(rule.Value), scope)
	}

	actualText := ""
	if found {
		actualText = Stringify(actual)
	}

	switch operator {
	case OperatorEquals:
		return strings.EqualFold(actualText, expected)
	case OperatorNotEquals:
		return !strings.EqualFold(actualText, expected)
	case OperatorContains:
		return strings.Contains(strings.ToLower(actualText), strings.ToLower(expected))
	case OperatorNotContains:
		return !strings.Contains(strings.ToLower(actualText), strings.ToLower(expected))
	case OperatorStartsWith:
		return strings.HasPrefix(strings.ToLower(actualText), strings.ToLower(expected))
	case OperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(actualText), strings.ToLower(expected))
	case OperatorGreaterThan, OperatorLessThan:
		left, okLeft := toNumber(actual, found)
		right, okRight := toNumber(expected, true)

		if !okLeft || !okRight {
			return false
		}

		if operator == OperatorGreaterThan {
			return left > right
		}

		return left < right
	case OperatorMatchesRegex:
		pattern, err := regexp.Compile("(?i)" + expected)
		if err != nil {
			return false
		}

		return pattern.MatchString(actualText)
	}

	return false
}

func isEmpty(value any, found bool) bool {
	if !found || value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case float64:
		return v == 0 || math.IsNaN(v)
	case int:
		return v == 0
	case int64:
		return v == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}

	return false
}

func toNumber(value any, found bool) (float64, bool) {
	if !found {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, false
		}

		number, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(number) {
			return 0, false
		}

		return number, true
	}

	return 0, false
}

// SelectBranch evaluates rules in order and returns the output handle of the
// first rule that holds, or fallback when none does.
func SelectBranch(scope map[string]any, rules []models.ConditionRule, fallback string) string {
	for _, rule := range rules {
		if EvaluateCondition(scope, rule) {
			if rule.OutputHandle == "" {
				return fallback
			}

			return rule.OutputHandle
		}
	}

	return fallback
}
