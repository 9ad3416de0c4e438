// Package config parses routine files (§6) and binds the supervisor's
// environment/CLI configuration via github.com/spf13/viper.
package config

import (
	"strconv"
	"strings"
)

// parseScalar converts a trimmed token to the narrowest applicable type:
// float64 if numeric, bool if one of the recognized tokens, else the
// original string. Mirrors routine.py's convert().
func parseScalar(tok string) interface{} {
	tok = strings.TrimSpace(tok)
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	switch strings.ToLower(tok) {
	case "true", "t", "yes", "y":
		return true
	case "false", "f", "no", "n":
		return false
	}
	return tok
}

// ParseValue parses a routine-file value: a float if numeric, a bool if one
// of the recognized tokens, a []interface{} if enclosed in "[ ... ]" with
// comma-separated elements sharing one type, otherwise the raw string.
// A malformed list (unterminated, or mixed element types) reports ok=false.
func ParseValue(raw string) (value interface{}, ok bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		if !strings.HasSuffix(raw, "]") {
			return nil, false
		}
		inner := strings.Trim(raw, " []")
		if inner == "" {
			return []interface{}{}, true
		}
		parts := strings.Split(inner, ",")
		list := make([]interface{}, 0, len(parts))
		var listType string
		for _, p := range parts {
			item := parseScalar(p)
			t := typeName(item)
			if listType == "" {
				listType = t
			} else if t != listType {
				return nil, false
			}
			list = append(list, item)
		}
		return list, true
	}
	return parseScalar(raw), true
}

func typeName(v interface{}) string {
	switch v.(type) {
	case float64:
		return "float64"
	case bool:
		return "bool"
	default:
		return "string"
	}
}

// FloatList coerces a parsed value into a []float64, accepting either a
// single float64 (wrapped as a one-element slice) or a []interface{} of
// float64 elements. It reports ok=false if any element isn't numeric.
func FloatList(v interface{}) ([]float64, bool) {
	switch vv := v.(type) {
	case float64:
		return []float64{vv}, true
	case []interface{}:
		out := make([]float64, 0, len(vv))
		for _, item := range vv {
			f, ok := item.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	default:
		return nil, false
	}
}
