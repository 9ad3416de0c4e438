package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseRoutineFile reads a routine file, dispatching on its extension
// (§6): ".yaml"/".yml" files are parsed as YAML documents, everything
// else (".txt" and extensionless) uses the line-oriented parseRoutineText
// grammar of routinefile.go. Both paths produce the same RawParams shape
// so Resolve never needs to know which one ran.
func ParseRoutineFile(path string) (RawParams, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseRoutineYAML(path)
	default:
		return parseRoutineText(path)
	}
}

// parseRoutineYAML loads a YAML-format routine file. YAML decodes integers
// and floats distinctly, unlike the text grammar's ParseValue which always
// produces float64 for numbers — normalizeYAMLValue folds them back
// together so Resolve's type assertions work identically regardless of
// source format.
func parseRoutineYAML(path string) (RawParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading routine file %q", path)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "config: parsing yaml routine file %q", path)
	}

	params := make(RawParams, len(raw))
	for key, value := range raw {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		params[key] = normalizeYAMLValue(value)
	}
	return params, nil
}

// normalizeYAMLValue coerces a yaml.v3-decoded value into the same shape
// ParseValue produces: numbers as float64, lists as []interface{} of a
// single consistent element type, everything else passed through. A list
// whose elements mix types becomes nil, which Resolve ignores, just as the
// text grammar skips a mixed-type list line.
func normalizeYAMLValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case int:
		return float64(vv)
	case int64:
		return float64(vv)
	case uint64:
		return float64(vv)
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, item := range vv {
			out[i] = normalizeYAMLValue(item)
			if typeName(out[i]) != typeName(out[0]) {
				return nil
			}
		}
		return out
	default:
		return vv
	}
}
