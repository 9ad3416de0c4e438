package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ParseLine parses one routine-file line (§6): blank lines, lines with no
// ":" separator, and comment lines (leading "#") return ok=false. An
// inline "#" ends the value. Keys are lower-cased with spaces replaced by
// underscores, matching routine.py's parse_line.
func ParseLine(line string) (key string, value interface{}, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
		return "", nil, false
	}
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", nil, false
	}
	key = strings.ToLower(strings.TrimSpace(parts[0]))
	key = strings.ReplaceAll(key, " ", "_")
	v, ok := ParseValue(strings.TrimSpace(parts[1]))
	if !ok {
		return "", nil, false
	}
	return key, v, true
}

// RawParams is a routine file's key/value pairs after parsing, before the
// ACCEPTED_PARAMS validation and unit resolution in Resolve.
type RawParams map[string]interface{}

// parseRoutineText reads and parses every recognizable line of a
// line-oriented routine file. Unparseable lines (comments, blanks,
// malformed values) are skipped silently, matching routine.py's
// from_file behavior. ParseRoutineFile in routineyaml.go dispatches here
// for non-YAML extensions.
func parseRoutineText(path string) (RawParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: opening routine file %q", path)
	}
	defer f.Close()

	params := RawParams{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		params[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "config: reading routine file %q", path)
	}
	return params, nil
}
