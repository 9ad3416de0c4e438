package supervisor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ru-wallace/triton/internal/config"
)

// routineExtensions are the file extensions scanned when nameOrPath isn't
// itself a path that parses, mirroring routine.py's from_file tolerance
// for .txt/.yaml/.yml routine files (auto_capture.py's directory scan).
var routineExtensions = map[string]bool{".txt": true, ".yaml": true, ".yml": true}

// ResolveRoutineFile finds and parses the routine file named by
// nameOrPath, per auto_capture.py's resolution order:
//  1. nameOrPath itself, if it parses as a path to an existing file.
//  2. routinesDir/nameOrPath, if that exact filename exists.
//  3. Every .txt/.yaml/.yml file in routinesDir, matched by its declared
//     "name" key against nameOrPath (case-insensitive, spaces and
//     underscores equivalent).
//
// The first candidate that both exists and parses into a named Routine
// wins; malformed files along the way are skipped, not fatal.
func ResolveRoutineFile(routinesDir, nameOrPath string) (config.Routine, string, error) {
	if raw, err := config.ParseRoutineFile(nameOrPath); err == nil {
		if r, err := config.Resolve(raw); err == nil {
			return r, nameOrPath, nil
		}
	}

	direct := filepath.Join(routinesDir, nameOrPath)
	if raw, err := config.ParseRoutineFile(direct); err == nil {
		if r, err := config.Resolve(raw); err == nil {
			return r, direct, nil
		}
	}

	entries, err := os.ReadDir(routinesDir)
	if err != nil {
		return config.Routine{}, "", errors.Wrapf(err, "supervisor: scanning routines directory %q", routinesDir)
	}

	target := normalizeRoutineName(nameOrPath)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !routineExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(routinesDir, entry.Name())
		raw, err := config.ParseRoutineFile(path)
		if err != nil {
			continue
		}
		r, err := config.Resolve(raw)
		if err != nil {
			continue
		}
		if normalizeRoutineName(r.EngineParams.Name) == target {
			return r, path, nil
		}
	}

	return config.Routine{}, "", errors.Errorf("supervisor: no routine matching %q found in %q", nameOrPath, routinesDir)
}

func normalizeRoutineName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}
