// Package session implements the SessionRecorder (§4.4): the on-disk
// campaign layout, the single-producer/single-consumer persistence
// pipeline, and the session_list.json / session.json / data.csv / PNG
// writers.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Session is a persistent capture campaign (§3): identity, on-disk paths,
// and the ordered in-memory list of every persisted Frame's info map.
type Session struct {
	ID           uuid.UUID
	Name         string
	NameNoSpaces string

	RootDir         string // <root>, parent of every session directory
	Dir             string // <root>/<name_no_spaces>
	ImageDir        string // <root>/<name_no_spaces>/images
	CSVPath         string // <root>/<name_no_spaces>/data.csv
	JSONPath        string // <root>/<name_no_spaces>/session.json
	SessionListPath string // <root>/session_list.json

	StartTime   time.Time
	LastUpdated time.Time

	Images []map[string]string // ordered, one entry per persisted Frame
}

// persistedSession is session.json's on-disk shape.
type persistedSession struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	StartTime   string              `json:"start_time"`
	LastUpdated string              `json:"last_updated"`
	Path        string              `json:"path"`
	Images      []map[string]string `json:"images"`
}

const timeLayout = time.RFC3339

// Open opens the named session under root, creating it fresh if it doesn't
// exist yet, or resuming it (appending to its existing image list, never
// truncating) if session.json is already present — §3's "image numbering
// is contiguous and monotonic" invariant depends on resumed sessions
// picking up where they left off rather than starting over.
func Open(root, name string) (*Session, error) {
	nameNoSpaces := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	dir := filepath.Join(root, nameNoSpaces)
	jsonPath := filepath.Join(dir, "session.json")

	s := &Session{
		Name:            name,
		NameNoSpaces:    nameNoSpaces,
		RootDir:         root,
		Dir:             dir,
		ImageDir:        filepath.Join(dir, "images"),
		CSVPath:         filepath.Join(dir, "data.csv"),
		JSONPath:        jsonPath,
		SessionListPath: filepath.Join(root, "session_list.json"),
	}

	if err := os.MkdirAll(s.ImageDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "session: creating image directory %q", s.ImageDir)
	}

	if data, err := os.ReadFile(jsonPath); err == nil {
		var p persistedSession
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrapf(err, "session: parsing existing %q", jsonPath)
		}
		id, err := uuid.Parse(p.ID)
		if err != nil {
			id = uuid.New()
		}
		start, _ := time.Parse(timeLayout, p.StartTime)
		last, _ := time.Parse(timeLayout, p.LastUpdated)
		s.ID = id
		s.StartTime = start
		s.LastUpdated = last
		s.Images = p.Images
	} else if os.IsNotExist(err) {
		s.ID = uuid.New()
		s.StartTime = time.Now()
		s.LastUpdated = s.StartTime
	} else {
		return nil, errors.Wrapf(err, "session: checking for existing %q", jsonPath)
	}

	if err := s.writeJSON(); err != nil {
		return nil, err
	}
	if err := upsertSessionList(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ImageCount returns the number of images persisted so far.
func (s *Session) ImageCount() int { return len(s.Images) }

// writeJSON atomically rewrites session.json: write to a temp file in the
// same directory, then rename over the target, per §4.4 step (iv).
func (s *Session) writeJSON() error {
	p := persistedSession{
		ID:          s.ID.String(),
		Name:        s.Name,
		StartTime:   s.StartTime.Format(timeLayout),
		LastUpdated: s.LastUpdated.Format(timeLayout),
		Path:        s.Dir,
		Images:      s.Images,
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(err, "session: marshaling session.json")
	}
	tmp := s.JSONPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "session: writing %q", tmp)
	}
	if err := os.Rename(tmp, s.JSONPath); err != nil {
		return errors.Wrapf(err, "session: renaming %q to %q", tmp, s.JSONPath)
	}
	return nil
}
