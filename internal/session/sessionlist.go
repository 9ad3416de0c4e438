package session

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// sessionSummary is one entry of the sibling session_list.json (§3): a
// name → summary map spanning every session under a root directory.
type sessionSummary struct {
	Name        string `json:"name"`
	StartTime   string `json:"start_time"`
	LastUpdated string `json:"last_updated"`
	Path        string `json:"path"`
	ImageCount  int    `json:"images"`
}

// upsertSessionList rewrites root/session_list.json with s's current
// summary upserted, per §4.4 step (ii). A missing or corrupt existing file
// is treated as empty rather than failing the whole upsert.
func upsertSessionList(s *Session) error {
	list := map[string]sessionSummary{}
	if data, err := os.ReadFile(s.SessionListPath); err == nil {
		_ = json.Unmarshal(data, &list) // a corrupt list starts fresh; nothing else to recover it from
	}

	list[s.Name] = sessionSummary{
		Name:        s.Name,
		StartTime:   s.StartTime.Format(timeLayout),
		LastUpdated: s.LastUpdated.Format(timeLayout),
		Path:        s.Dir,
		ImageCount:  len(s.Images),
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.Wrap(err, "session: marshaling session_list.json")
	}
	tmp := s.SessionListPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "session: writing %q", tmp)
	}
	if err := os.Rename(tmp, s.SessionListPath); err != nil {
		return errors.Wrapf(err, "session: renaming %q to %q", tmp, s.SessionListPath)
	}
	return nil
}
