// Package sessions persists conversation transcripts as JSON files so a
// conversation can be resumed across process runs.
package sessions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gmargetis/kimi/llm"
)

// DefaultName is the session used when no explicit name is given.
const DefaultName = "last"

// maxMessages bounds how much history a session file retains. Older
// messages are dropped on save.
const maxMessages = 50

// Info describes a stored session for listing.
type Info struct {
	Name     string
	Messages int
	Modified time.Time
}

// Store reads and writes session files under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first save.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, sanitize(name)+".json")
}

// sanitize keeps session names filesystem-safe.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

type sessionFile struct {
	Saved    time.Time     `json:"saved"`
	Messages []llm.Message `json:"messages"`
}

// Save writes the conversation under name, overwriting any previous
// contents. Only the most recent messages are kept.
func (s *Store) Save(name string, messages []llm.Message) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	if len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}
	data, err := json.MarshalIndent(sessionFile{Saved: time.Now(), Messages: messages}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, s.path(name))
}

// Load returns the conversation stored under name. A missing or corrupt
// file yields an empty conversation with a logged warning, never an error:
// resuming must not block starting.
func (s *Store) Load(name string) []llm.Message {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.logger.Warn("session unreadable, starting fresh", "session", name, "error", err)
		return nil
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		s.logger.Warn("session corrupt, starting fresh", "session", name, "error", err)
		return nil
	}
	return sf.Messages
}

// List returns stored sessions, most recently modified first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}
	var infos []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		count := 0
		if data, err := os.ReadFile(filepath.Join(s.dir, e.Name())); err == nil {
			var sf sessionFile
			if json.Unmarshal(data, &sf) == nil {
				count = len(sf.Messages)
			}
		}
		infos = append(infos, Info{Name: name, Messages: count, Modified: fi.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Modified.After(infos[j].Modified)
	})
	return infos, nil
}

// Delete removes the session stored under name. Missing sessions are not
// an error.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
