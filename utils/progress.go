package utils

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Progress tracks reading progress of a book
type Progress struct {
	Source      string    `json:"source"`       // "flow" or "local"
	Page        int       `json:"page"`         // page within the chapter, page mode only
	LastRead    time.Time `json:"last_read"`    // timestamp of last read
	LastChapter string    `json:"last_chapter"` // title of the chapter being read
	Chapter     int       `json:"chapter"`      // position of that chapter in the book
}

// ProgressFile stores progress for every book in one JSON file.
type ProgressFile struct {
	Path string
	Log  *zap.Logger
}

func DefaultProgressFile() ProgressFile {
	return ProgressFile{Path: filepath.Join(ConfigDir(), "progress.json")}
}

// ---------------- Helper for compound keys ----------------
func makeKey(name, source string) string {
	return name + "|" + source
}

func parseKey(key string) (name, source string) {
	parts := strings.SplitN(key, "|", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return key, "flow"
}

// ---------------- Load progress ----------------
func (pf ProgressFile) Load() (map[string]Progress, error) {
	data, err := os.ReadFile(pf.Path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Progress), nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]Progress
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	progressMap := make(map[string]Progress)
	for k, v := range raw {
		name, source := parseKey(k)
		if v.Source == "" {
			v.Source = source
		}
		if name != "" && v.Source != "" {
			progressMap[makeKey(name, v.Source)] = v
		}
	}
	return progressMap, nil
}

// ---------------- Save progress ----------------
func (pf ProgressFile) Save(m map[string]Progress) error {
	saveMap := make(map[string]Progress)
	for key, v := range m {
		name, source := parseKey(key)
		if name == "" || source == "" {
			continue // skip invalid entries
		}
		saveMap[makeKey(name, source)] = v
	}

	data, err := json.MarshalIndent(saveMap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pf.Path), 0755); err != nil {
		return err
	}
	return os.WriteFile(pf.Path, data, 0644)
}

// Update loads, changes one entry and saves in one go.
func (pf ProgressFile) Update(name, source string, p Progress) error {
	m, err := pf.Load()
	if err != nil {
		if !isDecodeError(err) {
			return err
		}
		// a corrupt file would fail every later save, so start over
		if pf.Log != nil {
			pf.Log.Warn("Discarding unreadable progress file", zap.String("path", pf.Path), zap.Error(err))
		}
		m = make(map[string]Progress)
	}
	SetProgress(m, name, source, p)
	return pf.Save(m)
}

// isDecodeError tells a damaged file apart from one that could not be read.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// ---------------- Convenience ----------------

// GetProgress safely retrieves a progress entry by name + source
func GetProgress(m map[string]Progress, name, source string) (Progress, bool) {
	if name == "" || source == "" {
		return Progress{}, false
	}
	p, ok := m[makeKey(name, source)]
	return p, ok
}

// SetProgress safely updates a progress entry
func SetProgress(m map[string]Progress, name, source string, p Progress) {
	if name == "" || source == "" {
		return
	}
	p.Source = source
	m[makeKey(name, source)] = p
}

// RecentEntry is a book with its progress, for history listings.
type RecentEntry struct {
	Name string
	Progress
}

// Recent lists the books of one source, most recently read first.
func Recent(m map[string]Progress, source string) []RecentEntry {
	var out []RecentEntry
	for key, p := range m {
		name, src := parseKey(key)
		if src != source {
			continue
		}
		out = append(out, RecentEntry{Name: name, Progress: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastRead.Equal(out[j].LastRead) {
			return out[i].Name < out[j].Name
		}
		return out[i].LastRead.After(out[j].LastRead)
	})
	return out
}

// DeleteProgress removes a progress entry for the given name and source.
func (pf ProgressFile) DeleteProgress(name, source string) error {
	if name == "" || source == "" {
		return nil
	}

	progressMap, err := pf.Load()
	if err != nil {
		return err
	}

	key := makeKey(name, source)
	if _, ok := progressMap[key]; !ok {
		return nil
	}
	delete(progressMap, key)

	return pf.Save(progressMap)
}
