package utils

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// KV is a small persistent string-keyed store.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// FileKV keeps every key in one JSON object on disk. Values must be valid
// JSON themselves.
type FileKV struct {
	path string
	mu   sync.Mutex
}

func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (s *FileKV) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]json.RawMessage{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *FileKV) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *FileKV) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return errors.New("value is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		if !isDecodeError(err) {
			return err
		}
		// start over rather than keep failing on a corrupt file
		m = map[string]json.RawMessage{}
	}
	m[key] = json.RawMessage(value)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// MemoryKV is a KV that lives only as long as the process.
type MemoryKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: map[string][]byte{}}
}

func (s *MemoryKV) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}
