package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKV stores each key as a JSON file under a base directory. Keys are
// sanitized into file names; the mapping is stable so the same key always
// hits the same file.
type FileKV struct {
	dir string
}

// NewFileKV creates the base directory if needed and returns a file-backed
// KV store.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("cannot create store directory %s: %w", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

const fileExt = ".json"

// encodeKey maps a key to a safe file name. Path separators and other
// unsafe characters are replaced so keys cannot escape the base dir.
func encodeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "..", "_",
	)
	return replacer.Replace(key) + fileExt
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, encodeKey(key))
}

// Get implements KV.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cannot read %s: %w", key, err)
	}
	return raw, true, nil
}

// Set implements KV. The write goes through a temp file and rename so a
// crash never leaves a half-written record behind.
func (f *FileKV) Set(key string, value []byte) error {
	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cannot write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot persist %s: %w", key, err)
	}
	return nil
}

// Delete implements KV. Deleting an absent key is a no-op.
func (f *FileKV) Delete(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot delete %s: %w", key, err)
	}
	return nil
}

// Keys implements KV. Prefix matching runs on the encoded names, which
// preserves key-prefix relationships because encodeKey is per-character.
func (f *FileKV) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list store directory: %w", err)
	}

	encodedPrefix := strings.TrimSuffix(encodeKey(prefix), fileExt)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if strings.HasPrefix(name, encodedPrefix) {
			keys = append(keys, strings.TrimSuffix(name, fileExt))
		}
	}
	return keys, nil
}
