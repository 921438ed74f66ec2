package api

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ProgramCache keeps downloaded game programs on disk so a game can
// still be started when the catalog is unreachable.
type ProgramCache struct {
	baseDir string
}

// CacheEntry represents a cached game program.
type CacheEntry struct {
	Path       string
	UID        string
	Version    string
	FileSize   int64
	Downloaded time.Time
}

// NewProgramCache creates a cache at the specified path.
func NewProgramCache(path string) (*ProgramCache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &ProgramCache{baseDir: path}, nil
}

// Path returns the cache directory path.
func (c *ProgramCache) Path() string {
	return c.baseDir
}

// GetPath returns the cache file for a game version. Both parts are
// escaped, so '@' cannot appear in either.
func (c *ProgramCache) GetPath(uid, version string) string {
	return filepath.Join(c.baseDir, url.PathEscape(uid)+"@"+url.PathEscape(version)+".prg")
}

// Get returns a cached program, if present.
func (c *ProgramCache) Get(uid, version string) ([]byte, bool) {
	data, err := os.ReadFile(c.GetPath(uid, version))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Latest returns the most recently downloaded program for uid, whatever
// its version.
func (c *ProgramCache) Latest(uid string) ([]byte, bool) {
	entries, err := c.List()
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if e.UID == uid {
			data, err := os.ReadFile(e.Path)
			if err == nil && len(data) > 0 {
				return data, true
			}
		}
	}
	return nil, false
}

// Put stores a program, replacing any earlier copy of the same version.
func (c *ProgramCache) Put(uid, version string, code []byte) error {
	destPath := c.GetPath(uid, version)
	tmpPath := destPath + ".tmp"

	if err := os.WriteFile(tmpPath, code, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize cache file: %w", err)
	}
	return nil
}

// List returns all cached programs, newest first.
func (c *ProgramCache) List() ([]CacheEntry, error) {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var result []CacheEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".prg") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		// uid@version.prg
		uid, version, ok := strings.Cut(strings.TrimSuffix(e.Name(), ".prg"), "@")
		if !ok {
			continue
		}
		uid, _ = url.PathUnescape(uid)
		version, _ = url.PathUnescape(version)

		result = append(result, CacheEntry{
			Path:       filepath.Join(c.baseDir, e.Name()),
			UID:        uid,
			Version:    version,
			FileSize:   info.Size(),
			Downloaded: info.ModTime(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Downloaded.After(result[j].Downloaded)
	})
	return result, nil
}

// Clear removes all cached programs.
func (c *ProgramCache) Clear() error {
	entries, err := c.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil {
			return err
		}
	}
	return nil
}
