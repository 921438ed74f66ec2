package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("preset not found")
	ErrAmbiguous = errors.New("preset reference is ambiguous")
)

// Store manages a content-addressable collection of colour round presets.
type Store struct {
	baseDir     string
	presetsDir  string
	metadataDir string
	indexPath   string
}

// Index contains quick lookup information for all presets.
type Index struct {
	Presets   map[string]IndexEntry `json:"presets"` // hash -> entry
	UpdatedAt time.Time             `json:"updated_at"`
}

// IndexEntry contains summary info for quick listing.
type IndexEntry struct {
	Hash      string    `json:"-"`
	Name      string    `json:"name"`
	Colors    []string  `json:"colors"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultPath returns the store path under a data directory.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "store")
}

// Open opens or creates a store at the given path.
func Open(path string) (*Store, error) {
	s := &Store{
		baseDir:     path,
		presetsDir:  filepath.Join(path, "presets"),
		metadataDir: filepath.Join(path, "metadata"),
		indexPath:   filepath.Join(path, "index.json"),
	}

	if err := os.MkdirAll(s.presetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets dir: %w", err)
	}
	if err := os.MkdirAll(s.metadataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata dir: %w", err)
	}

	return s, nil
}

// Import adds a preset to the store.
// If the payload already exists (same hash), it records the source and
// renames it when name is set. Returns the hash and whether it was new.
func (s *Store) Import(payload []byte, name string, source Source) (string, bool, error) {
	hash, err := ContentHash(payload)
	if err != nil {
		return "", false, err
	}

	presetPath := filepath.Join(s.presetsDir, hashToFilename(hash)+".bin")
	metaPath := filepath.Join(s.metadataDir, hashToFilename(hash)+".json")

	isNew := false
	var meta *Metadata

	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		isNew = true
		meta = ExtractMetadata(payload, hash, name)
		meta.Sources = []Source{source}

		if err := os.WriteFile(presetPath, payload, 0644); err != nil {
			return "", false, fmt.Errorf("failed to write preset: %w", err)
		}
	} else {
		meta, err = s.GetMetadata(hash)
		if err != nil {
			return "", false, err
		}
		if name != "" {
			meta.Name = name
		}
		meta.Sources = append(meta.Sources, source)
		meta.UpdatedAt = time.Now()
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", false, fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := s.updateIndex(func(idx *Index) {
		idx.Presets[hash] = IndexEntry{Name: meta.Name, Colors: meta.Colors, CreatedAt: meta.CreatedAt}
	}); err != nil {
		return "", false, fmt.Errorf("failed to update index: %w", err)
	}

	return hash, isNew, nil
}

// Get retrieves the payload of a preset by full hash.
func (s *Store) Get(hash string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.presetsDir, hashToFilename(hash)+".bin"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ShortHash(hash))
	}
	return data, err
}

// GetMetadata retrieves preset metadata by full hash.
func (s *Store) GetMetadata(hash string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.metadataDir, hashToFilename(hash)+".json"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ShortHash(hash))
	}
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

// Resolve maps a full hash, a hash prefix (with or without "sha256:") or
// an exact preset name to a full hash.
func (s *Store) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	index, err := s.loadIndex()
	if err != nil {
		return "", err
	}

	if _, ok := index.Presets[ref]; ok {
		return ref, nil
	}

	var byName, byPrefix []string
	prefix := hashToFilename(strings.ToLower(ref))
	for hash, entry := range index.Presets {
		if entry.Name == ref {
			byName = append(byName, hash)
		}
		if strings.HasPrefix(hashToFilename(hash), prefix) {
			byPrefix = append(byPrefix, hash)
		}
	}

	for _, matches := range [][]string{byName, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("%w: %q matches %d presets", ErrAmbiguous, ref, len(matches))
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// List returns all presets, newest first.
func (s *Store) List() ([]IndexEntry, error) {
	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(index.Presets))
	for hash, entry := range index.Presets {
		entry.Hash = hash
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Hash < entries[j].Hash
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}

// Delete removes a preset and its metadata.
func (s *Store) Delete(hash string) error {
	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	if _, ok := index.Presets[hash]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ShortHash(hash))
	}

	for _, p := range []string{
		filepath.Join(s.presetsDir, hashToFilename(hash)+".bin"),
		filepath.Join(s.metadataDir, hashToFilename(hash)+".json"),
	} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(p), err)
		}
	}

	return s.updateIndex(func(idx *Index) {
		delete(idx.Presets, hash)
	})
}

// Export writes a preset payload to a file.
func (s *Store) Export(hash, destPath string) error {
	data, err := s.Get(hash)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0644)
}

// Count returns the number of presets in the store.
func (s *Store) Count() (int, error) {
	index, err := s.loadIndex()
	if err != nil {
		return 0, err
	}
	return len(index.Presets), nil
}

func (s *Store) loadIndex() (*Index, error) {
	data, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		return &Index{Presets: make(map[string]IndexEntry)}, nil
	}
	if err != nil {
		return nil, err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if index.Presets == nil {
		index.Presets = make(map[string]IndexEntry)
	}
	return &index, nil
}

func (s *Store) updateIndex(mutate func(*Index)) error {
	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	mutate(index)
	index.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.indexPath, data, 0644)
}
