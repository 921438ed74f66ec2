package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
)

// SavePreset stores a colour round under name.
func SavePreset(w io.Writer, s *store.Store, seq protocol.ColorSequence, name, method string) (string, error) {
	if seq.Len() == 0 {
		return "", fmt.Errorf("no colours selected")
	}

	hash, isNew, err := s.Import(seq.Payload(), name, store.Source{
		Timestamp: time.Now(),
		Method:    method,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save preset: %w", err)
	}

	if isNew {
		fmt.Fprintf(w, "Saved preset %s", store.ShortHash(hash))
	} else {
		fmt.Fprintf(w, "Preset already exists: %s", store.ShortHash(hash))
	}
	if name != "" {
		fmt.Fprintf(w, " (%s)", name)
	}
	fmt.Fprintln(w)
	return hash, nil
}

// ListPresets prints the saved rounds, newest first.
func ListPresets(w io.Writer, s *store.Store) error {
	entries, err := s.List()
	if err != nil {
		return fmt.Errorf("failed to list presets: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No presets saved")
		return nil
	}

	fmt.Fprintf(w, "%-12s %-20s %-17s %s\n", "HASH", "NAME", "CREATED", "COLOURS")
	for _, e := range entries {
		fmt.Fprintf(w, "%-12s %-20s %-17s %s\n",
			store.ShortHash(e.Hash),
			e.Name,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			strings.Join(e.Colors, ","))
	}
	return nil
}

// LoadPreset resolves ref and returns its colour sequence.
func LoadPreset(s *store.Store, ref string) (protocol.ColorSequence, *store.Metadata, error) {
	hash, err := s.Resolve(ref)
	if err != nil {
		return protocol.ColorSequence{}, nil, err
	}
	meta, err := s.GetMetadata(hash)
	if err != nil {
		return protocol.ColorSequence{}, nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	payload, err := s.Get(hash)
	if err != nil {
		return protocol.ColorSequence{}, nil, fmt.Errorf("failed to read preset: %w", err)
	}

	var seq protocol.ColorSequence
	for _, b := range payload {
		seq.Add(protocol.ColorName(b))
	}
	return seq, meta, nil
}
