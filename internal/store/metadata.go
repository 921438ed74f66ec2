package store

import (
	"time"

	"github.com/soundleap/soundleap-cli/internal/protocol"
)

// Metadata describes a saved colour round.
type Metadata struct {
	ContentHash string    `json:"content_hash"`
	Name        string    `json:"name"`
	Colors      []string  `json:"colors"`
	Size        int       `json:"size"`
	Sources     []Source  `json:"sources"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Source records how a preset entered the store.
type Source struct {
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"` // "save", "tui", "import"
	Filename  string    `json:"filename,omitempty"`
}

// ExtractMetadata decodes the colour names of a payload.
func ExtractMetadata(payload []byte, hash, name string) *Metadata {
	colors := make([]string, len(payload))
	for i, b := range payload {
		colors[i] = protocol.ColorName(b)
		if colors[i] == "" {
			colors[i] = "none"
		}
	}

	now := time.Now()
	return &Metadata{
		ContentHash: hash,
		Name:        name,
		Colors:      colors,
		Size:        len(payload),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Sequence rebuilds the colour sequence recorded in the metadata.
func (m *Metadata) Sequence() protocol.ColorSequence {
	return protocol.NewColorSequence(m.Colors...)
}
