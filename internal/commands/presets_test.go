package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
)

func TestPresetRoundTrip(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	seq := protocol.NewColorSequence("red", "blue", "green")
	hash, err := SavePreset(&out, s, seq, "warmup", "save")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Saved preset")
	assert.Contains(t, out.String(), "warmup")

	out.Reset()
	again, err := SavePreset(&out, s, seq, "", "save")
	require.NoError(t, err)
	assert.Equal(t, hash, again)
	assert.Contains(t, out.String(), "already exists")

	got, meta, err := LoadPreset(s, "warmup")
	require.NoError(t, err)
	assert.Equal(t, seq.Payload(), got.Payload())
	assert.Equal(t, []string{"red", "blue", "green"}, meta.Colors)

	out.Reset()
	require.NoError(t, ListPresets(&out, s))
	assert.Contains(t, out.String(), store.ShortHash(hash))
	assert.Contains(t, out.String(), "red,blue,green")
}

func TestSavePresetEmpty(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	_, err = SavePreset(&bytes.Buffer{}, s, protocol.ColorSequence{}, "x", "save")
	assert.Error(t, err)
}

func TestListPresetsEmpty(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListPresets(&out, s))
	assert.Equal(t, "No presets saved\n", out.String())
}

func TestLoadPresetMissing(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	_, _, err = LoadPreset(s, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
