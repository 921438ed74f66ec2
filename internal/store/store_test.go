package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleap/soundleap-cli/internal/protocol"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DefaultPath(t.TempDir()))
	require.NoError(t, err)
	return s
}

func TestContentHash(t *testing.T) {
	h, err := ContentHash([]byte{0x30, 0x32})
	require.NoError(t, err)
	assert.Len(t, h, len("sha256:")+64)
	assert.Len(t, ShortHash(h), 12)

	_, err = ContentHash(nil)
	assert.Error(t, err)
}

func TestImportAndGet(t *testing.T) {
	s := openTemp(t)
	round := protocol.NewColorSequence("red", "green", "blue")

	hash, isNew, err := s.Import(round.Payload(), "warmup", Source{Timestamp: time.Now(), Method: "save"})
	require.NoError(t, err)
	assert.True(t, isNew)

	payload, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, round.Payload(), payload)

	meta, err := s.GetMetadata(hash)
	require.NoError(t, err)
	assert.Equal(t, "warmup", meta.Name)
	assert.Equal(t, []string{"red", "green", "blue"}, meta.Colors)
	assert.Equal(t, round.Payload(), meta.Sequence().Payload())
}

func TestImportDuplicateRecordsSource(t *testing.T) {
	s := openTemp(t)
	payload := []byte{0x31, 0x31}

	h1, _, err := s.Import(payload, "first", Source{Method: "save"})
	require.NoError(t, err)
	h2, isNew, err := s.Import(payload, "", Source{Method: "tui"})
	require.NoError(t, err)

	assert.False(t, isNew)
	assert.Equal(t, h1, h2)

	meta, err := s.GetMetadata(h1)
	require.NoError(t, err)
	assert.Equal(t, "first", meta.Name, "empty name keeps the old one")
	assert.Len(t, meta.Sources, 2)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUnknownColourStoredAsNone(t *testing.T) {
	s := openTemp(t)
	hash, _, err := s.Import([]byte{0x30, 0x00}, "odd", Source{Method: "save"})
	require.NoError(t, err)

	meta, err := s.GetMetadata(hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "none"}, meta.Colors)
	assert.Equal(t, []byte{0x30, 0x00}, meta.Sequence().Payload())
}

func TestResolve(t *testing.T) {
	s := openTemp(t)
	h1, _, err := s.Import([]byte{0x30}, "solo-red", Source{Method: "save"})
	require.NoError(t, err)
	h2, _, err := s.Import([]byte{0x33}, "solo-blue", Source{Method: "save"})
	require.NoError(t, err)

	got, err := s.Resolve(h1)
	require.NoError(t, err)
	assert.Equal(t, h1, got)

	got, err = s.Resolve("solo-blue")
	require.NoError(t, err)
	assert.Equal(t, h2, got)

	got, err = s.Resolve(ShortHash(h2))
	require.NoError(t, err)
	assert.Equal(t, h2, got)

	_, err = s.Resolve("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Resolve("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAmbiguousName(t *testing.T) {
	s := openTemp(t)
	_, _, err := s.Import([]byte{0x30}, "same", Source{Method: "save"})
	require.NoError(t, err)
	_, _, err = s.Import([]byte{0x31}, "same", Source{Method: "save"})
	require.NoError(t, err)

	_, err = s.Resolve("same")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestListAndDelete(t *testing.T) {
	s := openTemp(t)
	h1, _, err := s.Import([]byte{0x30}, "a", Source{Method: "save"})
	require.NoError(t, err)
	_, _, err = s.Import([]byte{0x31}, "b", Source{Method: "save"})
	require.NoError(t, err)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.Hash)
	}

	require.NoError(t, s.Delete(h1))
	entries, err = s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Name)

	_, err = s.Get(h1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(h1), ErrNotFound)
}

func TestExport(t *testing.T) {
	s := openTemp(t)
	hash, _, err := s.Import([]byte{0x32, 0x33}, "x", Source{Method: "save"})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "round.bin")
	require.NoError(t, s.Export(hash, dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x32, 0x33}, data)
}
