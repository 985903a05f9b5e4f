package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"kicky/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteFileName(t *testing.T) {
	tests := []struct {
		name string
		note string
		want string
	}{
		{"kick01.wav", "C#", "kick01 (C#).wav"},
		{"Kick 808.WAV", "A", "Kick 808 (A).WAV"},
		{"kick.wav.wav", "E", "kick.wav (E).wav"},
		{"noext", "G", "noext (G)"},
		{"boom.wav", "Unknown", "boom (Unknown).wav"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NoteFileName(tt.name, tt.note), tt.name)
	}
}

func TestSuffixFileName(t *testing.T) {
	assert.Equal(t, "kick (C) 2.wav", SuffixFileName("kick (C).wav", 2))
	assert.Equal(t, "kick 10", SuffixFileName("kick", 10))
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "kick (C).wav")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kick (C) 2.wav"), []byte("old"), 0o644))

	t.Run("overwrite", func(t *testing.T) {
		got, err := ResolveOutputPath(dir, "kick (C).wav", types.CollisionOverwrite, nil)
		require.NoError(t, err)
		assert.Equal(t, existing, got)
	})

	t.Run("suffix", func(t *testing.T) {
		got, err := ResolveOutputPath(dir, "kick (C).wav", types.CollisionSuffix, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "kick (C) 3.wav"), got)
	})

	t.Run("suffix respects reservations", func(t *testing.T) {
		reserved := map[string]bool{filepath.Join(dir, "kick (C) 3.wav"): true}
		taken := func(p string) bool { return reserved[p] || FileExists(p) }

		got, err := ResolveOutputPath(dir, "kick (C).wav", types.CollisionSuffix, taken)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "kick (C) 4.wav"), got)
	})

	t.Run("error", func(t *testing.T) {
		_, err := ResolveOutputPath(dir, "kick (C).wav", types.CollisionError, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrCollision)
		assert.ErrorIs(t, err, types.ErrIO)

		got, err := ResolveOutputPath(dir, "snare (D).wav", types.CollisionError, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "snare (D).wav"), got)
	})
}

func TestCopyFileByteIdentical(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	dst := filepath.Join(dir, "out.wav")

	payload := make([]byte, 100_000)
	for i := range payload {
		payload[i] = byte(i * 31)
	}
	require.NoError(t, os.WriteFile(src, payload, 0o600))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// 源文件不受影响
	again, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, payload, again)
}

func TestCopyFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	dst := filepath.Join(dir, "out.wav")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("a much longer old payload"), 0o644))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestCopyFileErrors(t *testing.T) {
	dir := t.TempDir()

	err := CopyFile(filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)

	src := filepath.Join(dir, "in.wav")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	err = CopyFile(src, filepath.Join(dir, "no-such-dir", "out.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
}
