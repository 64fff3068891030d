package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	require.Equal(t, Prefs{}, p)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")
	in := Prefs{
		ServerURL: "http://localhost:9901",
		Token:     "tok-123",
		UserID:    "u-1",
		Email:     "a@b.c",
		Theme:     "dark",
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, in, out)

	// no temp file left behind
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, Save(path, Prefs{Token: "old"}))
	require.NoError(t, Save(path, Prefs{Token: "new"}))
	out, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "new", out.Token)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
