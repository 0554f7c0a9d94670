// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xglog "github.com/ManuGH/epgimport/internal/log"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epgimport.conf")

	require.NoError(t, Store(path, []string{"Rytec DE Basic", "Sports feed"}))
	assert.Equal(t, []string{"Rytec DE Basic", "Sports feed"}, Load(path).Sources)

	// overwrite keeps exactly the new content
	require.NoError(t, Store(path, []string{"only"}))
	assert.Equal(t, []string{"only"}, Load(path).Sources)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_NilIsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epgimport.conf")
	require.NoError(t, Store(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sources": []}`, string(data))
}

func TestLoad_FailuresYieldEmptySelection(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.conf")
	require.NoError(t, os.WriteFile(garbage, []byte("\x80\x04pickle"), 0600))
	noSources := filepath.Join(dir, "nosources.conf")
	require.NoError(t, os.WriteFile(noSources, []byte(`{"other": 1}`), 0600))

	for _, path := range []string{filepath.Join(dir, "missing.conf"), garbage, noSources} {
		got := Load(path)
		assert.NotNil(t, got.Sources, path)
		assert.Empty(t, got.Sources, path)
	}
}

func TestStore_MissingDirectoryFails(t *testing.T) {
	err := Store(filepath.Join(t.TempDir(), "no", "such", "dir", "epgimport.conf"), []string{"x"})
	assert.Error(t, err)
}

func TestStore_ReplaceFailureRemovesPendingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "epgimport.conf")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o600))

	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	err := Store(target, []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "atomically replace settings file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "pending file removed")
	assert.Equal(t, "epgimport.conf", entries[0].Name())
	assert.NotContains(t, buf.String(), "source selection stored")
}

type failingCleaner struct{ err error }

func (f failingCleaner) Cleanup() error { return f.err }

func TestCleanup_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	cleanup(failingCleaner{err: errors.New("remove: busy")}, "/etc/enigma2/epgimport.conf", xglog.WithComponent("settings"))
	assert.Contains(t, buf.String(), "cleanup pending settings file")
	assert.Contains(t, buf.String(), "remove: busy")

	buf.Reset()
	cleanup(failingCleaner{}, "/etc/enigma2/epgimport.conf", xglog.WithComponent("settings"))
	assert.Zero(t, buf.Len())
}
