package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/minkdb/internal/logstore"
	"github.com/0xRadioAc7iv/minkdb/internal/record"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), DefaultDataFile)
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()

	s, err := Open(path)
	require.NoError(t, err)

	return s
}

func mustGet(t *testing.T, s *Store, key string) (string, bool) {
	t.Helper()

	value, found, err := s.Get(key)
	require.NoError(t, err)

	return value, found
}

func TestStoreRoundTrip(t *testing.T) {
	s := openStore(t, tempPath(t))
	defer s.Close()

	pairs := map[string]string{
		"alice":  "30",
		"bob":    "25",
		"emoji":  "🚀🔥",
		"k:with": "punctuation,ok",
	}

	for k, v := range pairs {
		require.NoError(t, s.Put(k, v))
	}

	for k, v := range pairs {
		got, found := mustGet(t, s, k)
		assert.True(t, found, k)
		assert.Equal(t, v, got, k)
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	path := tempPath(t)

	s := openStore(t, path)
	require.NoError(t, s.Put("k", "v1"))
	require.NoError(t, s.Put("k", "v2"))

	got, found := mustGet(t, s, "k")
	assert.True(t, found)
	assert.Equal(t, "v2", got)
	require.NoError(t, s.Close())

	s = openStore(t, path)
	defer s.Close()

	got, found = mustGet(t, s, "k")
	assert.True(t, found)
	assert.Equal(t, "v2", got)
}

func TestStoreMissIsNotAnError(t *testing.T) {
	s := openStore(t, tempPath(t))
	defer s.Close()

	value, found, err := s.Get("never-written")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestStoreRestartScenario(t *testing.T) {
	path := tempPath(t)

	s := openStore(t, path)
	require.NoError(t, s.Put("alice", "30"))
	require.NoError(t, s.Put("bob", "25"))
	require.NoError(t, s.Put("alice", "31"))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	defer s.Close()

	got, found := mustGet(t, s, "alice")
	assert.True(t, found)
	assert.Equal(t, "31", got)

	got, found = mustGet(t, s, "bob")
	assert.True(t, found)
	assert.Equal(t, "25", got)

	_, found = mustGet(t, s, "carol")
	assert.False(t, found)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice 30\nbob 25\nalice 31\n", string(data))
}

func TestStoreOffsetsFollowRecordLengths(t *testing.T) {
	s := openStore(t, tempPath(t))
	defer s.Close()

	pairs := []record.Record{
		{Key: "a", Value: "1"},
		{Key: "bb", Value: "22"},
		{Key: "a", Value: "333"},
		{Key: "dddd", Value: "4"},
	}

	var written int64
	for _, p := range pairs {
		require.NoError(t, s.Put(p.Key, p.Value))

		offset, ok := s.keyDir.Lookup(p.Key)
		require.True(t, ok)
		assert.Equal(t, written, offset, "offset of %q", p.Key)

		written += p.Size()
	}

	assert.Equal(t, written, s.Stats().LogBytes)
}

func TestStorePutRejectsWhitespace(t *testing.T) {
	s := openStore(t, tempPath(t))
	defer s.Close()

	tests := []struct {
		key   string
		value string
	}{
		{"city", "new york"},
		{"new york", "city"},
		{"", "v"},
		{"k", ""},
		{"k", "line\nbreak"},
	}

	for _, tt := range tests {
		err := s.Put(tt.key, tt.value)
		require.ErrorIs(t, err, ErrValidation, "Put(%q, %q)", tt.key, tt.value)
	}

	assert.Zero(t, s.Count())
	assert.Zero(t, s.Stats().LogBytes)
}

func TestStorePutFailureLeavesIndexUntouched(t *testing.T) {
	s := openStore(t, tempPath(t))

	require.NoError(t, s.Put("alice", "30"))
	before, _ := s.keyDir.Lookup("alice")

	// pull the file out from under the store
	require.NoError(t, s.log.Close())

	err := s.Put("alice", "31")
	require.ErrorIs(t, err, ErrIO)

	err = s.Put("bob", "25")
	require.ErrorIs(t, err, ErrIO)

	after, ok := s.keyDir.Lookup("alice")
	assert.True(t, ok)
	assert.Equal(t, before, after)
	assert.False(t, s.Exists("bob"))
}

func TestStoreGetDetectsCorruption(t *testing.T) {
	s := openStore(t, tempPath(t))
	defer s.Close()

	require.NoError(t, s.Put("alice", "30"))
	require.NoError(t, s.Put("bob", "25"))

	// offset in the middle of a record
	s.keyDir.Record("alice", 3)
	_, _, err := s.Get("alice")
	require.ErrorIs(t, err, ErrCorruption)

	// offset of a record that belongs to another key
	s.keyDir.Record("ghost", 0)
	_, _, err = s.Get("ghost")
	require.ErrorIs(t, err, ErrCorruption)

	// offset past the end of the log
	s.keyDir.Record("bob", 1000)
	_, _, err = s.Get("bob")
	require.ErrorIs(t, err, ErrCorruption)
}

func TestStoreRecoverySkipsUndecodableLines(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("alice 30\n\n   \nbob 25 extra tokens\n"), 0644))

	s := openStore(t, path)
	defer s.Close()

	got, found := mustGet(t, s, "alice")
	assert.True(t, found)
	assert.Equal(t, "30", got)

	got, found = mustGet(t, s, "bob")
	assert.True(t, found)
	assert.Equal(t, "25", got)

	assert.Equal(t, 2, s.Count())

	require.NoError(t, s.Put("carol", "40"))
	got, found = mustGet(t, s, "carol")
	assert.True(t, found)
	assert.Equal(t, "40", got)
}

// snapshot reads every indexed key back through Get.
func snapshot(t *testing.T, s *Store) map[string]string {
	t.Helper()

	values := make(map[string]string)
	for _, key := range s.Keys() {
		value, found := mustGet(t, s, key)
		require.True(t, found, key)
		values[key] = value
	}
	return values
}

func TestStoreSealsTornTail(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("alice 30\nalice 3"), 0644))

	s := openStore(t, path)

	// the partial record is the latest for its key, before and after sealing
	first := snapshot(t, s)
	assert.Equal(t, map[string]string{"alice": "3"}, first)

	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice 30\nalice 3\n", string(data))

	s = openStore(t, path)
	assert.Equal(t, first, snapshot(t, s))

	require.NoError(t, s.Put("carol", "40"))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	defer s.Close()

	assert.Equal(t, map[string]string{"alice": "3", "carol": "40"}, snapshot(t, s))
}

// shortWriteFile lets the next write through only up to keep bytes and then
// fails it.
type shortWriteFile struct {
	logstore.File
	fail bool
	keep int
}

func (f *shortWriteFile) Write(p []byte) (int, error) {
	if !f.fail {
		return f.File.Write(p)
	}
	f.fail = false

	n, _ := f.File.Write(p[:min(f.keep, len(p))])
	return n, errors.New("no space left on device")
}

func TestStorePutAfterPartialWriteMatchesRecovery(t *testing.T) {
	path := tempPath(t)

	var sw *shortWriteFile
	s, err := Open(path, WithLogOptions(logstore.WithFileWrapper(func(f logstore.File) logstore.File {
		sw = &shortWriteFile{File: f}
		return sw
	})))
	require.NoError(t, err)

	require.NoError(t, s.Put("alice", "30"))

	sw.fail, sw.keep = true, len("alice 3")
	require.ErrorIs(t, s.Put("alice", "31"), ErrIO)

	// nothing is indexed until the fragment is sealed
	got, found := mustGet(t, s, "alice")
	assert.True(t, found)
	assert.Equal(t, "30", got)

	require.NoError(t, s.Put("bob", "25"))

	live := snapshot(t, s)
	assert.Equal(t, map[string]string{"alice": "3", "bob": "25"}, live)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice 30\nalice 3\nbob 25\n", string(data))

	s = openStore(t, path)
	defer s.Close()

	assert.Equal(t, live, snapshot(t, s))
}

func TestStoreOpenFailsOnInaccessiblePath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "dir", DefaultDataFile))
	require.ErrorIs(t, err, ErrIO)
}

func TestStoreOpenRefusesSecondProcess(t *testing.T) {
	path := tempPath(t)

	s := openStore(t, path)
	defer s.Close()

	_, err := Open(path)
	require.ErrorIs(t, err, ErrIO)
}

func TestStoreKeysAndStats(t *testing.T) {
	path := tempPath(t)

	s := openStore(t, path)
	defer s.Close()

	require.NoError(t, s.Put("b", "2"))
	require.NoError(t, s.Put("a", "1"))
	require.NoError(t, s.Put("b", "3"))

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Exists("a"))
	assert.False(t, s.Exists("c"))

	stats := s.Stats()
	assert.Equal(t, path, stats.Path)
	assert.Equal(t, 2, stats.Keys)
	assert.Equal(t, int64(len("b 2\na 1\nb 3\n")), stats.LogBytes)
}
