package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMinkDB(t *testing.T, input string, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--log-level", "error"))
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestLocalSessionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	out := runMinkDB(t, "put alice 30\nput bob 25\nput alice 31\n", "--data-file", path)
	assert.Equal(t, "Loaded 0 keys from "+path+"\n"+
		"Wrote alice to "+path+"\n"+
		"Wrote bob to "+path+"\n"+
		"Wrote alice to "+path+"\n", out)

	out = runMinkDB(t, "get alice\nget bob\nget carol\n", "--data-file", path)
	assert.Equal(t, "Loaded 2 keys from "+path+"\n"+
		"Value: 31\n"+
		"Value: 25\n"+
		"Key not found\n", out)
}

func TestDataFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("MINKDB_DATA_FILE", path)

	out := runMinkDB(t, "put k v\n")
	assert.Contains(t, out, "Wrote k to "+path)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level", "loud", "--data-file", filepath.Join(t.TempDir(), "data.db")})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestMistypedEnvIsRejected(t *testing.T) {
	t.Setenv("MINKDB_PORT", "69o9")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--data-file", filepath.Join(t.TempDir(), "data.db")})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINKDB_PORT")
}

func TestOpenFailureIsFatal(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level", "error", "--data-file", filepath.Join(t.TempDir(), "missing", "data.db")})
	cmd.SetIn(strings.NewReader("put a 1\n"))
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}
