package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCheckCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	grammarPath := filepath.Join(dir, "list.ebnf")
	require.NoError(t, os.WriteFile(grammarPath, []byte(`
list = "[" { ID } "]" .
WhiteSpace = " " { " " } .
ID = "a" … "z" { "a" … "z" } .
`), 0o644))
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(good, []byte("[ a b ]"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("[ a"), 0o644))

	out, err := runCheck(t, "--grammar", grammarPath, "--jobs", "1", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok\n", out)

	out, err = runCheck(t, "--grammar", grammarPath, "-j", "2", good, bad)
	assert.EqualError(t, err, "1 of 2 files failed to parse")
	assert.Contains(t, out, good+": ok\n")
	assert.Contains(t, out, "unexpected end of input")
}

func TestCheckCommandRejectsNoJobs(t *testing.T) {
	for _, jobs := range []string{"0", "-3"} {
		_, err := runCheck(t, "--grammar", "unused.ebnf", "--jobs="+jobs, "file.txt")
		assert.ErrorContains(t, err, "--jobs must be at least 1", jobs)
	}
}
