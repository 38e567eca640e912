package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/grammarls/document"
	"github.com/dhamidi/grammarls/session"
)

func TestReportStats(t *testing.T) {
	docs := session.NewTracker()
	docs.DidOpen("file:///a.sm", "statemachine", 1, "")
	_, err := docs.DidChange("file:///a.sm", 2, []document.Change{{Text: "state s {}"}})
	require.NoError(t, err)
	_, err = docs.DidClose("file:///a.sm")
	require.NoError(t, err)

	var out bytes.Buffer
	reportStats(&out, docs)
	assert.Equal(t, "documents: opens=1 changes=1 rejects=0 closes=1\n", out.String())
}

func TestLSPCommandFlags(t *testing.T) {
	cmd := newLSPCmd()
	cmd.SetArgs([]string{"--tcp", ":1", "--websocket", ":2"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "exclusive")
}
