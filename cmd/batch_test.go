package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messages.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadBatchInput(t *testing.T) {
	path := writeTempFile(t, `{"text": "first message"}

{"text": "second message"}
`)

	texts, err := readBatchInput(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first message", "second message"}, texts)
}

func TestReadBatchInput_InvalidJSONLine(t *testing.T) {
	path := writeTempFile(t, `{"text": "ok"}
not json
`)

	_, err := readBatchInput(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadBatchInput_EmptyText(t *testing.T) {
	path := writeTempFile(t, `{"text": "   "}`)

	_, err := readBatchInput(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty text")
}

func TestReadBatchInput_MissingFile(t *testing.T) {
	_, err := readBatchInput(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestReadMessage_FromFile(t *testing.T) {
	path := writeTempFile(t, "Order AB123-45: motor broken")

	text, err := readMessage(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Order AB123-45: motor broken", text)
}

func TestReadMessage_FromArgs(t *testing.T) {
	text, err := readMessage("", []string{"quote", "please"})
	require.NoError(t, err)
	assert.Equal(t, "quote please", text)
}

func TestReadMessage_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "   \n")

	_, err := readMessage(path, nil)
	assert.Error(t, err)
}
