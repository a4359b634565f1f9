package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlearn/smartlearn-api/internal/service/auth"
)

func TestGenerate(t *testing.T) {
	hasher := auth.NewBcryptHasher(4)
	var out bytes.Buffer

	failed := generate(&out, hasher, []string{"correct-horse", "short", strings.Repeat("x", 73)})
	assert.Equal(t, 2, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	parts := strings.SplitN(lines[0], "\t", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "correct-horse", parts[0])
	assert.NoError(t, hasher.Compare(parts[1], "correct-horse"))

	assert.Contains(t, lines[1], "at least 8 characters")
	assert.Contains(t, lines[2], "at most 72 characters")
}

func TestReadLinesSkipsBlankLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("one-password\n\ntwo-password\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one-password", "two-password"}, lines)
}
