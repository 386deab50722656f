package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFileResolvesKnownExtensions(t *testing.T) {
	a, err := ForFile("widget.cpp")
	require.NoError(t, err)
	assert.Equal(t, "cpp", a.Language())
}

func TestForFileRejectsUnknownExtension(t *testing.T) {
	_, err := ForFile("notes.txt")
	assert.Error(t, err)
}
