package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	raw, hash, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.Equal(t, HashToken(raw), hash)
	assert.NotEqual(t, raw, hash)

	other, _, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}

func TestLink(t *testing.T) {
	assert.Equal(t,
		"http://localhost:3000/verify-email?token=abc",
		Link("http://localhost:3000/", "/verify-email", "abc"),
	)
}
