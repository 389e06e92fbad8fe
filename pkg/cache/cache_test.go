package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeen(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	assert.False(t, h.Seen("abc"))
	assert.True(t, h.Seen("abc"))
	assert.True(t, h.Seen("abc"))
	assert.False(t, h.Seen("def"))

	assert.Equal(t, 2, h.Count())
}
