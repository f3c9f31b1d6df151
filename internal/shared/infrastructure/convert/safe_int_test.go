package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint(t *testing.T) {
	got, err := Uint(42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), got)

	_, err = Uint(-1)
	assert.Error(t, err)
}

func TestClampUint(t *testing.T) {
	assert.Equal(t, uint(0), ClampUint(-5))
	assert.Equal(t, uint(0), ClampUint(0))
	assert.Equal(t, uint(7), ClampUint(7))
}
