package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher()

	digest, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotContains(t, digest, "correct horse")

	assert.True(t, h.Verify("correct horse battery staple", digest))
	assert.False(t, h.Verify("wrong password", digest))
	assert.False(t, h.Verify("", digest))
}
