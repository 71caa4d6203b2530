package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken()
	assert.NoError(t, err)
	b, err := GenerateOpaqueToken()
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43) // 32 bytes, base64 raw URL encoding
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "+")
}
