package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medlemsys/campaign-engine/internal/token"
)

func TestNewUnique(t *testing.T) {
	const n = 10000
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		tok := token.New()
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

func TestValid(t *testing.T) {
	assert.True(t, token.Valid(token.New()))
	assert.False(t, token.Valid(""))
	assert.False(t, token.Valid("not-a-token"))
	assert.False(t, token.Valid("12345"))
}
