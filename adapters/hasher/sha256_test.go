package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	h := New()

	// sha256("hello") = 2cf24dba5fb0a30e26e83b2ac5b9e29e...
	assert.Equal(t, "2cf24dba5fb0a30e", h.Hash([]byte("hello")))
	assert.Equal(t, h.Hash([]byte("loan")), h.Hash([]byte("loan")))
	assert.NotEqual(t, h.Hash([]byte("loan")), h.Hash([]byte("Loan")))
	assert.Len(t, h.Hash(nil), fingerprintLen)
}
