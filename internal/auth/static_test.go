package auth

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHasCapability(t *testing.T) {
	a := NewStaticAuthorizer("withdraw", []string{"seller", "ops"}, zerolog.Nop())

	assert.True(t, a.HasCapability("seller", "withdraw"))
	assert.True(t, a.HasCapability("ops", "withdraw"))
	assert.False(t, a.HasCapability("mallory", "withdraw"))
	assert.False(t, a.HasCapability("seller", "admin"))
	assert.False(t, a.HasCapability("", "withdraw"))
}

func TestHasCapability_NoGrants(t *testing.T) {
	a := NewStaticAuthorizer("withdraw", nil, zerolog.Nop())

	assert.False(t, a.HasCapability("seller", "withdraw"))
}
