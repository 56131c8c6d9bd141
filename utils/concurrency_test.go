package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldown(t *testing.T) {
	assert := assert.New(t)
	now := time.Unix(0, 0)
	c := NewCooldown(5 * time.Second)
	c.now = func() time.Time { return now }

	assert.True(c.Allow("u1"))
	assert.False(c.Allow("u1"))
	assert.True(c.Allow("u2"))

	now = now.Add(5 * time.Second)
	assert.True(c.Allow("u1"))
	assert.Equal(1, c.Cleanup())
}
