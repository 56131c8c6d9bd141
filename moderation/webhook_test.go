package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookStrikes(t *testing.T) {
	assert := assert.New(t)
	w := NewWebhookStrikes(3)

	count, triggered := w.Strike()
	assert.Equal(1, count)
	assert.False(triggered)
	w.Strike()

	count, triggered = w.Strike()
	assert.Equal(3, count)
	assert.True(triggered)
	assert.Equal(0, w.Count())
}
