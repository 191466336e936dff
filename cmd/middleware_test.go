package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	defer l.Stop()

	assert.True(t, l.GetLimiter("10.0.0.1").Allow())
	assert.False(t, l.GetLimiter("10.0.0.1").Allow())
	assert.True(t, l.GetLimiter("10.0.0.2").Allow())
	assert.Same(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.1"))
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	defer l.Stop()

	l.GetLimiter("10.0.0.1")
	l.cleanup(time.Now())
	assert.Len(t, l.clients, 1)

	l.cleanup(time.Now().Add(4 * time.Minute))
	assert.Empty(t, l.clients)
}
