package cache

import (
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestIsMiss(t *testing.T) {
	assert.True(t, IsMiss(redis.Nil))
	assert.True(t, IsMiss(fmt.Errorf("get key: %w", redis.Nil)))
	assert.False(t, IsMiss(errors.New("connection refused")))
	assert.False(t, IsMiss(nil))
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("not-a-url")
	assert.Error(t, err)
}
