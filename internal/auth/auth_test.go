package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUIDFromContext(t *testing.T) {
	_, ok := GetUIDFromContext(context.Background())
	assert.False(t, ok)

	uid, ok := GetUIDFromContext(WithUID(context.Background(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", uid)

	// An empty id is the same as no id.
	_, ok = GetUIDFromContext(WithUID(context.Background(), ""))
	assert.False(t, ok)
}
