package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPattern(t *testing.T) {
	assert.Equal(t, "cob:otp:*", KeyPattern([]interface{}{"get", "cob:otp:txn:123"}))
	assert.Equal(t, "cob:wizard", KeyPattern([]interface{}{"get", "cob:wizard"}))
	assert.Equal(t, "", KeyPattern([]interface{}{"ping"}))
	assert.Equal(t, "", KeyPattern([]interface{}{"set", 42}))
}
