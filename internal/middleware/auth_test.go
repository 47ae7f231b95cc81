package middleware

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
	"github.com/stretchr/testify/assert"
)

func TestIdentityFromClaims(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   interface{}
	}{
		{"access token", jwt.MapClaims{IdentityKey: "uid-1"}, "uid-1"},
		{"refresh token", jwt.MapClaims{IdentityKey: "uid-1", "type": "refresh"}, nil},
		{"missing uid", jwt.MapClaims{}, nil},
		{"empty uid", jwt.MapClaims{IdentityKey: ""}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := app.NewContext(0)
			c.Set("JWT_PAYLOAD", tc.claims)
			assert.Equal(t, tc.want, identityFromClaims(context.Background(), c))
		})
	}
}

func TestGetUserID(t *testing.T) {
	c := app.NewContext(0)
	_, ok := GetUserID(context.Background(), c)
	assert.False(t, ok)

	c.Set(IdentityKey, "")
	_, ok = GetUserID(context.Background(), c)
	assert.False(t, ok)

	c.Set(IdentityKey, "uid-1")
	id, ok := GetUserID(context.Background(), c)
	assert.True(t, ok)
	assert.Equal(t, "uid-1", id)
}
