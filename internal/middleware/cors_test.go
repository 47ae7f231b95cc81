package middleware

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
)

func newCORSServer(allowed []string) *server.Hertz {
	h := server.New()
	h.Use(CORSMiddleware(allowed))
	h.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.String(consts.StatusOK, "pong")
	})
	return h
}

func TestCORSAllowList(t *testing.T) {
	h := newCORSServer([]string{"https://app.careonboard.in/"})

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/ping", nil,
		ut.Header{Key: "Origin", Value: "https://app.careonboard.in"})
	resp := w.Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Equal(t, "https://app.careonboard.in", string(resp.Header.Peek("Access-Control-Allow-Origin")))

	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/ping", nil,
		ut.Header{Key: "Origin", Value: "https://evil.example"})
	resp = w.Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Header.Peek("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	h := newCORSServer(nil)

	w := ut.PerformRequest(h.Engine, consts.MethodOptions, "/ping", nil,
		ut.Header{Key: "Origin", Value: "http://localhost:5173"})
	resp := w.Result()
	assert.Equal(t, consts.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "http://localhost:5173", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	assert.Contains(t, string(resp.Header.Peek("Access-Control-Allow-Methods")), "PUT")
}
