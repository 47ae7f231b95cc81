package otel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimScheme(t *testing.T) {
	assert.Equal(t, "collector:4317", trimScheme("http://collector:4317"))
	assert.Equal(t, "collector:4317", trimScheme("https://collector:4317"))
	assert.Equal(t, "collector:4317", trimScheme("collector:4317"))
}
