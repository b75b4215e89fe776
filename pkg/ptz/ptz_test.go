package ptz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, -1, 1))
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-1, -1, 1))
	assert.Equal(t, 1.0, Clamp(1, -1, 1))
}
