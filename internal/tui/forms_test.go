package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireNonBlank(t *testing.T) {
	assert.Error(t, requireNonBlank(""))
	assert.Error(t, requireNonBlank("   "))
	assert.NoError(t, requireNonBlank("eyJhbGci"))
}
