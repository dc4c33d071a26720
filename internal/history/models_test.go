package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntry_Succeeded(t *testing.T) {
	assert.True(t, Entry{BuildNumber: 1}.Succeeded())
	assert.False(t, Entry{Error: "BuildKite token required"}.Succeeded())
}
