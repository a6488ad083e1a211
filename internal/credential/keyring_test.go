package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_PrefersEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	v, err := Lookup(ClaudeAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestLookup_GeminiFallsBackToGenericVariable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "generic")

	v, err := Lookup(GeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "generic", v)
}
