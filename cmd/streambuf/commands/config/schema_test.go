package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_UsesFileKeys(t *testing.T) {
	data, err := json.Marshal(Schema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok, "schema has properties")
	for _, key := range []string{"logging", "telemetry", "metrics", "api", "accumulator", "shutdown_timeout"} {
		assert.Contains(t, props, key)
	}

	acc := props["accumulator"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, acc, "max_content_length")
	assert.Contains(t, acc, "clean_batch_size")
}
