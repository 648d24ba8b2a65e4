package api

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalEnvelope(t *testing.T, v any) map[string]any {
	t.Helper()

	result, err := EnvelopeTransformer(nil, "200", v)
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	out := marshalEnvelope(t, map[string]string{"id": "book-1"})

	assert.EqualValues(t, 1, out["v"])
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out, "data")
	assert.NotContains(t, out, "error")
}

func TestEnvelopeTransformer_SimpleError(t *testing.T) {
	out := marshalEnvelope(t, &APIError{Message: "not found"})

	assert.EqualValues(t, 1, out["v"])
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "not found", out["error"])
	assert.NotContains(t, out, "data")
}

func TestEnvelopeTransformer_DetailedError(t *testing.T) {
	out := marshalEnvelope(t, &APIError{
		Code:    "CONFLICT",
		Message: "already exists",
		Details: map[string]string{"existing_id": "book-1"},
	})

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "CONFLICT", out["code"])
	assert.Equal(t, "already exists", out["message"])
	assert.Contains(t, out, "details")
}
