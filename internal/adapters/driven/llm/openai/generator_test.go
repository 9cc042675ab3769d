package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranda-labs/concierge/internal/core/ports/driven"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gen, err := NewGenerator(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		Model:             "test-model",
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return gen
}

func TestGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(Config{})
	assert.Error(t, err)
}

func TestGenerator_Generate(t *testing.T) {
	var captured chatRequest
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"intent": "dish_search"}`}},
			},
		})
	})

	reply, err := gen.Generate(context.Background(), "classify this", "du saumon ?", driven.GenerateOptions{
		Temperature: 0,
		JSONOnly:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"intent": "dish_search"}`, reply)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "classify this", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.Equal(t, DefaultMaxTokens, captured.MaxTokens, "zero max tokens falls back to the default")
}

func TestGenerator_HTTPErrorStatus(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := gen.Generate(context.Background(), "s", "u", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerator_APIErrorBody(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model not found", "type": "invalid_request_error"},
		})
	})

	_, err := gen.Generate(context.Background(), "s", "u", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerator_EmptyChoices(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := gen.Generate(context.Background(), "s", "u", driven.GenerateOptions{})

	assert.Error(t, err)
}

func TestGenerator_ModelName(t *testing.T) {
	gen, err := NewGenerator(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, gen.ModelName())
}
