package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pverel/imageforge-api/internal/config"
)

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Default:       "primary",
		MaxConcurrent: 2,
		Configs: []config.APIConfig{
			{Name: "primary", BaseURL: "https://one.example.com", APIKey: "secret-key-one", Model: "model-a"},
			{Name: "backup", BaseURL: "https://two.example.com", APIKey: "secret-key-two"},
		},
	}
}

func TestListConfigs(t *testing.T) {
	t.Parallel()

	router := newConfigRouter(NewConfigHandler(testGenerationConfig(), &mockTaskService{}))

	req, err := http.NewRequest(http.MethodGet, "/api/configs", nil)
	require.NoError(t, err)
	rr := executeRequest(router, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ConfigsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "primary", resp.Default)
	require.Len(t, resp.Configs, 2)
	assert.Equal(t, "primary", resp.Configs[0].Name)

	// API keys must never appear in the listing.
	assert.NotContains(t, rr.Body.String(), "secret-key-one")
	assert.NotContains(t, rr.Body.String(), "api_key")
}

func TestSetConcurrency(t *testing.T) {
	t.Parallel()

	t.Run("applied", func(t *testing.T) {
		t.Parallel()

		var gotCount int
		svc := &mockTaskService{
			ReconfigureFn: func(workerCount int) int {
				gotCount = workerCount
				return workerCount
			},
		}
		router := newConfigRouter(NewConfigHandler(testGenerationConfig(), svc))

		resp := postJSON(t, router, "/api/config/concurrent", map[string]any{
			"max_concurrent": 5,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body ConcurrencyResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, 5, body.MaxConcurrent)
		assert.Equal(t, 5, gotCount)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		router := newConfigRouter(NewConfigHandler(testGenerationConfig(), &mockTaskService{}))

		for _, count := range []int{0, -1, 11} {
			resp := postJSON(t, router, "/api/config/concurrent", map[string]any{
				"max_concurrent": count,
			})
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "max_concurrent=%d", count)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		router := newConfigRouter(NewConfigHandler(testGenerationConfig(), &mockTaskService{}))

		req, err := http.NewRequest(http.MethodPost, "/api/config/concurrent",
			bytes.NewReader([]byte("nope")))
		require.NoError(t, err)
		rr := executeRequest(router, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
