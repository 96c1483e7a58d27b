// internal/genai/client_test.go
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"interview-agent/internal/common/config"
	"interview-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(data)
}

func TestGenerateObject_DecodesStructuredOutput(t *testing.T) {
	client := newStreamClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		assert.Equal(t, "system", req.Messages[0].Role)

		fmt.Fprint(w, completion(`{"intent": "resume_opt", "confidence": 0.9}`))
	})

	var out struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	err := client.GenerateObject(context.Background(), "deepseek-chat", "classify this",
		[]ChatMessage{{Role: "user", Content: "fix my resume"}}, 256, &out)

	require.NoError(t, err)
	assert.Equal(t, "resume_opt", out.Intent)
	assert.InDelta(t, 0.9, out.Confidence, 1e-9)
}

func TestGenerateObject_NonJSONContentIsMalformed(t *testing.T) {
	client := newStreamClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completion("sorry, I cannot do that"))
	})

	var out map[string]interface{}
	err := client.GenerateObject(context.Background(), "deepseek-chat", "", nil, 256, &out)

	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestComplete_ReturnsTrimmedText(t *testing.T) {
	client := newStreamClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completion("  Resume review tips\n"))
	})

	text, err := client.Complete(context.Background(), "deepseek-chat", "title it", "help me", 64)

	require.NoError(t, err)
	assert.Equal(t, "Resume review tips", text)
}

func TestDoJSON_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, completion("finally"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.GenAIConfig{
		BaseURL:    srv.URL,
		MaxRetries: 3,
		Timeout:    5000,
	}, logger.NewTestLogger(t))

	text, err := client.Complete(context.Background(), "deepseek-chat", "", "hi", 16)

	require.NoError(t, err)
	assert.Equal(t, "finally", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSON_ExhaustedRetriesReportUnavailable(t *testing.T) {
	client := newStreamClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Complete(context.Background(), "deepseek-chat", "", "hi", 16)

	require.ErrorIs(t, err, ErrBackendUnavailable)
}
