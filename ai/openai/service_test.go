package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/poiesic/semkit/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedRequest records what the fake API server received.
type capturedRequest struct {
	Path    string
	Query   string
	Headers http.Header
	Body    map[string]any
}

func newFakeAPI(t *testing.T, reply string) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		captured = append(captured, capturedRequest{
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		})
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(ai.NewConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey")
}

func TestServiceOpenAI(t *testing.T) {
	srv, requests := newFakeAPI(t, "A T-rex walks into a bar...")

	svc, err := NewService(ai.NewConfig(
		ai.WithAPIKey("sk-test"),
		ai.WithOrgID("org-42"),
		ai.WithEndpoint(srv.URL+"/v1/"),
		ai.WithHTTPClient(srv.Client()),
	))
	require.NoError(t, err)
	defer svc.Close()

	assert.Nil(t, svc.Embedder(), "no embedding model configured")

	settings := &ai.RequestSettings{
		Temperature:      0.5,
		TopP:             0.9,
		MaxTokens:        500,
		StopSequences:    []string{"###"},
		ChatSystemPrompt: "You are a comedian.",
	}
	out, err := svc.Complete(context.Background(), "Tell a joke about dinosaurs", settings)
	require.NoError(t, err)
	assert.Equal(t, "A T-rex walks into a bar...", out)

	reqs := requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "/v1/chat/completions", req.Path)
	assert.Equal(t, "Bearer sk-test", req.Headers.Get("Authorization"))
	assert.Equal(t, "org-42", req.Headers.Get("OpenAI-Organization"))
	assert.Equal(t, "gpt-3.5-turbo", req.Body["model"])

	messages, ok := req.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestServiceAzure(t *testing.T) {
	srv, requests := newFakeAPI(t, "ok")

	svc, err := NewService(ai.NewConfig(
		ai.WithProvider(ai.ProviderAzure),
		ai.WithAPIKey("azure-key"),
		ai.WithEndpoint(srv.URL),
		ai.WithDeployment("gpt-35-turbo"),
		ai.WithHTTPClient(srv.Client()),
	))
	require.NoError(t, err)

	out, err := svc.CompleteChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/openai/deployments/gpt-35-turbo/chat/completions", reqs[0].Path)
	assert.Contains(t, reqs[0].Query, "api-version="+ai.DefaultAzureAPIVersion)
	assert.Equal(t, "azure-key", reqs[0].Headers.Get("api-key"))
}

func TestMessageType(t *testing.T) {
	assert.Equal(t, "system", string(messageType(ai.RoleSystem)))
	assert.Equal(t, "ai", string(messageType(ai.RoleAssistant)))
	assert.Equal(t, "human", string(messageType(ai.RoleUser)))
	assert.Equal(t, "human", string(messageType("")))
}

func TestCallOptions(t *testing.T) {
	assert.Len(t, callOptions(nil), 3, "defaults: temperature, top_p, max_tokens")
	assert.Len(t, callOptions(&ai.RequestSettings{}), 1, "temperature is always sent")
	assert.Len(t, callOptions(&ai.RequestSettings{
		TopP: 1, MaxTokens: 10, PresencePenalty: 0.1, FrequencyPenalty: 0.2, StopSequences: []string{"x"},
	}), 6)
}

func TestNewEmbedderRequiresModel(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithAPIKey("k")))
	assert.ErrorIs(t, err, ai.ErrEmbeddingsUnavailable)

	emb, err := NewEmbedder(ai.NewConfig(ai.WithAPIKey("k"), ai.WithEmbeddingModel("text-embedding-3-small")))
	require.NoError(t, err)
	assert.NotNil(t, emb)
}
