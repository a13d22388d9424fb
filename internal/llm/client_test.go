package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

// fakeEndpoint mimics the chat-completions API: it captures the last request
// and answers every call with a fixed content string.
type fakeEndpoint struct {
	content     string
	lastPath    string
	lastPayload map[string]interface{}
}

func (f *fakeEndpoint) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&f.lastPayload)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": f.content}},
			},
		})
	})
}

func newFakeClient(t *testing.T, content string) (*Client, *fakeEndpoint) {
	t.Helper()
	endpoint := &fakeEndpoint{content: content}
	ts := httptest.NewServer(endpoint.handler())
	t.Cleanup(ts.Close)

	client := NewClient(Options{
		Endpoint:  ts.URL,
		Model:     "test-model",
		MaxTokens: 350,
		Timeout:   5 * time.Second,
	}, logging.Discard())
	return client, endpoint
}

func TestCompleteHitsChatCompletionsPath(t *testing.T) {
	client, endpoint := newFakeClient(t, "hello")

	out, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "/v1/chat/completions", endpoint.lastPath)
	assert.Equal(t, "test-model", endpoint.lastPayload["model"])
}

func TestCompleteNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(ts.Close)

	client := NewClient(Options{Endpoint: ts.URL, Model: "m", Timeout: time.Second}, logging.Discard())
	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestParseReceiptTextPromptCarriesTaxonomy(t *testing.T) {
	client, endpoint := newFakeClient(t, `[{"product":"bread","price":1.5,"category":"grocery"}]`)

	out := client.ParseReceiptText(context.Background(), "CHLIEB 1.50", taxonomy.Default())
	assert.Equal(t, `[{"product":"bread","price":1.5,"category":"grocery"}]`, out)

	messages, ok := endpoint.lastPayload["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})["content"].(string)
	assert.Contains(t, user, "CHLIEB 1.50")
	for _, category := range taxonomy.Default().Categories() {
		assert.Contains(t, user, category)
	}
}

func TestParseReceiptTextFailureReturnsSentinel(t *testing.T) {
	client := NewClient(Options{
		Endpoint: "http://127.0.0.1:1",
		Model:    "m",
		Timeout:  time.Second,
	}, logging.Discard())

	out := client.ParseReceiptText(context.Background(), "text", taxonomy.Default())
	assert.True(t, strings.HasPrefix(out, "(chat completion error:"), "got %q", out)
}

func TestSummarizeEmptyRecordsSkipsModel(t *testing.T) {
	client := NewClient(Options{
		Endpoint: "http://127.0.0.1:1",
		Model:    "m",
		Timeout:  time.Second,
	}, logging.Discard())

	out := client.Summarize(context.Background(), "otázka", nil)
	assert.Equal(t, "Nemám žiadne záznamy o nákupoch, skús pridať bločky.", out)
}

func TestSummarizePromptCarriesRecords(t *testing.T) {
	client, endpoint := newFakeClient(t, "odpoveď")

	records := []models.StoredRecord{
		{
			Product:        "pivo",
			Category:       "drinks alcoholic",
			Price:          decimal.NewFromFloat(2.1),
			HealthDelta:    -20,
			HappinessDelta: -10,
		},
	}
	out := client.Summarize(context.Background(), "Čo som kupoval?", records)
	assert.Equal(t, "odpoveď", out)

	messages := endpoint.lastPayload["messages"].([]interface{})
	user := messages[1].(map[string]interface{})["content"].(string)
	assert.Contains(t, user, "Čo som kupoval?")
	assert.Contains(t, user, "pivo")
	assert.Contains(t, user, "H:-20 S:-10")
}
