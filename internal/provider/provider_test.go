package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fake(name, text string, err error) Provider {
	return Func{ProviderName: name, Fn: func(context.Context, Request) (string, error) { return text, err }}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize("```json\n{\"sections\":[]}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"sections":[]}`, out)

	out, err = Normalize("```markdown\n## Title\n\nBody\n```")
	require.NoError(t, err)
	assert.Equal(t, "## Title\n\nBody", out)

	out, err = Normalize("<h2>Prices</h2><p>Rents are <strong>rising</strong>.</p>")
	require.NoError(t, err)
	assert.Contains(t, out, "## Prices")
	assert.Contains(t, out, "**rising**")

	_, err = Normalize("I'm sorry, but I can't help with that.")
	assert.ErrorIs(t, err, ErrRefusal)

	_, err = Normalize("   ")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChain_FallsThroughInOrder(t *testing.T) {
	chain := NewChain([]Provider{
		fake("first", "", errors.New("boom")),
		fake("second", "I cannot do that.", nil),
		fake("third", "## Done", nil),
	}, time.Second, nil)

	res := chain.Complete(context.Background(), Request{Prompt: "x"})
	require.True(t, res.OK())
	assert.Equal(t, "third", res.Provider)
	assert.Equal(t, "## Done", res.Text)
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain([]Provider{
		fake("first", "", errors.New("boom")),
		fake("second", "", nil),
	}, time.Second, nil)

	res := chain.Complete(context.Background(), Request{Prompt: "x"})
	require.False(t, res.OK())
	assert.Equal(t, "second", res.Err.Provider)
	assert.Equal(t, "empty response", res.Err.Reason)
}

func TestChain_Timeout(t *testing.T) {
	slow := Func{ProviderName: "slow", Fn: func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	res := NewChain([]Provider{slow}, 20*time.Millisecond, nil).Complete(context.Background(), Request{})
	require.NotNil(t, res.Err)
	assert.Equal(t, "timeout", res.Err.Reason)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestChain_RecoversPanics(t *testing.T) {
	bad := Func{ProviderName: "bad", Fn: func(context.Context, Request) (string, error) { panic("nil map") }}
	res := NewChain([]Provider{bad}, time.Second, nil).Complete(context.Background(), Request{})
	require.NotNil(t, res.Err)
	assert.Contains(t, res.Err.Error(), "panicked")
}

func TestChain_NotConfigured(t *testing.T) {
	var chain *Chain
	assert.False(t, chain.Configured())

	res := NewChain(nil, 0, nil).Complete(context.Background(), Request{})
	require.NotNil(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrNotConfigured)
}

func TestOpenAI_Complete(t *testing.T) {
	var got openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", "gpt-test", srv.URL)
	text, err := p.Complete(context.Background(), Request{System: "sys", Prompt: "hi", MaxTokens: 100, Temperature: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, 100, got.MaxTokens)
}

func TestOpenAI_ErrorsAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") == "filter" {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", "m", srv.URL+"/v1/chat/completions").Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	p := NewOpenAI("k", "m", "")
	p.endpoint = srv.URL + "/v1/chat/completions?mode=filter"
	_, err = p.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrRefusal)

	_, err = NewOpenAI("", "m", srv.URL).Complete(context.Background(), Request{})
	assert.Error(t, err)
}

func TestChatEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", chatEndpoint(""))
	assert.Equal(t, "http://x/v1/chat/completions", chatEndpoint("http://x/v1/"))
	assert.Equal(t, "http://x/v1/chat/completions", chatEndpoint("http://x"))
	assert.Equal(t, "http://x/api/chat/completions", chatEndpoint("http://x/api/chat/completions"))
}

func TestBuildChain_SkipsProvidersWithoutKeys(t *testing.T) {
	chain, err := BuildChain(context.Background(), []Options{
		{Name: "openai", APIKey: "k"},
		{Name: "anthropic"},
	}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"openai"}, chain.Names())

	_, err = New(context.Background(), Options{Name: "mystery"})
	assert.Error(t, err)
}
