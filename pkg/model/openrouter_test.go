package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/prompts"
	"github.com/alantheprice/ori/pkg/utils"
)

func fastBackoff() *utils.RateLimitBackoff {
	return &utils.RateLimitBackoff{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestOpenRouterSendsHistory(t *testing.T) {
	t.Setenv(prompts.SystemPromptEnv, "")
	var requests []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		reply(w, "answer "+req.Messages[len(req.Messages)-1].Content)
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk-test", "test/model", WithEndpoint(srv.URL))
	require.NoError(t, err)

	got, err := c.SendQuery(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "answer one", got)
	_, err = c.SendQuery(context.Background(), "two")
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, "test/model", requests[0].Model)
	assert.Equal(t, "system", requests[0].Messages[0].Role)
	roles := func(msgs []prompts.Message) []string {
		var out []string
		for _, m := range msgs {
			out = append(out, m.Role)
		}
		return out
	}
	assert.Equal(t, []string{"system", "user"}, roles(requests[0].Messages))
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles(requests[1].Messages))
	assert.Len(t, c.history(), 5)
}

func TestOpenRouterAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad model","metadata":{"raw":"no such model"}}}`))
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk", "m", WithEndpoint(srv.URL), WithBackoff(fastBackoff()))
	require.NoError(t, err)
	_, err = c.SendQuery(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, "API error (code 400): bad model (details: no such model)", err.Error())
	assert.Len(t, c.history(), 1, "failed exchanges are not recorded")
}

func TestOpenRouterNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk", "m", WithEndpoint(srv.URL), WithBackoff(fastBackoff()))
	require.NoError(t, err)
	_, err = c.SendQuery(context.Background(), "hi")
	assert.ErrorContains(t, err, "status 502: gateway down")
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk", "m", WithEndpoint(srv.URL))
	require.NoError(t, err)
	_, err = c.SendQuery(context.Background(), "hi")
	assert.ErrorContains(t, err, "unexpected API response format")
}

func TestOpenRouterRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"rate limit exceeded"}}`))
			return
		}
		reply(w, "finally")
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk", "m", WithEndpoint(srv.URL), WithBackoff(fastBackoff()))
	require.NoError(t, err)
	var notices []string
	c.SetStatusFunc(func(s string) { notices = append(notices, s) })

	got, err := c.SendQuery(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "finally", got)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "retrying in")
}

func TestOpenRouterGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"rate limit exceeded"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk", "m", WithEndpoint(srv.URL), WithBackoff(fastBackoff()))
	require.NoError(t, err)
	_, err = c.SendQuery(context.Background(), "hi")
	assert.ErrorContains(t, err, "rate limit exceeded")
	assert.Equal(t, int32(3), calls.Load(), "first attempt plus MaxRetries")
}

func TestOpenRouterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient("sk", "m", WithEndpoint(srv.URL))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.SendQuery(ctx, "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := NewOpenRouterClient("", "m")
	assert.ErrorIs(t, err, configuration.ErrNoAPIKey)

	cfg := configuration.NewConfig()
	_, err = New(cfg, "")
	assert.ErrorIs(t, err, configuration.ErrNoAPIKey)

	cfg.Provider = "nope"
	_, err = New(cfg, "sk")
	assert.ErrorContains(t, err, "unsupported provider")
}
