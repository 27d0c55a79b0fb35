package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*config.AssemblyAIConfig)) *DiarizationClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := &config.AssemblyAIConfig{APIKey: "test-key", BaseURL: ts.URL}
	if mutate != nil {
		mutate(cfg)
	}
	c := NewDiarizationClient(cfg, nil)
	c.maxElapsed = 50 * time.Millisecond
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestFetchUtterances_Completed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/tr-1"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		writeJSON(t, w, map[string]interface{}{
			"id":     "tr-1",
			"status": "completed",
			"utterances": []map[string]interface{}{
				{"speaker": "A", "text": "Hi everyone", "start": 1000, "end": 2500, "confidence": 0.93},
				{"speaker": "B", "text": "thanks Sam", "start": 2600, "end": 3400, "confidence": 0.88},
			},
		})
	}, nil)

	got, err := c.FetchUtterances(context.Background(), "tr-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, []entities.Utterance{
		{Label: "A", Text: "Hi everyone", StartMs: 1000, EndMs: 2500, Confidence: 0.93},
		{Label: "B", Text: "thanks Sam", StartMs: 2600, EndMs: 3400, Confidence: 0.88},
	}, got.Utterances)
}

func TestFetchUtterances_NotReady(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"id": "tr-2", "status": "processing"})
	}, nil)

	got, err := c.FetchUtterances(context.Background(), "tr-2")
	assert.ErrorIs(t, err, ErrTranscriptNotReady)
	require.NotNil(t, got)
	assert.Equal(t, "processing", got.Status)
}

func TestFetchUtterances_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"id": "tr-3", "status": "error", "error": "audio too short"})
	}, nil)

	got, err := c.FetchUtterances(context.Background(), "tr-3")
	assert.ErrorIs(t, err, ErrTranscriptFailed)
	assert.Equal(t, "audio too short", got.Error)
}

func TestFetchUtterances_InvalidUtterance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"id":     "tr-4",
			"status": "completed",
			"utterances": []map[string]interface{}{
				{"speaker": "A", "text": "backwards", "start": 5000, "end": 4000},
			},
		})
	}, nil)

	_, err := c.FetchUtterances(context.Background(), "tr-4")
	assert.ErrorIs(t, err, entities.ErrInvalidUtterance)
	assert.ErrorContains(t, err, "utterance 0")
}

func TestSubmit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://files.example.com/meeting.mp3", body["audio_url"])
		assert.Equal(t, true, body["speaker_labels"])
		assert.Equal(t, float64(3), body["speakers_expected"])
		assert.Equal(t, "https://api.example.com/v1/webhooks/assemblyai", body["webhook_url"])
		assert.Equal(t, WebhookAuthHeader, body["webhook_auth_header_name"])
		assert.Equal(t, "s3cret", body["webhook_auth_header_value"])
		writeJSON(t, w, map[string]interface{}{"id": "tr-5", "status": "queued"})
	}, func(cfg *config.AssemblyAIConfig) {
		cfg.WebhookBaseURL = "https://api.example.com/v1/webhooks/assemblyai"
		cfg.WebhookSecret = "s3cret"
	})

	id, err := c.Submit(context.Background(), "  https://files.example.com/meeting.mp3\n", 3)
	require.NoError(t, err)
	assert.Equal(t, "tr-5", id)
}

func TestNotConfigured(t *testing.T) {
	c := NewDiarizationClient(&config.AssemblyAIConfig{}, nil)
	assert.False(t, c.Configured())

	_, err := c.FetchUtterances(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Submit(context.Background(), "https://a/b.mp3", 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyWebhook(t *testing.T) {
	payload := []byte(`{"transcript_id":"tr-1","status":"completed"}`)

	assert.True(t, VerifyWebhook("", payload, "", ""), "empty secret disables verification")
	assert.True(t, VerifyWebhook("s3cret", payload, "s3cret", ""))
	assert.True(t, VerifyWebhook("s3cret", payload, "", Sign("s3cret", payload)))
	assert.False(t, VerifyWebhook("s3cret", payload, "wrong", ""))
	assert.False(t, VerifyWebhook("s3cret", payload, "", Sign("other", payload)))
	assert.False(t, VerifyHMAC("", payload, "abc"))
}
