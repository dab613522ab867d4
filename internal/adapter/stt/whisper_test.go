package stt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
)

func TestWhisperTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model: %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "audio3.wav" || string(data) != "RIFF" {
			t.Errorf("unexpected upload %q (%q)", header.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"text": " 할머니 뭐 하세요? "})
	}))
	defer server.Close()

	client := NewWhisperClient("test-key", "", server.URL, time.Second)
	out, err := client.Transcribe(context.Background(), "uploads/audio3.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "할머니 뭐 하세요?", out.Text)
}

func TestWhisperTranscribeFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      string
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, "boom", "STT_FAILED", true},
		{"auth", http.StatusUnauthorized, "invalid key", "STT_AUTH", false},
		{"rate limit", http.StatusTooManyRequests, "slow down", "STT_RATE_LIMIT", true},
		{"bad request", http.StatusBadRequest, "", "STT_FAILED", false},
		{"empty text", http.StatusOK, `{"text":"   "}`, "STT_FAILED", false},
		{"bad json", http.StatusOK, `not json`, "STT_FAILED", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewWhisperClient("test-key", "whisper-1", server.URL, time.Second)
			_, err := client.Transcribe(context.Background(), "audio1.wav", []byte("RIFF"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrTranscriptionFailed))

			var pe *ProviderError
			require.True(t, errors.As(err, &pe), "expected ProviderError, got %T", err)
			assert.Equal(t, tc.code, pe.Code)
			assert.Equal(t, tc.retryable, pe.Retryable)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "transcription must not retry")
		})
	}
}

func TestWhisperTranscribePreconditions(t *testing.T) {
	client := NewWhisperClient("", "", "http://127.0.0.1:0", time.Second)
	_, err := client.Transcribe(context.Background(), "a.wav", []byte("RIFF"))
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "STT_AUTH", pe.Code)

	client = NewWhisperClient("key", "", "http://127.0.0.1:0", time.Second)
	_, err = client.Transcribe(context.Background(), "a.wav", nil)
	assert.ErrorIs(t, err, domain.ErrTranscriptionFailed)
}

func TestWhisperTranscribeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewWhisperClient("key", "", url, time.Second)
	_, err := client.Transcribe(context.Background(), "a.wav", []byte("RIFF"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTranscriptionFailed)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Retryable)
}
