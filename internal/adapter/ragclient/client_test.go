package ragclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rag" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req ragRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req.Query != "할머니 뭐 해?" || req.Mood != "neutral" {
			t.Errorf("unexpected body: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": "사과파이 굽는단다"})
	}))
	defer server.Close()

	answer, err := New(server.URL+"/rag", 0).Answer(context.Background(), "할머니 뭐 해?", "neutral")
	require.NoError(t, err)
	assert.Equal(t, "사과파이 굽는단다", answer.Text)
}

func TestClientAnswerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"Answer generation failed"}`},
		{"bad request", http.StatusBadRequest, `{"error":"No query provided"}`},
		{"empty answer", http.StatusOK, `{"answer":""}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := New(server.URL, 0).Answer(context.Background(), "q", "")
			assert.Error(t, err)
		})
	}
}
