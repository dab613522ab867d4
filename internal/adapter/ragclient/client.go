// Package ragclient answers queries through a remote answering service's
// /rag endpoint, for deployments where ingestion and answering run as
// separate processes.
package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

var _ port.Answerer = (*Client)(nil)

type Client struct {
	url    string
	client *http.Client
}

type ragRequest struct {
	Query string `json:"query"`
	Mood  string `json:"mood,omitempty"`
}

type ragResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

// New returns a client posting to url, e.g. "http://localhost:5000/rag".
// A zero timeout leaves requests bounded only by the caller's context.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Answer(ctx context.Context, query, mood string) (domain.Answer, error) {
	jsonData, err := json.Marshal(ragRequest{Query: query, Mood: mood})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed ragResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return domain.Answer{}, fmt.Errorf("answering service returned status %d: %s", resp.StatusCode, msg)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return domain.Answer{}, fmt.Errorf("answering service returned no answer")
	}

	return domain.Answer{Text: parsed.Answer}, nil
}
