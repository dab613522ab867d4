package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "whisper-1"
	defaultTimeout = 2 * time.Minute
)

var _ port.Transcriber = (*WhisperClient)(nil)

// ProviderError describes a failed call to the transcription engine.
type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WhisperClient calls an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperClient struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewWhisperClient(apiKey, model, baseURL string, timeout time.Duration) *WhisperClient {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WhisperClient{
		APIKey:     strings.TrimSpace(apiKey),
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio and returns its text. Every failure,
// including an empty transcript, wraps domain.ErrTranscriptionFailed.
func (c *WhisperClient) Transcribe(ctx context.Context, filename string, data []byte) (domain.Transcript, error) {
	text, err := c.transcribe(ctx, filename, data)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %w", domain.ErrTranscriptionFailed, err)
	}
	return domain.Transcript{Text: text}, nil
}

func (c *WhisperClient) transcribe(ctx context.Context, filename string, data []byte) (string, error) {
	if c.APIKey == "" {
		return "", &ProviderError{Code: "STT_AUTH", Message: "missing transcription API key"}
	}
	if len(data) == 0 {
		return "", &ProviderError{Code: "STT_FAILED", Message: "transcription input is empty"}
	}

	fileName := strings.TrimSpace(filepath.Base(filename))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		fileName = "audio.wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to build request body", Cause: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to write audio", Cause: err}
	}
	if err := writer.WriteField("model", c.Model); err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to set model", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to finalize request body", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "transcription request failed", Retryable: true, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to read response", Retryable: true, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(respBody))
		if message == "" {
			message = fmt.Sprintf("transcription returned status %d", resp.StatusCode)
		}
		return "", mapProviderError(resp.StatusCode, message)
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &ProviderError{Code: "STT_FAILED", Message: "failed to decode response", Cause: err}
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", &ProviderError{Code: "STT_FAILED", Message: "transcription response had no text"}
	}
	return text, nil
}

func mapProviderError(statusCode int, message string) error {
	pe := &ProviderError{
		Code:       "STT_FAILED",
		Message:    message,
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Code = "STT_AUTH"
	case statusCode == http.StatusTooManyRequests:
		pe.Code = "STT_RATE_LIMIT"
		pe.Retryable = true
	case statusCode >= http.StatusInternalServerError:
		pe.Retryable = true
	}

	return pe
}
