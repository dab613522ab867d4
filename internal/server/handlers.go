package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
)

const (
	uploadField      = "audio_data"
	maxMemoryUpload  = 32 << 20
	maxJSONBodyBytes = 1 << 20
)

// Client-facing error messages.
const (
	msgNoAudioFile      = "No audio file found"
	msgNoSelectedFile   = "No selected file"
	msgStoreFailed      = "Failed to store audio"
	msgSTTFailed        = "STT failed"
	msgRAGFailed        = "Error in RAG processing"
	msgNoQuery          = "No query provided"
	msgGenerationFailed = "Answer generation failed"
	msgRetrievalFailed  = "Retrieval failed"
	msgTooLarge         = "File too large"
	msgTooManyRequests  = "Too many requests"
	msgInternal         = "Internal server error"
)

type ragRequest struct {
	Query string `json:"query"`
	Mood  string `json:"mood"`
}

type document struct {
	Content string `json:"content"`
}

func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoAudioFile)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		// A file part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[uploadField]; ok {
			writeError(w, http.StatusBadRequest, msgNoSelectedFile)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoAudioFile)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, msgNoSelectedFile)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoAudioFile)
		return
	}

	result, err := s.ingester.Ingest(r.Context(), data, header.Filename)
	if err != nil {
		status, msg := ingestErrorResponse(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": result.Answer.Text})
}

func ingestErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, msgNoAudioFile
	case errors.Is(err, domain.ErrNoSelectedFile):
		return http.StatusBadRequest, msgNoSelectedFile
	case errors.Is(err, domain.ErrStorageFailed):
		return http.StatusInternalServerError, msgStoreFailed
	case errors.Is(err, domain.ErrTranscriptionFailed):
		return http.StatusInternalServerError, msgSTTFailed
	case errors.Is(err, domain.ErrForwardingFailed):
		return http.StatusInternalServerError, msgRAGFailed
	default:
		logger.Error("unmapped ingest error", "error", err)
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	answer, err := s.answering.Answer(r.Context(), req.Query, req.Mood)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, msgNoQuery)
			return
		}
		logger.Error("answer failed", "error", err, "request_id", w.Header().Get(headerRequestID))
		writeError(w, http.StatusInternalServerError, msgGenerationFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer.Text})
}

func (s *Server) handleRAGRetrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	texts, err := s.answering.Evidence(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, msgNoQuery)
			return
		}
		logger.Error("evidence failed", "error", err, "request_id", w.Header().Get(headerRequestID))
		writeError(w, http.StatusInternalServerError, msgRetrievalFailed)
		return
	}

	docs := make([]document, 0, len(texts))
	for _, t := range texts {
		docs = append(docs, document{Content: t})
	}
	writeJSON(w, http.StatusOK, map[string][]document{"documents": docs})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.stats.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"chunks": stats.TotalChunks,
	})
}

// decodeQuery reads a {query, mood} body. Any unreadable body is treated
// as a missing query.
func decodeQuery(w http.ResponseWriter, r *http.Request) (ragRequest, bool) {
	var req ragRequest
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgNoQuery)
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
