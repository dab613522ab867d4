package domain

import (
	"errors"
	"fmt"
)

// Invalid input.
var (
	ErrInvalidQuery   = errors.New("no query provided")
	ErrMissingFile    = errors.New("no audio file found")
	ErrNoSelectedFile = errors.New("no selected file")
)

// Operational and external dependency failures.
var (
	ErrStorageFailed       = errors.New("audio storage failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrRetrievalFailed     = errors.New("retrieval failed")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrForwardingFailed    = errors.New("forwarding to answering service failed")
)

// IngestError records the state in which an ingest request stopped.
type IngestError struct {
	State IngestState
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.State, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// IsInvalidInput reports whether err is a caller error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrNoSelectedFile)
}
