package domain

import "time"

// DefaultMood is used when a query carries no mood tag.
const DefaultMood = "neutral"

type Document struct {
	ID      string
	Path    string
	ModTime time.Time
	Text    string
}

// Chunk is Text == Document.Text[Start:End] for its parent document.
type Chunk struct {
	ID    string
	DocID string
	Index int
	Start int
	End   int
	Text  string
}

type Query struct {
	Text string
	Mood string
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

type Answer struct {
	Text string
}

type Transcript struct {
	Text string
}

// AudioArtifact is an uploaded blob persisted under the upload root.
type AudioArtifact struct {
	Name string
	Path string
	Size int64
}

type Stats struct {
	TotalDocs   int
	TotalChunks int
	AvgChunkLen float64
}

// IngestState tracks a voice request through the ingestion pipeline.
type IngestState int

const (
	StateReceived IngestState = iota
	StateStored
	StateTranscribing
	StateTranscribed
	StateForwarding
	StateAnswered
	StateStorageFailed
	StateTranscriptionFailed
	StateForwardingFailed
)

func (s IngestState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateStored:
		return "stored"
	case StateTranscribing:
		return "transcribing"
	case StateTranscribed:
		return "transcribed"
	case StateForwarding:
		return "forwarding"
	case StateAnswered:
		return "answered"
	case StateStorageFailed:
		return "storage_failed"
	case StateTranscriptionFailed:
		return "transcription_failed"
	case StateForwardingFailed:
		return "forwarding_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s IngestState) Terminal() bool {
	switch s {
	case StateAnswered, StateStorageFailed, StateTranscriptionFailed, StateForwardingFailed:
		return true
	}
	return false
}
