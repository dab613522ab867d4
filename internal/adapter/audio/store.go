package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/port"
)

const (
	namePrefix         = "audio"
	defaultExtension   = ".wav"
	defaultMaxAttempts = 10000
)

var _ port.AudioStore = (*FileStore)(nil)

// FileStore writes uploads as audioN<ext> under dir, N being the lowest
// positive integer not already taken. Existing files are never
// overwritten.
type FileStore struct {
	mu          sync.Mutex
	dir         string
	ext         string
	maxAttempts int
}

func NewFileStore(dir, ext string, maxAttempts int) (*FileStore, error) {
	if ext == "" {
		ext = defaultExtension
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{
		dir:         dir,
		ext:         ext,
		maxAttempts: maxAttempts,
	}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Save allocates a fresh name and writes data to it.
func (s *FileStore) Save(data []byte) (domain.AudioArtifact, error) {
	f, name, err := s.allocate()
	if err != nil {
		return domain.AudioArtifact{}, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}

	path := f.Name()
	n, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.AudioArtifact{}, fmt.Errorf("%w: failed to write %s: %w", domain.ErrStorageFailed, name, err)
	}

	return domain.AudioArtifact{Name: name, Path: path, Size: int64(n)}, nil
}

// allocate probes audio1, audio2, ... and claims the first free name with
// an exclusive create. The mutex serialises allocation within the
// process; O_EXCL guards against anything else writing to dir.
func (s *FileStore) allocate() (*os.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 1; i <= s.maxAttempts; i++ {
		name := namePrefix + strconv.Itoa(i) + s.ext
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, name, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	return nil, "", fmt.Errorf("no free audio name after %d attempts", s.maxAttempts)
}

func (s *FileStore) Load(artifact domain.AudioArtifact) ([]byte, error) {
	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", artifact.Name, err)
	}
	return data, nil
}
