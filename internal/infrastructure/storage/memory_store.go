package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"lapakda/internal/domain/service"
)

// MemoryFileStore keeps uploads in memory. It backs DATA_STORE=memory runs
// and tests.
type MemoryFileStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

var _ service.FileUploadService = (*MemoryFileStore)(nil)

func NewMemoryFileStore(baseURL string) *MemoryFileStore {
	return &MemoryFileStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryFileStore) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	name := ObjectName(folder, contentType, time.Now())
	m.mu.Lock()
	m.objects[name] = buf.Bytes()
	m.mu.Unlock()

	return m.baseURL + "/" + name, nil
}

func (m *MemoryFileStore) DeleteFile(ctx context.Context, fileURL string) error {
	name := strings.TrimPrefix(fileURL, m.baseURL+"/")

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("file not found: %s", fileURL)
	}
	delete(m.objects, name)
	return nil
}

// Object returns a stored upload by its object name.
func (m *MemoryFileStore) Object(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[name]
	return b, ok
}

func (m *MemoryFileStore) Close() error { return nil }
