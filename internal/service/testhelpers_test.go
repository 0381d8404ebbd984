package service_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/pageza/foodgram/backend/internal/service"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

func ptr[T any](v T) *T {
	return &v
}

// memoryImageStore keeps saved images in a map.
type memoryImageStore struct {
	mu       sync.Mutex
	seq      int
	objects  map[string][]byte
	failSave error
}

var _ service.ImageStore = (*memoryImageStore)(nil)

func newMemoryImageStore() *memoryImageStore {
	return &memoryImageStore{objects: make(map[string][]byte)}
}

func (m *memoryImageStore) Save(_ context.Context, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return "", m.failSave
	}
	m.seq++
	key := fmt.Sprintf("recipes/images/%d.png", m.seq)
	m.objects[key] = data
	return key, nil
}

func (m *memoryImageStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryImageStore) URL(key string) string {
	return "/media/" + key
}

func (m *memoryImageStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
