package staging

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/sir_venger/chunkstage/internal/models"
)

// MemoryStore хранит части только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu    sync.RWMutex
	areas map[string]map[int][]byte
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{areas: map[string]map[int][]byte{}}
}

func (s *MemoryStore) PutChunk(ctx context.Context, fingerprint string, index int, payload io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Читаем payload вне блокировки: запись в карту происходит целиком.
	data, err := io.ReadAll(payload)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	area, ok := s.areas[fingerprint]
	if !ok {
		area = map[int][]byte{}
		s.areas[fingerprint] = area
	}
	area[index] = data

	return int64(len(data)), nil
}

func (s *MemoryStore) ListChunks(ctx context.Context, fingerprint string) ([]models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	area, ok := s.areas[fingerprint]
	if !ok || len(area) == 0 {
		return nil, missingArea(fingerprint)
	}

	chunks := make([]models.Chunk, 0, len(area))
	for idx, data := range area {
		chunks = append(chunks, models.Chunk{Index: idx, Size: int64(len(data))})
	}
	models.SortChunks(chunks)

	return chunks, nil
}

func (s *MemoryStore) ChunkCount(ctx context.Context, fingerprint string) (int, error) {
	return countOf(ctx, s, fingerprint)
}

// ReadChunksInOrder отдаёт снимок частей, сделанный на момент вызова.
func (s *MemoryStore) ReadChunksInOrder(ctx context.Context, fingerprint string, fn ChunkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Список и содержимое берутся под одной блокировкой: область не может исчезнуть между ними.
	s.mu.RLock()
	area := s.areas[fingerprint]
	chunks := make([]models.Chunk, 0, len(area))
	snapshot := make(map[int][]byte, len(area))
	for idx, data := range area {
		chunks = append(chunks, models.Chunk{Index: idx, Size: int64(len(data))})
		snapshot[idx] = data
	}
	s.mu.RUnlock()

	if len(chunks) == 0 {
		return missingArea(fingerprint)
	}
	models.SortChunks(chunks)

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(c, bytes.NewReader(snapshot[c.Index])); err != nil {
			return err
		}
	}

	return nil
}

func (s *MemoryStore) DeleteStagingArea(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.areas, fingerprint)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Areas(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.areas))
	for fp := range s.areas {
		out = append(out, fp)
	}
	sort.Strings(out)

	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
