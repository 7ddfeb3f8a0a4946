package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/sir_venger/chunkstage/internal/models"
)

// incomingPrefix помечает временные файлы, которые ещё не переименованы в номер части.
const incomingPrefix = ".incoming-"

// FSStore хранит части на локальном диске: <root>/<fingerprint>/<index>.
type FSStore struct {
	root string
}

// NewFSStore создаёт хранилище поверх каталога root, создавая его при необходимости.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("staging dir is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Root возвращает корневой каталог staging-областей.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) areaDir(fingerprint string) string {
	return filepath.Join(s.root, fingerprint)
}

// PutChunk пишет часть во временный файл внутри области и переименовывает его в номер части.
func (s *FSStore) PutChunk(ctx context.Context, fingerprint string, index int, payload io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir := s.areaDir(fingerprint)
	// MkdirAll не падает, если каталог уже создан параллельным запросом.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create staging area: %w", err)
	}

	tmpPath := filepath.Join(dir, incomingPrefix+uuid.NewString())
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp chunk: %w", err)
	}

	n, err := io.Copy(f, payload)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("write chunk %d: %w", index, err)
	}

	if err = os.Rename(tmpPath, filepath.Join(dir, strconv.Itoa(index))); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("commit chunk %d: %w", index, err)
	}

	return n, nil
}

// ListChunks читает каталог области; временные и посторонние файлы пропускаются.
func (s *FSStore) ListChunks(ctx context.Context, fingerprint string) ([]models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.areaDir(fingerprint))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missingArea(fingerprint)
		}
		return nil, fmt.Errorf("list staging area: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		idx, ok := parseChunkName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// файл мог быть заменён или удалён между ReadDir и Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		chunks = append(chunks, models.Chunk{Index: idx, Size: info.Size()})
	}

	if len(chunks) == 0 {
		return nil, missingArea(fingerprint)
	}

	models.SortChunks(chunks)
	return chunks, nil
}

// ChunkCount возвращает число частей в области.
func (s *FSStore) ChunkCount(ctx context.Context, fingerprint string) (int, error) {
	return countOf(ctx, s, fingerprint)
}

// ReadChunksInOrder открывает части по одной и передаёт их в fn.
func (s *FSStore) ReadChunksInOrder(ctx context.Context, fingerprint string, fn ChunkFunc) error {
	chunks, err := s.ListChunks(ctx, fingerprint)
	if err != nil {
		return err
	}

	dir := s.areaDir(fingerprint)
	for _, c := range chunks {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = readChunkFile(filepath.Join(dir, strconv.Itoa(c.Index)), c, fn); err != nil {
			return err
		}
	}

	return nil
}

func readChunkFile(path string, c models.Chunk, fn ChunkFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open chunk %d: %w", c.Index, err)
	}
	defer f.Close()

	return fn(c, f)
}

// DeleteStagingArea удаляет каталог области вместе с временными файлами.
func (s *FSStore) DeleteStagingArea(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(s.areaDir(fingerprint)); err != nil {
		return fmt.Errorf("remove staging area: %w", err)
	}
	return nil
}

// Areas перечисляет подкаталоги корня, в которых есть хотя бы одна часть.
func (s *FSStore) Areas(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := s.ChunkCount(ctx, e.Name())
		if err != nil {
			return nil, err
		}
		if n > 0 {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (s *FSStore) Close() error {
	return nil
}

// parseChunkName принимает только каноничную запись неотрицательного числа ("7", но не "007").
func parseChunkName(name string) (int, bool) {
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 || strconv.Itoa(idx) != name {
		return 0, false
	}
	return idx, true
}
