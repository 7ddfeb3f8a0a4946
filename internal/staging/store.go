// Package staging хранит не собранные ещё части загрузок, сгруппированные по отпечатку файла.
// Хранилище является единственной точкой координации между приёмом частей, инвентаризацией и
// сборкой: сервисы над ним не держат общего состояния в памяти.
//
// Гарантии бэкендов:
//   - запись части (fingerprint, index) атомарна и заменяет предыдущую (last-write-wins);
//   - staging-область создаётся идемпотентно, гонка двух первых частей безопасна;
//   - область существует, только пока в ней есть хотя бы одна часть;
//   - части отдаются строго по возрастанию числового индекса.
//
// Взаимоисключения между сборкой и записью частей нет: вызывающий код обязан не
// писать части отпечатка, пока идёт его сборка.
package staging

import (
	"context"
	"io"

	"github.com/sir_venger/chunkstage/internal/models"
)

// ChunkFunc получает содержимое очередной части. Reader валиден только внутри вызова.
type ChunkFunc func(chunk models.Chunk, r io.Reader) error

// Store хранит staging-области.
type Store interface {
	// PutChunk сохраняет часть и возвращает число записанных байт.
	PutChunk(ctx context.Context, fingerprint string, index int, payload io.Reader) (int64, error)
	// ListChunks возвращает части, упорядоченные по индексу, или models.ErrStagingAreaMissing.
	ListChunks(ctx context.Context, fingerprint string) ([]models.Chunk, error)
	// ChunkCount возвращает число частей; 0, если области нет.
	ChunkCount(ctx context.Context, fingerprint string) (int, error)
	// ReadChunksInOrder по очереди передаёт части в fn по возрастанию индекса.
	ReadChunksInOrder(ctx context.Context, fingerprint string, fn ChunkFunc) error
	// DeleteStagingArea удаляет область целиком; отсутствие области не ошибка.
	DeleteStagingArea(ctx context.Context, fingerprint string) error
	// Areas перечисляет отпечатки, для которых есть staging-область.
	Areas(ctx context.Context) ([]string, error)
	Close() error
}

// Backends, поддерживаемые Open.
const (
	BackendFS     = "fs"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Options задаёт параметры открытия бэкенда.
type Options struct {
	Backend   string
	Dir       string
	BadgerDir string
}

// Open создаёт хранилище выбранного типа.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFS, "":
		return NewFSStore(opts.Dir)
	case BackendBadger:
		return OpenBadgerStore(opts.BadgerDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, &UnknownBackendError{Backend: opts.Backend}
	}
}

// UnknownBackendError возвращается Open для неизвестного типа хранилища.
type UnknownBackendError struct {
	Backend string
}

func (e *UnknownBackendError) Error() string {
	return "unknown staging backend: " + e.Backend
}

func countOf(ctx context.Context, s Store, fingerprint string) (int, error) {
	chunks, err := s.ListChunks(ctx, fingerprint)
	if err != nil {
		if isMissing(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(chunks), nil
}
