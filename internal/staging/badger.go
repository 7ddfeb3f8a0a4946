package staging

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/sir_venger/chunkstage/internal/models"
)

// Ключ части: "chunk:" + fingerprint + 0x00 + big-endian индекс.
// Big-endian даёт числовой порядок при обходе префикса.
const (
	chunkKeyPrefix = "chunk:"
	fingerprintEnd = 0x00
	indexKeyLen    = 8
)

// BadgerStore хранит части в BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore открывает (или создаёт) базу в каталоге dir; с пустым dir база живёт в памяти.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func areaPrefix(fingerprint string) []byte {
	p := make([]byte, 0, len(chunkKeyPrefix)+len(fingerprint)+1)
	p = append(p, chunkKeyPrefix...)
	p = append(p, fingerprint...)
	return append(p, fingerprintEnd)
}

func chunkKey(fingerprint string, index int) []byte {
	k := areaPrefix(fingerprint)
	return binary.BigEndian.AppendUint64(k, uint64(index))
}

func indexFromKey(key []byte) (int, bool) {
	if len(key) < indexKeyLen {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(key[len(key)-indexKeyLen:])), true
}

func (s *BadgerStore) PutChunk(ctx context.Context, fingerprint string, index int, payload io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := io.ReadAll(payload)
	if err != nil {
		return 0, fmt.Errorf("read chunk %d: %w", index, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(fingerprint, index), data)
	})
	if err != nil {
		return 0, fmt.Errorf("write chunk %d: %w", index, err)
	}

	return int64(len(data)), nil
}

func (s *BadgerStore) ListChunks(ctx context.Context, fingerprint string) ([]models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := areaPrefix(fingerprint)
	var chunks []models.Chunk
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			idx, ok := indexFromKey(item.Key())
			if !ok {
				continue
			}
			chunks = append(chunks, models.Chunk{Index: idx, Size: item.ValueSize()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list staging area: %w", err)
	}
	if len(chunks) == 0 {
		return nil, missingArea(fingerprint)
	}

	return chunks, nil
}

func (s *BadgerStore) ChunkCount(ctx context.Context, fingerprint string) (int, error) {
	return countOf(ctx, s, fingerprint)
}

// ReadChunksInOrder обходит части внутри одной read-транзакции, то есть по согласованному снимку.
func (s *BadgerStore) ReadChunksInOrder(ctx context.Context, fingerprint string, fn ChunkFunc) error {
	prefix := areaPrefix(fingerprint)
	seen := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 4})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			idx, ok := indexFromKey(item.Key())
			if !ok {
				continue
			}
			seen++
			chunk := models.Chunk{Index: idx, Size: item.ValueSize()}
			err := item.Value(func(val []byte) error {
				return fn(chunk, bytes.NewReader(val))
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if seen == 0 {
		return missingArea(fingerprint)
	}

	return nil
}

func (s *BadgerStore) DeleteStagingArea(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix(areaPrefix(fingerprint)); err != nil {
		return fmt.Errorf("remove staging area: %w", err)
	}
	return nil
}

func (s *BadgerStore) Areas(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(chunkKeyPrefix)
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		last := ""
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()[len(prefix):]
			end := bytes.IndexByte(key, fingerprintEnd)
			if end < 0 {
				continue
			}
			if fp := string(key[:end]); fp != last {
				out = append(out, fp)
				last = fp
			}
		}
		return nil
	})

	return out, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
