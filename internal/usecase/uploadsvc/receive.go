package uploadsvc

import (
	"context"
	"fmt"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sirupsen/logrus"
)

// ReceiveChunk сохраняет одну часть по (fingerprint, index). Повторная отправка того же
// индекса заменяет прежнее содержимое. Все проверки выполняются до записи.
func (s *Uploads) ReceiveChunk(ctx context.Context, chunk models.ChunkUpload) (models.ChunkAck, error) {
	if chunk.FileName == "" || chunk.Fingerprint == "" {
		return models.ChunkAck{}, models.ErrMissingParameter
	}
	if err := models.ValidateFingerprint(chunk.Fingerprint); err != nil {
		return models.ChunkAck{}, err
	}
	if err := models.ValidateFileName(chunk.FileName); err != nil {
		return models.ChunkAck{}, err
	}
	if chunk.Index < 0 {
		return models.ChunkAck{}, fmt.Errorf("%w: chunk index %d", models.ErrInvalidParameter, chunk.Index)
	}
	if chunk.TotalChunks <= 0 {
		return models.ChunkAck{}, fmt.Errorf("%w: total chunks %d", models.ErrInvalidParameter, chunk.TotalChunks)
	}
	if chunk.Payload == nil {
		return models.ChunkAck{}, models.ErrNoPayload
	}

	n, err := s.Staging.PutChunk(ctx, chunk.Fingerprint, chunk.Index, chunk.Payload)
	if err != nil {
		return models.ChunkAck{}, fmt.Errorf("stage chunk: %w", err)
	}

	s.Metrics.ObserveChunk(n)
	s.Log.WithFields(logrus.Fields{
		"fingerprint":  chunk.Fingerprint,
		"chunk_index":  chunk.Index,
		"total_chunks": chunk.TotalChunks,
		"size":         n,
	}).Debug("chunk staged")

	return models.ChunkAck{ChunkIndex: chunk.Index}, nil
}
