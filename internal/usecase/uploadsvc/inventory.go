package uploadsvc

import (
	"context"

	"github.com/sir_venger/chunkstage/internal/models"
)

// Inventory сообщает, сколько частей уже лежит в staging-области, и возвращает chunkSize как есть.
// Имя файла не используется. Пустой отпечаток отклоняется до обращения к хранилищу.
func (s *Uploads) Inventory(ctx context.Context, _ string, fingerprint string, chunkSize int64) (models.Inventory, error) {
	if err := models.ValidateFingerprint(fingerprint); err != nil {
		return models.Inventory{}, err
	}

	count, err := s.Staging.ChunkCount(ctx, fingerprint)
	if err != nil {
		return models.Inventory{}, err
	}

	return models.Inventory{
		UploadedChunks: count,
		ChunkSize:      chunkSize,
	}, nil
}
