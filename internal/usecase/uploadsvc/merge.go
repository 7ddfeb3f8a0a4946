package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sir_venger/chunkstage/internal/metrics"
	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sirupsen/logrus"
)

// Merge собирает все части отпечатка в итоговый файл {fingerprint}-{fileName}.
//
// Предусловия проверяются по порядку: параметры заданы, staging-область существует,
// число частей равно TotalChunks. Их нарушение ничего не меняет.
//
// Части пишутся по возрастанию индекса во временный файл, который после fsync
// переименовывается в итоговое имя; staging-область удаляется только после этого.
// Любая ошибка ввода-вывода оставляет все части на месте и возвращает ErrMergeFailed.
//
// Merge не блокирует параллельную запись частей того же отпечатка: вызывающий
// обязан дождаться завершения всех ReceiveChunk перед сборкой.
func (s *Uploads) Merge(ctx context.Context, req models.MergeRequest) (models.MergeResult, error) {
	if req.FileName == "" || req.Fingerprint == "" {
		return models.MergeResult{}, models.ErrMissingParameter
	}
	if err := models.ValidateFingerprint(req.Fingerprint); err != nil {
		return models.MergeResult{}, err
	}
	if err := models.ValidateFileName(req.FileName); err != nil {
		return models.MergeResult{}, err
	}
	if req.TotalChunks <= 0 {
		return models.MergeResult{}, fmt.Errorf("%w: total chunks %d", models.ErrInvalidParameter, req.TotalChunks)
	}

	log := s.Log.WithFields(logrus.Fields{
		"fingerprint":  req.Fingerprint,
		"total_chunks": req.TotalChunks,
	})

	chunks, err := s.Staging.ListChunks(ctx, req.Fingerprint)
	if err != nil {
		if errors.Is(err, models.ErrStagingAreaMissing) {
			s.Metrics.ObserveMerge(metrics.MergeRejected, 0)
			return models.MergeResult{}, err
		}
		s.Metrics.ObserveMerge(metrics.MergeFailed, 0)
		return models.MergeResult{}, fmt.Errorf("%w: %v", models.ErrMergeFailed, err)
	}
	if len(chunks) != req.TotalChunks {
		s.Metrics.ObserveMerge(metrics.MergeRejected, 0)
		return models.MergeResult{}, fmt.Errorf("%w: staged %d, declared %d",
			models.ErrChunkCountMismatch, len(chunks), req.TotalChunks)
	}

	name := models.ArtifactName(req.Fingerprint, req.FileName)
	written, err := s.assemble(ctx, req.Fingerprint, name)
	if err != nil {
		log.WithError(err).Error("merge failed, chunks kept")
		if errors.Is(err, models.ErrFingerprintMismatch) {
			s.Metrics.ObserveMerge(metrics.MergeRejected, 0)
			return models.MergeResult{}, err
		}
		s.Metrics.ObserveMerge(metrics.MergeFailed, 0)
		return models.MergeResult{}, fmt.Errorf("%w: %v", models.ErrMergeFailed, err)
	}

	// Артефакт уже зафиксирован: отмена запроса не должна оставить staging-область.
	if err = s.Staging.DeleteStagingArea(context.WithoutCancel(ctx), req.Fingerprint); err != nil {
		log.WithError(err).Warn("artifact committed but staging area not removed")
	}

	s.Metrics.ObserveMerge(metrics.MergeOK, written)
	log.WithFields(logrus.Fields{
		"artifact":      name,
		"written":       written,
		"declared_size": req.FileSize,
	}).Info("upload merged")

	return models.MergeResult{
		FilePath: name,
		FileSize: req.FileSize,
		Written:  written,
	}, nil
}

// assemble пишет части во временный артефакт и фиксирует его. При ошибке артефакт удаляется.
func (s *Uploads) assemble(ctx context.Context, fingerprint, name string) (int64, error) {
	digest, err := newDigest(s.VerifyDigest)
	if err != nil {
		return 0, err
	}

	pending, err := s.Artifacts.Create(name)
	if err != nil {
		return 0, err
	}

	var w io.Writer = pending
	if digest != nil {
		w = io.MultiWriter(pending, digest)
	}

	err = s.Staging.ReadChunksInOrder(ctx, fingerprint, func(c models.Chunk, r io.Reader) error {
		if _, copyErr := io.Copy(w, r); copyErr != nil {
			return fmt.Errorf("append chunk %d: %w", c.Index, copyErr)
		}
		return nil
	})
	if err == nil && digest != nil && !digestMatches(digest, fingerprint) {
		err = fmt.Errorf("%w: %s digest of assembled file differs", models.ErrFingerprintMismatch, s.VerifyDigest)
	}
	if err != nil {
		if abortErr := pending.Abort(); abortErr != nil {
			s.Log.WithError(abortErr).Warn("pending artifact not removed")
		}
		return 0, err
	}

	if err = pending.Commit(); err != nil {
		return 0, err
	}

	return pending.Written(), nil
}
