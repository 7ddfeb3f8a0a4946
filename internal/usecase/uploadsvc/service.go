package uploadsvc

import (
	"context"
	"fmt"

	"github.com/sir_venger/chunkstage/internal/artifact"
	"github.com/sir_venger/chunkstage/internal/metrics"
	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/internal/staging"
	"github.com/sirupsen/logrus"
)

type (
	// Service объединяет три операции протокола загрузки частями.
	Service interface {
		Inventory(ctx context.Context, fileName, fingerprint string, chunkSize int64) (models.Inventory, error)
		ReceiveChunk(ctx context.Context, chunk models.ChunkUpload) (models.ChunkAck, error)
		Merge(ctx context.Context, req models.MergeRequest) (models.MergeResult, error)
		StagingAreas(ctx context.Context) (int, error)
	}
)

// Deps содержит зависимости сервиса. Log и Metrics необязательны.
type Deps struct {
	Staging      staging.Store
	Artifacts    *artifact.Dir
	Log          logrus.FieldLogger
	Metrics      *metrics.Metrics
	VerifyDigest string
}

type Uploads struct {
	Deps
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) (*Uploads, error) {
	if deps.Staging == nil || deps.Artifacts == nil {
		return nil, fmt.Errorf("staging store and artifact dir are required")
	}
	if _, err := newDigest(deps.VerifyDigest); err != nil {
		return nil, err
	}
	if deps.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		deps.Log = l
	}

	return &Uploads{Deps: deps}, nil
}

var _ Service = (*Uploads)(nil)

// StagingAreas возвращает число незавершённых загрузок.
func (s *Uploads) StagingAreas(ctx context.Context) (int, error) {
	areas, err := s.Staging.Areas(ctx)
	if err != nil {
		return 0, err
	}
	return len(areas), nil
}
