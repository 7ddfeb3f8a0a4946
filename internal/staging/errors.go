package staging

import (
	"errors"
	"fmt"

	"github.com/sir_venger/chunkstage/internal/models"
)

func isMissing(err error) bool {
	return errors.Is(err, models.ErrStagingAreaMissing)
}

func missingArea(fingerprint string) error {
	return fmt.Errorf("%w: %s", models.ErrStagingAreaMissing, fingerprint)
}
