package staging

import (
	"context"
	"io"
	"testing"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ReadSurvivesConcurrentDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	put(t, s, "fp", 0, "first")
	put(t, s, "fp", 1, "second")

	var got []string
	err := s.ReadChunksInOrder(ctx, "fp", func(c models.Chunk, r io.Reader) error {
		if c.Index == 0 {
			// параллельная сборка того же отпечатка уже удалила область
			require.NoError(t, s.DeleteStagingArea(ctx, "fp"))
		}
		b, err := io.ReadAll(r)
		got = append(got, string(b))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)

	err = s.ReadChunksInOrder(ctx, "fp", func(models.Chunk, io.Reader) error {
		t.Fatal("no chunks expected")
		return nil
	})
	assert.ErrorIs(t, err, models.ErrStagingAreaMissing)
}
