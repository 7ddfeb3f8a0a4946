package integration

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sir_venger/chunkstage/internal/app/uploadhttp"
	"github.com/sir_venger/chunkstage/internal/artifact"
	"github.com/sir_venger/chunkstage/internal/staging"
	"github.com/sir_venger/chunkstage/internal/usecase/uploadsvc"
	"github.com/sir_venger/chunkstage/pkg/uploadclient"
	"github.com/stretchr/testify/require"
)

type env struct {
	client   uploadclient.Client
	store    staging.Store
	finalDir string
}

// newEnv поднимает сервис загрузок на реальном HTTP-сервере поверх выбранного бэкенда.
func newEnv(t *testing.T, backend, verifyDigest string) *env {
	t.Helper()

	store, err := staging.Open(staging.Options{
		Backend:   backend,
		Dir:       filepath.Join(t.TempDir(), "temp"),
		BadgerDir: filepath.Join(t.TempDir(), "staging.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	finalDir := filepath.Join(t.TempDir(), "final")
	finals, err := artifact.NewDir(finalDir)
	require.NoError(t, err)

	svc, err := uploadsvc.New(uploadsvc.Deps{
		Staging:      store,
		Artifacts:    finals,
		VerifyDigest: verifyDigest,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(uploadhttp.New(uploadhttp.Deps{Uploads: svc}))
	t.Cleanup(srv.Close)

	return &env{
		client:   uploadclient.NewWithHTTPClient(srv.URL, srv.Client()),
		store:    store,
		finalDir: finalDir,
	}
}

func writeTemp(t *testing.T, name string, payload []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, payload, 0o644))
	return path
}

// pattern возвращает детерминированное содержимое, в котором соседние части различаются.
func pattern(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i*7 + i/1024)
	}
	return b
}

func readFinal(t *testing.T, e *env, name string) []byte {
	t.Helper()
	got, err := os.ReadFile(filepath.Join(e.finalDir, name))
	require.NoError(t, err)
	return got
}

func chunkOf(payload []byte, idx int, size int) []byte {
	start := idx * size
	end := min(start+size, len(payload))
	return bytes.Clone(payload[start:end])
}
