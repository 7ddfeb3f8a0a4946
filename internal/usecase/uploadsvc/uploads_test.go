package uploadsvc

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sir_venger/chunkstage/internal/artifact"
	"github.com/sir_venger/chunkstage/internal/metrics"
	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/internal/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Uploads
	store    staging.Store
	finalDir string
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, store staging.Store, digest string) *fixture {
	t.Helper()
	if store == nil {
		fs, err := staging.NewFSStore(t.TempDir())
		require.NoError(t, err)
		store = fs
	}
	finalDir := t.TempDir()
	finals, err := artifact.NewDir(finalDir)
	require.NoError(t, err)

	m := metrics.New()
	svc, err := New(Deps{
		Staging:      store,
		Artifacts:    finals,
		Metrics:      m,
		VerifyDigest: digest,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, finalDir: finalDir, metrics: m}
}

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func (f *fixture) send(t *testing.T, fp string, idx, total int, payload []byte) {
	t.Helper()
	ack, err := f.svc.ReceiveChunk(context.Background(), models.ChunkUpload{
		FileName:    "test.txt",
		Fingerprint: fp,
		Index:       idx,
		TotalChunks: total,
		Payload:     bytes.NewReader(payload),
	})
	require.NoError(t, err)
	require.Equal(t, idx, ack.ChunkIndex)
}

func (f *fixture) count(t *testing.T, fp string) int {
	t.Helper()
	inv, err := f.svc.Inventory(context.Background(), "test.txt", fp, 1024)
	require.NoError(t, err)
	require.Equal(t, int64(1024), inv.ChunkSize)
	return inv.UploadedChunks
}

func (f *fixture) finalFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.finalDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func mergeReq(fp string, total int, size int64) models.MergeRequest {
	return models.MergeRequest{
		FileName:    "test.txt",
		Fingerprint: fp,
		TotalChunks: total,
		ChunkSize:   1024,
		FileSize:    size,
	}
}

func TestScenarioA_OutOfOrderUploadMerges(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	p := [][]byte{randomPayload(t, 1024), randomPayload(t, 1024), randomPayload(t, 1024)}

	f.send(t, "abc123", 1, 3, p[1])
	f.send(t, "abc123", 0, 3, p[0])
	f.send(t, "abc123", 2, 3, p[2])
	assert.Equal(t, 3, f.count(t, "abc123"))

	res, err := f.svc.Merge(context.Background(), mergeReq("abc123", 3, 3072))
	require.NoError(t, err)
	assert.Equal(t, "abc123-test.txt", res.FilePath)
	assert.Equal(t, int64(3072), res.FileSize)
	assert.Equal(t, int64(3072), res.Written)

	got, err := os.ReadFile(filepath.Join(f.finalDir, "abc123-test.txt"))
	require.NoError(t, err)
	assert.Equal(t, bytes.Join(p, nil), got)

	assert.Zero(t, f.count(t, "abc123"))
	areas, err := f.svc.StagingAreas(context.Background())
	require.NoError(t, err)
	assert.Zero(t, areas)
	series, err := testutil.GatherAndCount(f.metrics.Registry(), "chunkstage_merges_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestScenarioB_CountMismatchMutatesNothing(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	for i := 0; i < 3; i++ {
		f.send(t, "xyz", i, 5, []byte{byte(i)})
	}

	_, err := f.svc.Merge(context.Background(), mergeReq("xyz", 5, 5))
	require.ErrorIs(t, err, models.ErrChunkCountMismatch)

	assert.Equal(t, 3, f.count(t, "xyz"))
	assert.Empty(t, f.finalFiles(t))
}

func TestScenarioC_ResubmissionLastWriteWins(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	f.send(t, "fp", 0, 1, []byte("first payload"))
	f.send(t, "fp", 0, 1, []byte("second"))
	assert.Equal(t, 1, f.count(t, "fp"))

	res, err := f.svc.Merge(context.Background(), mergeReq("fp", 1, 6))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(f.finalDir, res.FilePath))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestMerge_PermutationsAndInterleaving(t *testing.T) {
	const n = 12 // индексы 10 и 11 проверяют числовую сортировку
	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = randomPayload(t, 100+i)
	}
	want := bytes.Join(payloads, nil)

	orders := map[string][]int{
		"ascending": {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		"reversed":  {11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		"shuffled":  {5, 10, 0, 11, 2, 7, 1, 9, 3, 8, 6, 4},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil, DigestNone)
			for step, idx := range order {
				f.send(t, "main", idx, n, payloads[idx])
				// чужая загрузка вперемешку
				f.send(t, "other", step, n, []byte("noise"))
				assert.Equal(t, step+1, f.count(t, "main"))
			}

			res, err := f.svc.Merge(context.Background(), mergeReq("main", n, int64(len(want))))
			require.NoError(t, err)
			got, err := os.ReadFile(filepath.Join(f.finalDir, res.FilePath))
			require.NoError(t, err)
			assert.Equal(t, want, got)

			assert.Equal(t, n, f.count(t, "other"))
		})
	}
}

func TestMerge_RepeatOverwritesArtifact(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	f.send(t, "fp", 0, 1, []byte("v1"))
	_, err := f.svc.Merge(context.Background(), mergeReq("fp", 1, 2))
	require.NoError(t, err)

	f.send(t, "fp", 0, 1, []byte("v2"))
	_, err = f.svc.Merge(context.Background(), mergeReq("fp", 1, 2))
	require.NoError(t, err)

	assert.Equal(t, []string{"fp-test.txt"}, f.finalFiles(t))
	got, err := os.ReadFile(filepath.Join(f.finalDir, "fp-test.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestMerge_Preconditions(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	ctx := context.Background()

	_, err := f.svc.Merge(ctx, models.MergeRequest{Fingerprint: "fp", TotalChunks: 1})
	assert.ErrorIs(t, err, models.ErrMissingParameter)

	_, err = f.svc.Merge(ctx, mergeReq("unknown", 1, 1))
	assert.ErrorIs(t, err, models.ErrStagingAreaMissing)

	_, err = f.svc.Merge(ctx, mergeReq("../escape", 1, 1))
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = f.svc.Merge(ctx, mergeReq("fp", 0, 1))
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	assert.Empty(t, f.finalFiles(t))
}

// brokenReader отдаёт первые части, затем падает посреди сборки.
type brokenReader struct {
	staging.Store
	failAfter int
}

func (b *brokenReader) ReadChunksInOrder(ctx context.Context, fp string, fn staging.ChunkFunc) error {
	seen := 0
	return b.Store.ReadChunksInOrder(ctx, fp, func(c models.Chunk, r io.Reader) error {
		if seen == b.failAfter {
			return errors.New("disk read error")
		}
		seen++
		return fn(c, r)
	})
}

func TestMerge_IOFailureKeepsChunks(t *testing.T) {
	inner, err := staging.NewFSStore(t.TempDir())
	require.NoError(t, err)
	f := newFixture(t, &brokenReader{Store: inner, failAfter: 2}, DigestNone)

	for i := 0; i < 4; i++ {
		f.send(t, "fp", i, 4, []byte("chunk"))
	}

	_, err = f.svc.Merge(context.Background(), mergeReq("fp", 4, 20))
	require.ErrorIs(t, err, models.ErrMergeFailed)

	// ни одна часть не потеряна, неполный артефакт не опубликован
	assert.Equal(t, 4, f.count(t, "fp"))
	assert.Empty(t, f.finalFiles(t))

	// после устранения сбоя сборка проходит
	f.svc.Staging = inner
	res, err := f.svc.Merge(context.Background(), mergeReq("fp", 4, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.Written)
}

func TestMerge_VerifyDigest(t *testing.T) {
	payload := []byte("hello, chunked world")
	md5sum := md5.Sum(payload) //nolint:gosec
	shaSum := sha256.Sum256(payload)

	cases := []struct {
		digest string
		fp     string
		ok     bool
	}{
		{DigestMD5, hex.EncodeToString(md5sum[:]), true},
		{DigestSHA256, hex.EncodeToString(shaSum[:]), true},
		{DigestSHA256, "DEADBEEF", false},
	}

	for _, tc := range cases {
		t.Run(tc.digest+"/"+tc.fp[:8], func(t *testing.T) {
			f := newFixture(t, nil, tc.digest)
			f.send(t, tc.fp, 0, 2, payload[:5])
			f.send(t, tc.fp, 1, 2, payload[5:])

			_, err := f.svc.Merge(context.Background(), mergeReq(tc.fp, 2, int64(len(payload))))
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, models.ErrFingerprintMismatch)
			assert.Equal(t, 2, f.count(t, tc.fp))
			assert.Empty(t, f.finalFiles(t))
		})
	}
}

func TestReceiveChunk_Validation(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	ctx := context.Background()
	valid := models.ChunkUpload{
		FileName:    "a.bin",
		Fingerprint: "fp",
		Index:       0,
		TotalChunks: 1,
		Payload:     bytes.NewReader([]byte("x")),
	}

	missingName := valid
	missingName.FileName = ""
	_, err := f.svc.ReceiveChunk(ctx, missingName)
	assert.ErrorIs(t, err, models.ErrMissingParameter)

	negative := valid
	negative.Index = -1
	_, err = f.svc.ReceiveChunk(ctx, negative)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	noPayload := valid
	noPayload.Payload = nil
	_, err = f.svc.ReceiveChunk(ctx, noPayload)
	assert.ErrorIs(t, err, models.ErrNoPayload)

	// отклонённые запросы не создают staging-область
	assert.Zero(t, f.count(t, "fp"))
}

func TestInventory_MissingFingerprint(t *testing.T) {
	f := newFixture(t, nil, DigestNone)
	_, err := f.svc.Inventory(context.Background(), "a.bin", "", 1024)
	assert.ErrorIs(t, err, models.ErrMissingFingerprint)
}

func TestNew_RejectsUnknownDigest(t *testing.T) {
	store := staging.NewMemoryStore()
	finals, err := artifact.NewDir(t.TempDir())
	require.NoError(t, err)

	_, err = New(Deps{Staging: store, Artifacts: finals, VerifyDigest: "crc32"})
	assert.Error(t, err)
}
