package uploadclient

import (
	"context"
	"crypto/md5" //nolint:gosec // отпечаток для корреляции частей
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize   = 5 << 20
	DefaultConcurrency = 4
	DefaultDigest      = "md5"
)

// UploadOptions управляет загрузкой файла.
type UploadOptions struct {
	// FileName: имя на сервере; по умолчанию базовое имя файла.
	FileName    string
	ChunkSize   int64
	Concurrency int
	// Digest: алгоритм отпечатка: md5 или sha256.
	Digest string
	// Progress: куда рисовать прогресс; nil отключает вывод.
	Progress io.Writer
}

func (o *UploadOptions) applyDefaults(path string) {
	if o.FileName == "" {
		o.FileName = filepath.Base(path)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Digest == "" {
		o.Digest = DefaultDigest
	}
}

// Fingerprint считает hex-отпечаток содержимого.
func Fingerprint(r io.Reader, digest string) (string, error) {
	var h hash.Hash
	switch digest {
	case "md5", "":
		h = md5.New() //nolint:gosec
	case "sha256":
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported digest %q", digest)
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChunkCount возвращает число частей размера chunkSize для файла размера size.
// Пустой файл передаётся одной пустой частью.
func ChunkCount(size, chunkSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

type filePlan struct {
	f           *os.File
	name        string
	fingerprint string
	size        int64
	chunkSize   int64
	total       int
}

// UploadFile загружает файл частями с возобновлением: спрашивает инвентаризацию,
// отправляет части начиная с уже загруженного числа, затем собирает файл.
// Если сервер ответил chunk count mismatch (загруженные части не были префиксом),
// все части отправляются повторно и сборка повторяется один раз.
func UploadFile(ctx context.Context, c Client, path string, opts UploadOptions) (uploadproto.MergeResponse, error) {
	opts.applyDefaults(path)

	f, err := os.Open(path)
	if err != nil {
		return uploadproto.MergeResponse{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return uploadproto.MergeResponse{}, err
	}

	fingerprint, err := Fingerprint(io.NewSectionReader(f, 0, info.Size()), opts.Digest)
	if err != nil {
		return uploadproto.MergeResponse{}, fmt.Errorf("fingerprint: %w", err)
	}

	plan := filePlan{
		f:           f,
		name:        opts.FileName,
		fingerprint: fingerprint,
		size:        info.Size(),
		chunkSize:   opts.ChunkSize,
		total:       ChunkCount(info.Size(), opts.ChunkSize),
	}

	inv, err := c.CheckUpload(ctx, uploadproto.CheckUploadRequest{
		FileName:  plan.name,
		FileHash:  plan.fingerprint,
		ChunkSize: uploadproto.Int(plan.chunkSize),
	})
	if err != nil {
		return uploadproto.MergeResponse{}, fmt.Errorf("check upload: %w", err)
	}

	resume := inv.UploadedChunks
	if resume > plan.total {
		resume = 0
	}

	res, err := sendAndMerge(ctx, c, plan, resume, opts)
	if errors.Is(err, models.ErrChunkCountMismatch) && resume > 0 {
		res, err = sendAndMerge(ctx, c, plan, 0, opts)
	}

	return res, err
}

func sendAndMerge(ctx context.Context, c Client, plan filePlan, from int, opts UploadOptions) (uploadproto.MergeResponse, error) {
	bar := newProgressBar(opts.Progress, fmt.Sprintf("Uploading %s", plan.name), plan.size)
	bar.AddBytes(plan.offset(from))

	if err := sendChunks(ctx, c, plan, from, opts.Concurrency, bar); err != nil {
		bar.Fail(err)
		return uploadproto.MergeResponse{}, err
	}

	res, err := c.Merge(ctx, uploadproto.MergeRequest{
		FileName:    plan.name,
		FileHash:    plan.fingerprint,
		TotalChunks: uploadproto.Int(int64(plan.total)),
		ChunkSize:   uploadproto.Int(plan.chunkSize),
		FileSize:    uploadproto.Int(plan.size),
	})
	if err != nil {
		bar.Fail(err)
		return uploadproto.MergeResponse{}, fmt.Errorf("merge: %w", err)
	}

	bar.Finish()
	return res, nil
}

// sendChunks отправляет части [from, total) не более чем concurrency запросами одновременно.
func sendChunks(ctx context.Context, c Client, plan filePlan, from, concurrency int, bar *progressBar) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for idx := from; idx < plan.total; idx++ {
		idx := idx
		eg.Go(func() error {
			off := plan.offset(idx)
			n := min(plan.chunkSize, plan.size-off)
			var r io.Reader = io.NewSectionReader(plan.f, off, n)
			if bar != nil {
				r = io.TeeReader(r, progressWriter{bar: bar})
			}

			_, err := c.UploadChunk(egCtx, ChunkRequest{
				FileName:    plan.name,
				FileHash:    plan.fingerprint,
				Index:       idx,
				TotalChunks: plan.total,
				Reader:      r,
			})
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			return nil
		})
	}

	return eg.Wait()
}

func (p filePlan) offset(idx int) int64 {
	off := int64(idx) * p.chunkSize
	if off > p.size {
		return p.size
	}
	return off
}
