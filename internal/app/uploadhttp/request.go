package uploadhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

// decodeParams заполняет запрос из JSON-тела или, для форм, из полей формы.
// Временные файлы multipart-формы удаляются до возврата.
func (a *Server) decodeParams(r *http.Request, dst interface{ fromForm(url.Values) }) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		err := r.ParseMultipartForm(a.MaxMemory)
		if r.MultipartForm != nil {
			defer func() {
				_ = r.MultipartForm.RemoveAll()
			}()
		}
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
		}
		dst.fromForm(r.Form)
		return nil
	default:
		if r.Body == nil || r.ContentLength == 0 {
			return nil
		}
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
		}
		return nil
	}
}

type checkUploadParams struct {
	uploadproto.CheckUploadRequest
}

func (p *checkUploadParams) fromForm(v url.Values) {
	p.FileName = v.Get(uploadproto.FieldFileName)
	p.FileHash = v.Get(uploadproto.FieldFileHash)
	p.ChunkSize = uploadproto.Number(v.Get(uploadproto.FieldChunkSize))
}

type mergeParams struct {
	uploadproto.MergeRequest
}

func (p *mergeParams) fromForm(v url.Values) {
	p.FileName = v.Get(uploadproto.FieldFileName)
	p.FileHash = v.Get(uploadproto.FieldFileHash)
	p.TotalChunks = uploadproto.Number(v.Get(uploadproto.FieldTotalChunks))
	p.ChunkSize = uploadproto.Number(v.Get(uploadproto.FieldChunkSize))
	p.FileSize = uploadproto.Number(v.Get(uploadproto.FieldFileSize))
}

// toModel проверяет наличие всех полей и переводит числа.
func (p *mergeParams) toModel() (models.MergeRequest, error) {
	if p.FileName == "" || p.FileHash == "" || !p.TotalChunks.Present() || !p.ChunkSize.Present() || !p.FileSize.Present() {
		return models.MergeRequest{}, models.ErrMissingParameter
	}

	total, err := parseInt(uploadproto.FieldTotalChunks, p.TotalChunks)
	if err != nil {
		return models.MergeRequest{}, err
	}
	chunkSize, err := parseInt(uploadproto.FieldChunkSize, p.ChunkSize)
	if err != nil {
		return models.MergeRequest{}, err
	}
	fileSize, err := parseInt(uploadproto.FieldFileSize, p.FileSize)
	if err != nil {
		return models.MergeRequest{}, err
	}

	return models.MergeRequest{
		FileName:    p.FileName,
		Fingerprint: p.FileHash,
		TotalChunks: int(total),
		ChunkSize:   chunkSize,
		FileSize:    fileSize,
	}, nil
}

func parseInt(field string, n uploadproto.Number) (int64, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", models.ErrInvalidParameter, field)
	}
	return v, nil
}
