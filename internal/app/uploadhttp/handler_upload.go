package uploadhttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

// receiveChunk принимает multipart-форму с одной частью файла.
func (a *Server) receiveChunk(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(a.MaxMemory)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		a.fail(w, r, models.ErrMissingParameter)
		return
	case err != nil:
		a.fail(w, r, fmt.Errorf("%w: %v", models.ErrInvalidParameter, err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	chunk, err := chunkFromForm(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	file, _, err := r.FormFile(uploadproto.FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			a.fail(w, r, models.ErrNoPayload)
			return
		}
		a.fail(w, r, fmt.Errorf("%w: %v", models.ErrInvalidParameter, err))
		return
	}
	defer file.Close()
	chunk.Payload = file

	ack, err := a.Uploads.ReceiveChunk(r.Context(), chunk)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.UploadResponse{
		Success:    true,
		ChunkIndex: ack.ChunkIndex,
	})
}

// chunkFromForm проверяет обязательные поля формы; payload подставляется отдельно.
func chunkFromForm(r *http.Request) (models.ChunkUpload, error) {
	fileName := r.FormValue(uploadproto.FieldFileName)
	fileHash := r.FormValue(uploadproto.FieldFileHash)
	idxStr := r.FormValue(uploadproto.FieldChunkIndex)
	totalStr := r.FormValue(uploadproto.FieldTotalChunks)
	if fileName == "" || fileHash == "" || idxStr == "" || totalStr == "" {
		return models.ChunkUpload{}, models.ErrMissingParameter
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return models.ChunkUpload{}, fmt.Errorf("%w: chunk index %q", models.ErrInvalidParameter, idxStr)
	}
	total, err := strconv.Atoi(totalStr)
	if err != nil {
		return models.ChunkUpload{}, fmt.Errorf("%w: total chunks %q", models.ErrInvalidParameter, totalStr)
	}

	return models.ChunkUpload{
		FileName:    fileName,
		Fingerprint: fileHash,
		Index:       idx,
		TotalChunks: total,
	}, nil
}
