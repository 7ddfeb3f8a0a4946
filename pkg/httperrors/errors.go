package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

const internalMessage = "internal error"

var statuses = []struct {
	target error
	status int
}{
	{models.ErrMissingParameter, http.StatusBadRequest},
	{models.ErrMissingFingerprint, http.StatusBadRequest},
	{models.ErrInvalidParameter, http.StatusBadRequest},
	{models.ErrNoPayload, http.StatusBadRequest},
	{models.ErrStagingAreaMissing, http.StatusNotFound},
	{models.ErrChunkCountMismatch, http.StatusConflict},
	{models.ErrFingerprintMismatch, http.StatusUnprocessableEntity},
	{models.ErrMergeFailed, http.StatusInternalServerError},
}

// Status возвращает HTTP-статус и публичное сообщение для ошибки.
// Подробности обёрнутых ошибок наружу не отдаются.
func Status(err error) (int, string) {
	for _, s := range statuses {
		if errors.Is(err, s.target) {
			return s.status, s.target.Error()
		}
	}
	return http.StatusInternalServerError, internalMessage
}

// Write пишет ошибку в формате {"error": "..."}.
func Write(w http.ResponseWriter, err error) {
	status, msg := Status(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(uploadproto.ErrorResponse{Error: msg})
}
