package httperrors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{models.ErrMissingParameter, http.StatusBadRequest, "missing parameter"},
		{models.ErrMissingFingerprint, http.StatusBadRequest, "missing fingerprint"},
		{fmt.Errorf("%w: chunk index %q", models.ErrInvalidParameter, "x"), http.StatusBadRequest, "invalid parameter"},
		{models.ErrNoPayload, http.StatusBadRequest, "no file received"},
		{fmt.Errorf("merge abc: %w", models.ErrStagingAreaMissing), http.StatusNotFound, "staging area missing"},
		{models.ErrChunkCountMismatch, http.StatusConflict, "chunk count mismatch"},
		{models.ErrFingerprintMismatch, http.StatusUnprocessableEntity, "fingerprint mismatch"},
		{fmt.Errorf("%w: write /srv/final: no space left on device", models.ErrMergeFailed), http.StatusInternalServerError, "merge failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		status, msg := Status(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, fmt.Errorf("%w: open /tmp/x: permission denied", models.ErrMergeFailed))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"merge failed"}`, rec.Body.String())
}
