package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

// checkUpload возвращает число уже загруженных частей, чтобы клиент мог продолжить загрузку.
func (a *Server) checkUpload(w http.ResponseWriter, r *http.Request) {
	var req checkUploadParams
	if err := a.decodeParams(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	// chunkSize непрозрачен: нечисловое значение возвращается как 0.
	chunkSize, _ := req.ChunkSize.Int64()

	inv, err := a.Uploads.Inventory(r.Context(), req.FileName, req.FileHash, chunkSize)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.CheckUploadResponse{
		UploadedChunks: inv.UploadedChunks,
		ChunkSize:      inv.ChunkSize,
	})
}
