package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

// merge собирает загруженные части в итоговый файл.
func (a *Server) merge(w http.ResponseWriter, r *http.Request) {
	var params mergeParams
	if err := a.decodeParams(r, &params); err != nil {
		a.fail(w, r, err)
		return
	}

	req, err := params.toModel()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Uploads.Merge(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.MergeResponse{
		Success:  true,
		FilePath: res.FilePath,
		FileSize: res.FileSize,
	})
}
