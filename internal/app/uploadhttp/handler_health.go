package uploadhttp

import (
	"net/http"

	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

// health отдаёт число незавершённых загрузок.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	areas, err := a.Uploads.StagingAreas(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadproto.HealthResponse{
		OK:           true,
		StagingAreas: areas,
	})
}
