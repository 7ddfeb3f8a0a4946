package uploadhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/chunkstage/pkg/httperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail логирует ошибку и отдаёт её клиенту.
func (a *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := httperrors.Status(err)
	log := a.Log.WithField("request_id", middleware.GetReqID(r.Context())).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}

	httperrors.Write(w, err)
}
