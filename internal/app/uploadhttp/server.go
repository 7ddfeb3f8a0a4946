package uploadhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/chunkstage/internal/metrics"
	"github.com/sir_venger/chunkstage/internal/usecase/uploadsvc"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
	"github.com/sirupsen/logrus"
)

// defaultMaxMemory: сколько байт multipart-формы держать в памяти, остальное уходит во временные файлы.
const defaultMaxMemory = 32 << 20

type Deps struct {
	Uploads   uploadsvc.Service
	Log       logrus.FieldLogger
	Metrics   *metrics.Metrics
	MaxMemory int64
	PublicDir string
}

// Server обслуживает протокол загрузки частями.
type Server struct {
	Deps
}

// New создаёт HTTP-обработчик поверх сервиса загрузок.
func New(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.MaxMemory <= 0 {
		deps.MaxMemory = defaultMaxMemory
	}

	srv := &Server{Deps: deps}
	return srv.routes()
}

// routes регистрирует обработчики протокола, здоровья, метрик и статики.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Post(uploadproto.PathCheckUpload, a.checkUpload)
	r.Post(uploadproto.PathUpload, a.receiveChunk)
	r.Post(uploadproto.PathMerge, a.merge)

	r.Get(uploadproto.PathHealth, a.health)
	if a.Metrics != nil {
		r.Method(http.MethodGet, uploadproto.PathMetrics, a.Metrics.Handler())
	}
	if a.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(a.PublicDir)))
	}

	return r
}
