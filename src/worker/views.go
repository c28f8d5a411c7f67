package worker

import (
	"net/http"
	"time"

	"portfolio/src/utils"
	handlers "portfolio/src/worker/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Logger  *logrus.Logger
}

func NewServer(handler *handlers.Handler, logger *logrus.Logger) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		Logger:  logger,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(utils.LoggerMiddleware(s.Logger))

	s.Router.Get("/alive", s.Handler.Healthcheck)
	s.Router.Route("/api/reconciliation", func(r chi.Router) {
		r.Post("/daily", s.Handler.PostDailySync)
		r.Post("/backfill", s.Handler.PostBackfill)
		r.Post("/quantities", s.Handler.PostQuantityRefresh)
		r.Post("/year-range", s.Handler.PostYearRangeRefresh)
		r.Get("/last", s.Handler.GetLastRun)
	})
}

func NewHTTPServer(server *Server, port string) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      server,
	}
	return httpServer
}
