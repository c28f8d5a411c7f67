package api

import (
	"net/http"
	"time"

	handlers "portfolio/src/api/handlers"
	"portfolio/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router         *chi.Mux
	Handler        *handlers.Handler
	TokenAuth      *jwtauth.JWTAuth
	Logger         *logrus.Logger
	AllowedOrigins []string
}

func NewServer(handler *handlers.Handler, tokenAuth *jwtauth.JWTAuth, logger *logrus.Logger, allowedOrigins []string) *Server {
	server := &Server{
		Router:         chi.NewRouter(),
		Handler:        handler,
		TokenAuth:      tokenAuth,
		Logger:         logger,
		AllowedOrigins: allowedOrigins,
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
	s.Router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	s.Router.Get("/alive", handlers.Healthcheck)

	s.Router.Route("/api", func(r chi.Router) {
		r.Post("/login", s.Handler.PostLogin)
		r.Post("/logout", s.Handler.PostLogout)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.TokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/securities", s.Handler.GetAllSecurities(s.Handler.Portfolio))
			r.Get("/securities/{id}", s.Handler.GetSecurityByID(s.Handler.Portfolio))
			r.Get("/portfolio", s.Handler.GetPortfolio(s.Handler.Portfolio))
			r.Get("/portfolio/chart", s.Handler.GetPortfolioChart)
		})
	})

	s.Router.Route("/demo/api", func(r chi.Router) {
		r.Get("/securities", s.Handler.GetAllSecurities(s.Handler.Demo))
		r.Get("/securities/{id}", s.Handler.GetSecurityByID(s.Handler.Demo))
		r.Get("/portfolio", s.Handler.GetPortfolio(s.Handler.Demo))
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
