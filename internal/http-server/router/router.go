package router

import (
	"net/http"
	"time"

	exportGet "attendance-bot/internal/http-server/handlers/export/get"
	"attendance-bot/internal/http-server/handlers/health"
	recapGet "attendance-bot/internal/http-server/handlers/recap/get"
	"attendance-bot/internal/http-server/middleware/auth"
	mwLogger "attendance-bot/internal/http-server/middleware/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Reports interface {
	recapGet.RecapGetter
	exportGet.Exporter
}

func New(log *logrus.Logger, reports Reports, loc *time.Location, adminToken string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", health.New())

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.AdminToken(adminToken))
		r.Get("/recap", recapGet.New(log, reports, loc))
		r.Get("/export", exportGet.New(log, reports, loc))
	})

	return router
}
