package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogchi "github.com/samber/slog-chi"
)

type Config struct {
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// Streamer is the synthesis pipeline; internal/app/processor implements it.
type Streamer interface {
	Stream(ctx context.Context, text, language string, sink io.Writer) ([]byte, error)
}

type API struct {
	logger *slog.Logger

	cfg *Config

	streamer Streamer

	metricsReg *prometheus.Registry
}

func NewAPI(cfg *Config, logger *slog.Logger, streamer Streamer, metricsReg *prometheus.Registry) *API {
	return &API{
		cfg: cfg,

		logger: logger,

		streamer: streamer,

		metricsReg: metricsReg,
	}
}

func (api *API) NewRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(slogchi.New(api.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.StripSlashes)

	router.Use(middleware.Recoverer)

	if api.metricsReg != nil {
		router.Handle("/metrics", promhttp.HandlerFor(api.metricsReg, promhttp.HandlerOpts{}))
	}

	router.Post("/tts", api.HandleTTS)

	return router
}
