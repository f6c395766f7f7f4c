package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"app/cfg"
	"app/internal/app/api"
	"app/internal/app/processor"
	"app/pkg/audiocache"
	"app/pkg/tts"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "cfg-path", "cfg/cfg.yaml", "path to config file")
	flag.Parse()

	var cfg *cfg.Config
	if cfgFile, err := os.ReadFile(cfgPath); err != nil {
		log.Fatalf("can't open %s file: %v", cfgPath, err)
	} else if err = yaml.Unmarshal(cfgFile, &cfg); err != nil {
		log.Fatal("can't unmarshal cfg.yaml file", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	tts.RegisterMetrics(reg)
	processor.RegisterMetrics(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := audiocache.New(&cfg.Cache)
	if err != nil {
		log.Fatal("failed to init audio cache: ", err)
	}

	pool := tts.NewPool(logger.WithGroup("tts"), &cfg.TTS)
	defer pool.Close()

	synth := processor.NewService(logger.WithGroup("synth"), &cfg.Synth, cache, pool)

	api := api.NewAPI(&cfg.Api, logger.WithGroup("api"), synth, reg)

	router := api.NewRouter()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Api.Port),
		Handler: router,
	}

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()

		voicesCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		checkVoices(voicesCtx, logger.WithGroup("voices"), &cfg.TTS)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		logger.Info("Starting server", "port", cfg.Api.Port)

		if err := srv.ListenAndServe(); err != nil {
			logger.Error("ListenAndServe finished", "err", err)
		}
	}()

	select {
	case <-ctx.Done():
	case <-stop:
		logger.Info("Interrupt triggerred")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
}

// checkVoices warns about configured voices the provider does not know.
// Best-effort: a failed catalog fetch never blocks startup.
func checkVoices(ctx context.Context, logger *slog.Logger, ttsCfg *tts.Config) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	voices, err := tts.ListVoices(ctx, httpClient, ttsCfg)
	if err != nil {
		logger.Warn("failed to fetch provider voice catalog", "err", err)
		return
	}

	known := make(map[string]struct{}, len(voices))
	for _, voice := range voices {
		known[voice.ShortName] = struct{}{}
	}

	for language, voice := range ttsCfg.Voices {
		if _, ok := known[voice]; !ok {
			logger.Warn("configured voice not in provider catalog", "language", language, "voice", voice)
		}
	}

	if ttsCfg.Voice != "" {
		if _, ok := known[ttsCfg.Voice]; !ok {
			logger.Warn("default voice not in provider catalog", "voice", ttsCfg.Voice)
		}
	}
}
