package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"karlselfie/internal/http/handlers"
	httpapi "karlselfie/internal/http/httpapi"
	"karlselfie/internal/imagegen"
	"karlselfie/internal/infra"
	"karlselfie/internal/infra/credentials"
	"karlselfie/internal/infra/geoip"
	"karlselfie/internal/middleware"
	"karlselfie/internal/render"
	"karlselfie/internal/scenes"
	"karlselfie/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	catalog := scenes.Open(cfg.ScenesFile, logger)

	keys := credentials.NewStore(credentials.Options{Provider: cfg.ImageProvider, KeyFile: cfg.KeyFile})
	if _, source, err := keys.Resolve(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("no API key configured yet, renders will fail until one is set")
	} else {
		logger.Info().Str("provider", cfg.ImageProvider).Str("source", string(source)).Msg("API key found")
	}

	refs := storage.NewReferenceStore(cfg.ReferenceDir)
	if asset, err := refs.Load(); err != nil {
		logger.Warn().Err(err).Str("dir", refs.Dir()).Msg("reference image missing")
	} else {
		logger.Info().Str("file", asset.Name).Int("bytes", len(asset.Data)).Msg("reference image loaded")
	}

	var editor imagegen.Editor
	switch cfg.ImageProvider {
	case imagegen.ProviderGemini:
		editor = imagegen.NewGeminiClient(imagegen.GeminiOptions{
			BaseURL:     cfg.GeminiBaseURL,
			Model:       cfg.GeminiModel,
			AspectRatio: cfg.GeminiAspect,
			Timeout:     cfg.UpstreamHTTPTimeout(),
		})
	default:
		editor = imagegen.NewOpenAIClient(imagegen.OpenAIOptions{
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			Size:         cfg.OpenAISize,
			Quality:      cfg.OpenAIQuality,
			Organization: cfg.OpenAIOrg,
			Timeout:      cfg.UpstreamHTTPTimeout(),
		})
	}

	svc := render.NewService(render.Options{
		Scenes:     catalog,
		Keys:       keys,
		References: refs,
		Editor:     editor,
		Timeout:    cfg.RenderTimeout,
		Logger:     logger,
	})

	app := &handlers.App{
		Renderer:       svc,
		SceneCatalog:   catalog,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Provider:       editor.Name(),
	}

	var lookup middleware.CountryLookup
	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip disabled")
	} else if geo != nil {
		defer geo.Close()
		lookup = geo.Lookup()
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:        logger,
		CORSOrigins:   cfg.CORSOrigins,
		DefaultLocale: cfg.DefaultLocale,
		CountryLookup: lookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("provider", editor.Name()).
			Int("scenes", catalog.Len()).
			Msg("karl selfie API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
