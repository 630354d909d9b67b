// Package server hosts the HTTP surface: the v1 REST API, the health
// endpoint, and the Prometheus metrics endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/amity/ai"
	"github.com/hrygo/amity/internal/profile"
	"github.com/hrygo/amity/match"
	apiv1 "github.com/hrygo/amity/server/router/api/v1"
	"github.com/hrygo/amity/store"
	"github.com/hrygo/amity/vectordb"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer wires the AI services, the embedding index, and the matching
// pipeline into an HTTP server. The embedding service is mandatory; the
// icebreaker LLM is optional and its absence only disables enrichment.
func NewServer(_ context.Context, instanceProfile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(requestLogger())
	echoServer.Use(middleware.CORS())

	aiConfig := ai.NewConfigFromProfile(instanceProfile)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ai configuration")
	}
	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	index := vectordb.NewIndex(storeInstance, embeddingService)
	detector := match.NewConflictDetector(embeddingService,
		match.WithConflictThreshold(instanceProfile.ConflictThreshold),
	)
	selector := match.NewMMRSelector(index, instanceProfile.MMRLambda)

	engineOpts := []match.EngineOption{
		match.WithRetrieveTopK(instanceProfile.RetrieveTopK),
		match.WithMatchTopN(instanceProfile.MatchTopN),
	}
	if instanceProfile.IsLLMEnabled() {
		llmService, err := ai.NewLLMService(&aiConfig.LLM)
		if err != nil {
			slog.Warn("failed to initialize icebreaker LLM, falling back to templates",
				"model", aiConfig.LLM.Model,
				"error", err,
			)
		} else {
			slog.Info("icebreaker LLM initialized",
				"model", aiConfig.LLM.Model,
				"base_url", aiConfig.LLM.BaseURL,
			)
			engineOpts = append(engineOpts,
				match.WithIcebreakers(match.NewEnrichedIceBreaker(llmService, match.NewIceBreakerGenerator())),
			)
		}
	}
	engine := match.NewEngine(index, detector, selector, engineOpts...)

	server := &Server{
		Profile:    instanceProfile,
		Store:      storeInstance,
		echoServer: echoServer,
	}

	apiV1Service := apiv1.NewAPIV1Service(instanceProfile, storeInstance, index, engine)
	apiV1Service.RegisterRoutes(echoServer)

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": instanceProfile.Version,
		})
	})
	echoServer.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return server, nil
}

// Start begins serving in the background. Fatal listener errors surface in
// the log; the caller coordinates lifetime through Shutdown.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start http server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("amity stopped properly")
}
