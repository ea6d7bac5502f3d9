package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/reelclub/movie-club/external/tmdb"
	"github.com/reelclub/movie-club/internal/config"
	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/infrastructure/account/passport"
	cacherepo "github.com/reelclub/movie-club/internal/infrastructure/repository/cache"
	"github.com/reelclub/movie-club/internal/infrastructure/repository/postgres"
	"github.com/reelclub/movie-club/internal/interfaces/httpapi"
	basecache "github.com/reelclub/movie-club/internal/platform/cache"
	idgen "github.com/reelclub/movie-club/internal/platform/id"
	"github.com/reelclub/movie-club/internal/platform/logging"
	"github.com/reelclub/movie-club/internal/platform/resilience"
	"github.com/reelclub/movie-club/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect("postgres",
		normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.AppEnv == config.EnvDev {
		if err := postgres.BootstrapSeed(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	var clubRepo club.Repository = postgres.NewClubRepository(db)
	if cfg.CacheEnabled {
		clubRepo = cacherepo.NewClubRepository(clubRepo, basecache.NewStore(cfg.CacheTTL))
	}
	themeRepo := postgres.NewThemeRepository(db)
	cycleRepo := postgres.NewCycleRepository(db)
	seasonRepo := postgres.NewSeasonRepository(db)

	movieLookup := tmdb.NewClient(tmdb.ClientConfig{
		BaseURL:    cfg.TMDBBaseURL,
		APIKey:     cfg.TMDBAPIKey,
		Language:   cfg.TMDBLanguage,
		Timeout:    cfg.TMDBTimeout,
		MaxRetries: cfg.TMDBMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.TMDBCircuitEnabled,
			FailureThreshold: cfg.TMDBCircuitFailureCount,
			OpenTimeout:      cfg.TMDBCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.TMDBCircuitHalfOpenMaxReq,
		},
	})

	passportClient := passport.NewClient(
		&http.Client{Timeout: cfg.PassportTimeout},
		cfg.PassportBaseURL,
		cfg.PassportIntrospectPath,
		cfg.PassportTokenCacheTTL,
		logger,
	)

	seasonSvc := usecase.NewSeasonService(clubRepo, cycleRepo, seasonRepo, logger)
	cycleSvc := usecase.NewCycleService(clubRepo, themeRepo, cycleRepo, idgen.NewUUIDGenerator(), logger)
	nominationSvc := usecase.NewNominationService(clubRepo, cycleRepo, movieLookup, idgen.NewUUIDGenerator(), logger)
	watchSvc := usecase.NewWatchService(clubRepo, cycleRepo, logger)
	ballotSvc := usecase.NewBallotService(clubRepo, cycleRepo, logger)

	handler := httpapi.NewHandler(cycleSvc, nominationSvc, watchSvc, ballotSvc, seasonSvc, cfg.RebuildMaxWorkers, logger)
	router := httpapi.NewRouter(
		handler,
		passportClient,
		logger,
		cfg.SwaggerEnabled,
		cfg.CORSAllowedOrigins,
		cfg.InternalJobToken,
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	server.RegisterOnShutdown(func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	})

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
