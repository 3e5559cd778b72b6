package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hamidnorouzi/taskpilot/internal/application/auth"
	"github.com/hamidnorouzi/taskpilot/internal/application/ports"
	"github.com/hamidnorouzi/taskpilot/internal/config"
	infraauth "github.com/hamidnorouzi/taskpilot/internal/infrastructure/auth"
	httprouter "github.com/hamidnorouzi/taskpilot/internal/infrastructure/http"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/handlers"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/http/middleware"
	mongorepo "github.com/hamidnorouzi/taskpilot/internal/infrastructure/persistence/mongo"
	"github.com/hamidnorouzi/taskpilot/internal/infrastructure/session"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	defer cancelConnect()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("connect to mongodb")
	}
	defer func() { _ = client.Disconnect(ctx) }()
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("ping mongodb")
	}
	db := client.Database(cfg.Mongo.Database)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; falling back to mongo session store")
			redisClient = nil
		}
	}

	sessionTTL := time.Duration(cfg.Session.MaxAgeSeconds) * time.Second
	var sessionStore ports.SessionStore
	if redisClient != nil {
		sessionStore = session.NewRedisStore(redisClient, sessionTTL)
	} else {
		mongoSessions := mongorepo.NewSessionStore(db, sessionTTL)
		if err := mongoSessions.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("create session indexes")
		}
		sessionStore = mongoSessions
	}

	identityRepo := mongorepo.NewIdentityRepository(db)
	if err := identityRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("create identity indexes")
	}
	projectRepo := mongorepo.NewProjectRepository(db)
	taskRepo := mongorepo.NewTaskRepository(db)

	loginService := auth.NewService(identityRepo, sessionStore)

	exchanges := make(map[string]*auth.Exchange)
	if cfg.OAuth.LinkedIn.ClientID != "" && cfg.OAuth.LinkedIn.ClientSecret != "" {
		linkedin := infraauth.NewLinkedIn(infraauth.LinkedInConfig{
			ClientID:     cfg.OAuth.LinkedIn.ClientID,
			ClientSecret: cfg.OAuth.LinkedIn.ClientSecret,
			RedirectURL:  cfg.OAuth.CallbackBaseURL + "/auth/linkedin/callback",
		})
		exchanges[linkedin.Name()] = auth.NewExchange(linkedin, loginService)
	}
	infraauth.InitGothProviders(infraauth.GothConfig{
		CallbackBaseURL:    cfg.OAuth.CallbackBaseURL,
		SessionSecret:      cfg.Session.Secret,
		GoogleClientID:     cfg.OAuth.Google.ClientID,
		GoogleClientSecret: cfg.OAuth.Google.ClientSecret,
		GitHubClientID:     cfg.OAuth.GitHub.ClientID,
		GitHubClientSecret: cfg.OAuth.GitHub.ClientSecret,
	})

	sessions := middleware.NewSessionManager(sessionStore, middleware.SessionConfig{
		TTL:    sessionTTL,
		Secure: cfg.Session.CookieSecure,
	}, log)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment))
	corsMiddleware := middleware.CORS([]string{cfg.Frontend.URL})

	authHandler := handlers.NewAuthHandler(loginService, exchanges, sessions, cfg.Frontend.URL, log)
	projectHandler := handlers.NewProjectHandler(projectRepo, taskRepo, log)
	taskHandler := handlers.NewTaskHandler(taskRepo, projectRepo, log)
	healthHandler := handlers.NewHealthHandler(client, redisClient)

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:    authHandler,
		ProjectHandler: projectHandler,
		TaskHandler:    taskHandler,
		HealthHandler:  healthHandler,
		Sessions:       sessions,
		Log:            log,
		Secure:         secureMiddleware,
		CORS:           corsMiddleware,
		IPRateLimit:    ipLimit,
		Metrics:        true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}
