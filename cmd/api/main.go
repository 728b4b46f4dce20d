// Package main is the entrypoint for the ASHA Connect API server.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/cache"
	"github.com/ashaconnect/ashaconnect/internal/config"
	"github.com/ashaconnect/ashaconnect/internal/handler"
	"github.com/ashaconnect/ashaconnect/internal/llm"
	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/middleware"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/report"
	"github.com/ashaconnect/ashaconnect/internal/repository"
	"github.com/ashaconnect/ashaconnect/internal/server"
	"github.com/ashaconnect/ashaconnect/internal/service"
	syncworker "github.com/ashaconnect/ashaconnect/internal/sync"
	"github.com/ashaconnect/ashaconnect/internal/telephony"
	"github.com/ashaconnect/ashaconnect/internal/voice"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	for _, dir := range []string{filepath.Dir(cfg.LocalDBPath), cfg.RecordingsPath} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Central database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Offline store
	store, err := localstore.Open(cfg.LocalDBPath, logger)
	if err != nil {
		logger.Error("failed to open local store", "error", err, "path", cfg.LocalDBPath)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("local store ready", "path", cfg.LocalDBPath)

	// Reporting connection (lib/pq, separate from the pgx pool)
	reportDB, err := report.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open reporting connection", "error", sanitizeError(err, cfg.DatabaseURL))
		os.Exit(1)
	}
	defer reportDB.Close()
	reporter := report.New(reportDB)

	// Metrics
	recorder := metrics.NewPrometheus()

	// Sync worker
	worker := syncworker.NewWorker(store, repo, logger, recorder, syncworker.Options{
		Interval:      cfg.SyncIntervalDuration(),
		Retention:     cfg.RetentionWindow(),
		StorageBudget: int64(cfg.MaxStorageSizeMB) * 1024 * 1024,
	})

	// Assessment model (optional)
	var analyzer service.ModelAnalyzer
	if cfg.ModelURL != "" {
		llmAnalyzer := llm.NewAnalyzer(llm.New(cfg.ModelURL, cfg.ModelTemp, cfg.ModelMaxTokens, logger), logger)
		analyzer = llmAnalyzer
		logger.Info("assessment model configured", "url", cfg.ModelURL)
	} else {
		logger.Info("assessment model not configured, rule engine only")
	}

	// Speech engines (optional)
	var transcriber voice.Transcriber
	if cfg.SpeechURL != "" {
		transcriber = voice.NewHTTPTranscriber(cfg.SpeechURL, logger)
	}
	var synthesizer voice.Synthesizer
	if cfg.TTSURL != "" {
		synthesizer = voice.NewHTTPSynthesizer(cfg.TTSURL, cfg.VoiceGender, logger)
	}

	// Services
	issuer := auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.TokenExpiry())
	userService := service.NewUserService(repo, issuer, cacheClient, recorder, logger)
	patientService := service.NewPatientService(store, worker, logger)
	healthService := service.NewHealthService(store, repo, patientService, analyzer, worker, recorder, logger)
	voiceService := service.NewVoiceService(transcriber, synthesizer, userService, healthService, recorder, logger, cfg.VoiceLanguage)
	registry := telephony.NewRegistry(store, synthesizer, recorder, logger, cfg.RecordingsPath, cfg.VoiceLanguage)

	// Handlers
	h := handler.New(cfg.AppName, cfg.AppVersion)
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	userHandler := handler.NewUserHandler(userService, logger)
	patientHandler := handler.NewPatientHandler(patientService, logger)
	assessmentHandler := handler.NewAssessmentHandler(healthService, logger)
	voiceHandler := handler.NewVoiceHandler(voiceService, logger)
	callHandler := handler.NewCallHandler(registry, logger)
	adminHandler := handler.NewAdminHandler(userService, worker, store, registry, reporter, modelProbe(analyzer), cfg, logger)

	r := setupRouter(routerDeps{
		base:        h,
		health:      healthHandler,
		users:       userHandler,
		patients:    patientHandler,
		assessments: assessmentHandler,
		voice:       voiceHandler,
		calls:       callHandler,
		admin:       adminHandler,
		issuer:      issuer,
		cache:       cacheClient,
		metrics:     recorder,
		cfg:         cfg,
		logger:      logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Start the sync worker; registered first so it shuts down last and
	// gets a final upload pass after the HTTP server drains.
	if cfg.SyncEnabled {
		workerCtx, stopWorker := context.WithCancel(ctx)
		workerDone := make(chan error, 1)
		go func() {
			workerDone <- worker.Run(workerCtx)
		}()
		srv.OnShutdown("sync_worker", func(ctx context.Context) error {
			stopWorker()
			select {
			case err := <-workerDone:
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	} else {
		logger.Warn("background sync disabled, records stay queued until triggered")
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"sync_enabled", cfg.SyncEnabled,
		"default_language", cfg.VoiceLanguage,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// modelProbe adapts the optional analyzer for the admin system view.
func modelProbe(analyzer service.ModelAnalyzer) handler.ModelAvailability {
	if analyzer == nil {
		return nil
	}
	return analyzer
}

// initLogger initializes the slog logger based on configuration.
// When LOG_FILE is set, logs are written to both stdout and a
// size-rotated file so field devices keep a local history.
func initLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base        *handler.Handler
	health      *handler.HealthHandler
	users       *handler.UserHandler
	patients    *handler.PatientHandler
	assessments *handler.AssessmentHandler
	voice       *handler.VoiceHandler
	calls       *handler.CallHandler
	admin       *handler.AdminHandler
	issuer      *auth.TokenIssuer
	cache       *cache.Cache
	metrics     *metrics.PrometheusRecorder
	cfg         *config.Config
	logger      *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      d.cfg.IsDevelopment(),
		MaxRequestBodySize: d.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))
	r.Use(middleware.Compression)

	// Probes and metrics (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Method("GET", "/metrics", d.metrics.Handler())

	// Root info endpoint
	r.Get("/", d.base.Info)

	authCfg := middleware.AuthConfig{
		Logger: d.logger,
		Issuer: d.issuer,
		Cache:  d.cache,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       d.logger,
		Cache:        d.cache,
		LoginEnabled: d.cfg.RateLimitLoginEnabled,
		LoginRPM:     d.cfg.RateLimitLoginRPM,
		LoginBurst:   d.cfg.RateLimitLoginBurst,
	}

	// Login is the only unauthenticated API route, rate limited per IP.
	r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/api/v1/auth/login", d.users.Login)

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Post("/auth/logout", d.users.Logout)

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", d.users.Profile)
			r.Patch("/", d.users.UpdateProfile)
			r.Post("/password", d.users.ChangePassword)
			r.Get("/preferences", d.users.Preferences)
			r.Put("/preferences", d.users.UpdatePreferences)
		})

		r.Route("/patients", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermPatientView)).Get("/", d.patients.List)
			r.With(middleware.RequirePermission(auth.PermPatientView)).Get("/{id}", d.patients.Get)
			r.With(middleware.RequirePermission(auth.PermPatientCreate)).Post("/", d.patients.Register)
			r.With(middleware.RequirePermission(auth.PermPatientEdit)).Patch("/{id}", d.patients.Update)
			r.With(middleware.RequirePermission(auth.PermPatientView)).Get("/{id}/assessments", d.assessments.History)
		})

		r.Route("/assessments", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermHealthAssess)).Post("/", d.assessments.Assess)
			r.With(middleware.RequirePermission(auth.PermPatientView)).Get("/{id}", d.assessments.Get)
		})

		r.With(middleware.RequirePermission(auth.PermReportView)).Get("/referrals", d.assessments.Referrals)
		r.Get("/conditions", d.assessments.Conditions)

		r.Route("/voice", func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermVoiceUse))
			r.Post("/transcribe", d.voice.Transcribe)
			r.Post("/synthesize", d.voice.Synthesize)
			r.Post("/detect-language", d.voice.DetectLanguage)
			r.Get("/languages", d.voice.Languages)
			r.Put("/language", d.voice.SetLanguage)
			r.Post("/conversation", d.voice.Converse)
		})

		r.Route("/calls", func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermVoiceUse))
			r.Post("/", d.calls.Start)
			r.Get("/active", d.calls.Active)
			r.Get("/history", d.calls.History)
			r.Get("/{id}", d.calls.Get)
			r.Post("/{id}/transcript", d.calls.AppendTranscript)
			r.Post("/{id}/assessment", d.calls.AttachAssessment)
			r.Post("/{id}/end", d.calls.End)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermUserView)).Get("/users", d.admin.ListUsers)
			r.With(middleware.RequireAdmin()).Post("/users", d.admin.CreateUser)
			r.With(middleware.RequireAdmin()).Patch("/users/{id}/active", d.admin.SetUserActive)
			r.With(middleware.RequireAdmin()).Delete("/users/{id}", d.admin.DeleteUser)

			r.With(middleware.RequirePermission(auth.PermSyncTrigger)).Get("/sync/status", d.admin.SyncStatus)
			r.With(middleware.RequirePermission(auth.PermSyncTrigger)).Post("/sync/trigger", d.admin.TriggerSync)
			r.With(middleware.RequirePermission(auth.PermSyncTrigger)).Post("/sync/retry", d.admin.RetrySync)

			r.With(middleware.RequireAdmin()).Get("/system", d.admin.SystemInfo)
			r.With(middleware.RequireAdmin()).Get("/logs", d.admin.Logs)
			r.With(middleware.RequireAdmin()).Get("/resources", d.admin.Resources)
			r.With(middleware.RequirePermission(auth.PermReportView)).Get("/reports/usage", d.admin.UsageReport)
			r.With(middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin)).Get("/reports/referrals", d.admin.ReferralReport)
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
