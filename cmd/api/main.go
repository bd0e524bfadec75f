// @title FutureGuide Admin Service API
// @version 1.0.0
// @description Admin backend for users, schools, analysis jobs, chatbot conversations and system alerts.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/api/handlers"
	"github.com/pratik-mahalle/adminservice/internal/api/router"
	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/domain/conversation"
	"github.com/pratik-mahalle/adminservice/internal/domain/system"
	"github.com/pratik-mahalle/adminservice/internal/notify"
	"github.com/pratik-mahalle/adminservice/internal/pkg/cache"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
	"github.com/pratik-mahalle/adminservice/internal/realtime"
	"github.com/pratik-mahalle/adminservice/internal/repository/memory"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/services"
	"github.com/pratik-mahalle/adminservice/internal/worker"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "1.0.0"

func main() {
	bootstrap := flag.Bool("bootstrap", false, "create the development schemas before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, OutputPath: cfg.Logging.OutputPath})
	utils.SetProduction(cfg.Server.IsProduction())

	if err := run(cfg, log, *bootstrap); err != nil {
		log.ErrorWithErr(err, "Admin service stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, bootstrap bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	log.With("driver", db.Driver()).Info("Connected to database")

	if bootstrap || cfg.Database.Driver == "sqlite" {
		if cfg.Server.IsProduction() {
			return errors.New("refusing to bootstrap schemas in production")
		}
		n, err := postgres.Bootstrap(ctx, db)
		if err != nil {
			return fmt.Errorf("bootstrap schemas: %w", err)
		}
		log.Infof("Applied %d schema file(s)", n)
	}

	policy := retry.Policy{
		Attempts:   uint(cfg.Retry.Attempts),
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
		Multiplier: retry.DefaultPolicy().Multiplier,
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	schoolRepo := postgres.NewSchoolRepository(db)
	jobRepo := postgres.NewJobRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	systemRepo := postgres.NewSystemRepository(db)

	// Response caches
	var (
		systemCaches services.SystemCaches
		chatbotStats *cache.TTL[*conversation.Stats]
	)
	if cfg.Cache.Enabled {
		systemCaches.Health = cache.New[*system.Health]("system_health", cfg.Cache.Size, cfg.Cache.HealthTTL)
		systemCaches.Metrics = cache.New[*system.Metrics]("system_metrics", cfg.Cache.Size, cfg.Cache.MetricsTTL)
		chatbotStats = cache.New[*conversation.Stats]("chatbot_stats", cfg.Cache.Size, cfg.Cache.StatsTTL)
	}

	authClient := auth.NewClient(auth.Config{
		BaseURL:          cfg.AuthService.URL,
		ServiceName:      cfg.AuthService.ServiceName,
		ServiceKey:       cfg.AuthService.ServiceKey,
		VerifyTimeout:    cfg.AuthService.VerifyTimeout,
		LoginTimeout:     cfg.AuthService.LoginTimeout,
		CacheTTL:         cfg.AuthService.CacheTTL,
		CacheSize:        cfg.Cache.Size,
		BreakerThreshold: uint32(cfg.AuthService.BreakerThreshold),
		BreakerTimeout:   cfg.AuthService.BreakerTimeout,
	}, log.Component("auth"))

	// Services
	userService := services.NewUserService(userRepo, activityRepo, policy, log.Component("users"))
	schoolService := services.NewSchoolService(schoolRepo, log.Component("schools"))
	jobService := services.NewJobService(jobRepo, userRepo, policy, log.Component("jobs"))
	conversationService := services.NewConversationService(conversationRepo, userRepo, chatbotStats, policy, log.Component("conversations"))
	systemService := services.NewSystemService(systemRepo, systemCaches, version, log.Component("system"))

	hub := realtime.NewHub(func(ctx context.Context) (interface{}, error) {
		return jobService.Stats(ctx)
	}, log.Component("realtime"))
	go hub.Run(ctx)

	var notifier alert.Notifier
	if cfg.Notify.Enabled() {
		nats, err := notify.NewNATSNotifier(cfg.Notify, log.Component("notify"))
		if err != nil {
			log.WarnWithErr(err, "Critical alert mirroring disabled")
		} else {
			defer nats.Close()
			notifier = nats
		}
	}

	alertService := services.NewAlertService(
		memory.NewAlertStore(alert.DefaultCapacity),
		activityRepo,
		hub,
		notifier,
		log.Component("alerts"),
	)

	// Background tasks
	scheduler := worker.NewScheduler(cfg.Database.QueryTimeout, log.Component("scheduler"))
	if err := scheduler.Every(cfg.Realtime.JobStatsInterval, worker.NewStatsPush(hub)); err != nil {
		return fmt.Errorf("schedule job stats push: %w", err)
	}
	monitor := worker.NewStuckJobMonitor(jobRepo, alertService, hub, cfg.Monitor.StuckJobThreshold, log)
	if err := scheduler.Add(cfg.Monitor.StuckJobSchedule, monitor); err != nil {
		return fmt.Errorf("schedule stuck job monitor: %w", err)
	}
	if err := scheduler.Every(time.Minute, worker.NewResourceSampler(systemService, jobRepo)); err != nil {
		return fmt.Errorf("schedule resource sampler: %w", err)
	}
	scheduler.Start()

	// The socket keeps working without an auth round trip when verification is off
	var wsVerifier auth.Verifier = authClient
	if !cfg.Realtime.VerifyTokens {
		wsVerifier = nil
		log.Warn("WebSocket token verification is disabled")
	}

	val := validator.New()
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(systemService, version, cfg.Server.Environment, log),
		Auth:         handlers.NewAuthHandler(authClient, log, val),
		User:         handlers.NewUserHandler(userService, jobService, conversationService, log, val),
		School:       handlers.NewSchoolHandler(schoolService, log, val),
		Job:          handlers.NewJobHandler(jobService, log),
		Conversation: handlers.NewConversationHandler(conversationService, log),
		System:       handlers.NewSystemHandler(systemService, log),
		Alert:        handlers.NewAlertHandler(alertService, log, val),
		WebSocket:    handlers.NewWebSocketHandler(hub, wsVerifier, append([]string{cfg.Server.FrontendURL}, cfg.Server.AllowedOrigins...), log),
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router.New(cfg, log, authClient, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"version":     version,
		}).Info("Admin service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.WarnWithErr(err, "Background tasks did not stop in time")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}

	stop()
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		log.Warn("WebSocket hub did not stop in time")
	}

	log.Info("Admin service stopped")
	return nil
}
