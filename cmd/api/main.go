package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homebooking/internal/api"
	"homebooking/internal/archive"
	"homebooking/internal/auth"
	"homebooking/internal/config"
	"homebooking/internal/derive"
	"homebooking/internal/domain"
	"homebooking/internal/events"
	"homebooking/internal/export"
	"homebooking/internal/google"
	"homebooking/internal/logging"
	"homebooking/internal/metrics"
	"homebooking/internal/repository"
	"homebooking/internal/seed"
	"homebooking/internal/service"
	"homebooking/internal/store"
	"homebooking/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	exportOnly := flag.Bool("export", false, "write the bookings workbook to exports.path and exit")
	flag.Parse()

	if err := run(*exportOnly); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(exportOnly bool) error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := *logging.Component(base, "api-main")

	st, err := initStore(cfg, base, &logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if exportOnly {
		path, err := export.SaveBookings(cfg.Exports.Path, st.BookingsSnapshot(), time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("export bookings")
			return err
		}
		logger.Info().Str("path", path).Msg("bookings exported")
		return nil
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	stateRepo := initStateRepository(cfg, redisClient, base)

	eventBus := events.NewEventBus()
	eventBus.OnError(func(e *events.Event, err error) {
		logger.Warn().Err(err).Str("event", e.Type).Msg("event handler failed")
	})

	syncWorker := initSheets(ctx, cfg, st, redisClient, base)

	notifications := service.NewNotificationService(initTelegram(cfg, &logger), logging.Component(base, "notifications"))
	notifications.Subscribe(eventBus)

	bookings := service.NewBookingService(st, eventBus, syncWorker, opener(cfg), logging.Component(base, "bookings"))
	catalog := service.NewCatalogService(st, eventBus, logging.Component(base, "catalog"))
	users := service.NewUserService(st, stateRepo, cfg.Booking.LoginAttempts, cfg.Booking.LoginWindow, logging.Component(base, "users"))
	flow := service.NewBookingFlow(bookings, cfg.Booking.SubmitDelay, logging.Component(base, "booking-flow"))
	drafts := service.NewDraftService(stateRepo, logging.Component(base, "drafts"))

	reminders := service.NewReminderScheduler(notifications, st, cfg.Notifications.ReminderSchedule, logging.Component(base, "reminders"))
	if err := reminders.Start(ctx); err != nil {
		logger.Error().Err(err).Str("schedule", cfg.Notifications.ReminderSchedule).Msg("start reminders")
		return err
	}

	if err := archive.NewService(st, cfg.Archive, logging.Component(base, "archive")).Start(ctx); err != nil {
		logger.Error().Err(err).Msg("start archive")
		return err
	}

	startMetrics(ctx, cfg, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, api.NewCatalogService(catalog, bookings), base)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Streams:       st,
		Catalog:       catalog,
		Bookings:      bookings,
		Flow:          flow,
		Users:         users,
		Drafts:        drafts,
		Notifications: notifications,
		Ready:         readiness(redisClient),
	}, base)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

func initStore(cfg *config.Config, base, logger *zerolog.Logger) (*store.Store, error) {
	fixtures, err := seed.Load(cfg.Booking.SeedPath)
	if err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Booking.SeedPath).Msg("load seed")
		return nil, err
	}

	directory, err := auth.NewDirectory(auth.DefaultAccounts(), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("init account directory")
		return nil, err
	}

	st := store.New(fixtures.State(time.Now()), directory, logging.Component(base, "store"))
	logger.Info().
		Int("services", len(st.ServicesSnapshot())).
		Int("bookings", len(st.BookingsSnapshot())).
		Msg("store seeded")
	return st, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory state")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initStateRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository(cfg.Booking.DraftTTL)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisStateRepository(redisClient, cfg.Booking.DraftTTL)
	return repository.NewFailoverStateRepository(primary, memory, logging.Component(logger, "state-repo"))
}

// initSheets starts the Sheets mirror when credentials are configured. The
// returned interface is nil otherwise.
func initSheets(ctx context.Context, cfg *config.Config, st *store.Store, redisClient *redis.Client, logger *zerolog.Logger) domain.SyncWorker {
	if !cfg.Google.SheetsEnabled() {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.BookingSpreadsheetID, logging.Component(logger, "sheets"))
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed, continuing without sheets")
		return nil
	}

	go func() {
		if err := sheetsService.ReplaceBookingsSheet(ctx, st.BookingsSnapshot()); err != nil {
			logger.Warn().Err(err).Msg("initial sheets sync failed")
		}
	}()

	sheetsWorker := worker.NewSheetsWorker(sheetsService, redisClient, worker.DefaultRetryPolicy(), logging.Component(logger, "sheets-worker"))
	go sheetsWorker.Start(ctx)

	logger.Info().Msg("google sheets connected")
	return sheetsWorker
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	tg := cfg.Notifications.Telegram
	if tg.BotToken == "" {
		return nil
	}

	botAPI, err := tgbotapi.NewBotAPI(tg.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, operator notifications disabled")
		return nil
	}
	botAPI.Debug = tg.Debug

	logger.Info().Str("bot", botAPI.Self.UserName).Int64("chat_id", tg.AdminChatID).Msg("telegram notifications enabled")
	return service.NewTelegramService(botAPI, tg.AdminChatID)
}

func opener(cfg *config.Config) derive.Opener {
	if cfg.Booking.Availability == config.AvailabilityRandom {
		return derive.RandomOpen(nil)
	}
	return derive.HashOpen
}

func readiness(redisClient *redis.Client) func(ctx context.Context) error {
	if redisClient == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return repository.Ping(ctx, redisClient)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
