// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"agri-market/config"
	"agri-market/middleware"
	"agri-market/repository"
	"agri-market/repository/memstore"
	"agri-market/routes"
	"agri-market/services"
	"agri-market/utils"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)
	zerolog.DefaultContextLogger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "agri-market").Logger()
}

type backend struct {
	stores services.Stores
	pinger interface {
		Ping(ctx context.Context) error
	}
	close func(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		store := memstore.New()
		return &backend{
			stores: services.Stores{
				Users:    store,
				Products: store,
				Orders:   store,
				Reports:  store,
				Feedback: store,
				Tx:       services.NoTransaction{},
			},
			pinger: store,
			close:  func(context.Context) error { return nil },
		}, nil
	}

	client, err := repository.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	var tx services.Transactor = services.NoTransaction{}
	if cfg.MongoTransactions {
		tx = repository.NewTransactor(client)
	}
	users := repository.NewUserRepository(db)
	orders := repository.NewOrderRepository(db)
	return &backend{
		stores: services.Stores{
			Users:    users,
			Products: repository.NewProductRepository(db),
			Orders:   orders,
			Reports:  orders,
			Feedback: repository.NewFeedbackRepository(db),
			Tx:       tx,
		},
		pinger: repository.NewPinger(client),
		close:  client.Disconnect,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// a nil *EmailService sends nothing, keep the interface nil too
	var notifier services.OrderNotifier
	if email := utils.NewEmailService(cfg.PostmarkAPIToken, cfg.EmailSender); email != nil {
		notifier = email
	} else {
		logger.Warn().Msg("POSTMARK_API_TOKEN not set, order confirmations are disabled")
	}

	svc := services.New(be.stores, tokens, notifier)
	if cfg.SeedOnStart {
		if err := svc.Seeder.Seed(ctx); err != nil {
			return err
		}
	}

	opts := routes.Options{
		Authenticator:  middleware.NewAuthenticator(tokens, be.stores.Users),
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = middleware.NewMetrics(reg)
		opts.MetricsHandler = middleware.MetricsHandler(reg)
	}
	handler := routes.NewHandler(routes.NewControllers(svc, be.pinger), opts)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins()),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           cors(handler),
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
