package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskloop/taskloop-api/internal/config"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/platform/postgres"
	"github.com/taskloop/taskloop-api/internal/platform/redisbroker"
	"github.com/taskloop/taskloop-api/internal/reactor"
	"github.com/taskloop/taskloop-api/internal/service"
	"github.com/taskloop/taskloop-api/internal/service/auth"
	"github.com/taskloop/taskloop-api/internal/store"
)

// Consumer group names. Cursors and receipts are keyed by these, so
// renaming one resets its position on every stream it tails.
const (
	consumerPaymentSaga        = "payment-saga"
	consumerNotificationFanout = "notification-fanout"
	consumerRatingAggregator   = "rating-aggregator"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Event plumbing
	broker    *redisbroker.Broker
	publisher events.Publisher
	relay     *events.OutboxRelay
	consumers []*events.Consumer

	// Stores
	userStore         store.UserStore
	requestStore      store.RequestStore
	assignmentStore   store.AssignmentStore
	ratingStore       store.RatingStore
	aggregateStore    store.AggregateStore
	paymentStore      store.PaymentStore
	notificationStore store.NotificationStore
	outboxStore       events.OutboxStore
	cursorStore       events.CursorStore
	receiptStore      events.ReceiptStore

	// Services
	jwtService          auth.JWTService
	passwordVerifier    auth.PasswordVerifier
	userService         service.UserService
	requestService      service.RequestService
	ratingService       service.RatingService
	notificationService service.NotificationService
}

// newApplication creates a new application instance with all dependencies
// initialized: stores over the shared database handle, the domain
// services writing through the outbox, the relay that drains the outbox
// to the broker, and the three consumer groups reacting to the streams.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger, cfg.Auth.BCryptCost)
	app.requestStore = postgres.NewPostgresRequestStore(db, logger)
	app.assignmentStore = postgres.NewPostgresAssignmentStore(db, logger)
	app.ratingStore = postgres.NewPostgresRatingStore(db, logger)
	app.aggregateStore = postgres.NewPostgresAggregateStore(db, logger)
	app.paymentStore = postgres.NewPostgresPaymentStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)
	app.outboxStore = postgres.NewPostgresOutboxStore(db, logger)
	app.cursorStore = postgres.NewPostgresCursorStore(db, logger)
	app.receiptStore = postgres.NewPostgresReceiptStore(db, logger)

	// Broker and publisher
	app.broker = redisbroker.NewFromOptions(
		cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err := app.broker.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach event broker: %w", err)
	}
	app.publisher = events.NewBrokerPublisher(app.broker, logger)
	logger.Info("Event broker connected", "addr", cfg.Redis.Addr)

	// Services
	app.userService, err = service.NewUserService(
		db, app.userStore, app.outboxStore, app.jwtService, app.passwordVerifier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.requestService, err = service.NewRequestService(
		db, app.requestStore, app.assignmentStore, app.outboxStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create request service: %w", err)
	}

	app.ratingService, err = service.NewRatingService(
		db, app.ratingStore, app.aggregateStore, app.assignmentStore,
		app.requestStore, app.outboxStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rating service: %w", err)
	}

	app.notificationService, err = service.NewNotificationService(app.notificationStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	// Outbox relay
	app.relay = events.NewOutboxRelay(app.outboxStore, app.broker, events.RelayConfig{
		PollInterval: time.Duration(cfg.Events.RelayPollIntervalMS) * time.Millisecond,
		BatchSize:    cfg.Events.RelayBatchSize,
	}, logger)

	// Consumers
	if err := app.setupConsumers(); err != nil {
		return nil, fmt.Errorf("failed to setup consumers: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupConsumers builds the three consumer groups and registers their
// reactors. Each group keeps its own cursors and receipts, so the same
// event fans out to all of them exactly once each.
func (app *application) setupConsumers() error {
	blockTimeout := time.Duration(app.config.Events.ConsumerBlockMS) * time.Millisecond
	receiptRetention := time.Duration(app.config.Events.ReceiptRetentionHours) * time.Hour

	newConsumer := func(name string, streams []string) *events.Consumer {
		return events.NewConsumer(events.ConsumerConfig{
			Name:             name,
			Streams:          streams,
			BlockTimeout:     blockTimeout,
			ReceiptRetention: receiptRetention,
		}, app.broker, app.cursorStore, app.receiptStore, app.logger)
	}

	paymentConsumer := newConsumer(consumerPaymentSaga, []string{
		events.StreamServiceLifecycle,
		events.StreamPaymentLifecycle,
	})
	paymentReactor, err := reactor.NewPaymentReactor(app.paymentStore, app.requestStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create payment reactor: %w", err)
	}
	paymentReactor.Register(paymentConsumer)

	notificationConsumer := newConsumer(consumerNotificationFanout, []string{
		events.StreamUserLifecycle,
		events.StreamServiceLifecycle,
		events.StreamPaymentLifecycle,
	})
	notificationReactor, err := reactor.NewNotificationReactor(
		app.notificationStore, app.requestStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create notification reactor: %w", err)
	}
	notificationReactor.Register(notificationConsumer)

	ratingConsumer := newConsumer(consumerRatingAggregator, []string{
		events.StreamServiceLifecycle,
	})
	ratingReactor, err := reactor.NewRatingReactor(app.db, app.aggregateStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create rating reactor: %w", err)
	}
	ratingReactor.Register(ratingConsumer)

	app.consumers = []*events.Consumer{paymentConsumer, notificationConsumer, ratingConsumer}
	return nil
}

// Run starts the background event machinery and the HTTP server, blocking
// until shutdown.
func (app *application) Run(ctx context.Context) error {
	app.relay.Start()
	for _, consumer := range app.consumers {
		if err := consumer.Start(); err != nil {
			return fmt.Errorf("failed to start consumer: %w", err)
		}
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. Consumers
// stop before the relay so in-flight handlers drain ahead of the broker
// connection closing.
func (app *application) cleanup() {
	for _, consumer := range app.consumers {
		consumer.Stop()
	}
	if app.relay != nil {
		app.relay.Stop()
	}
	if app.broker != nil {
		if err := app.broker.Close(); err != nil {
			app.logger.Error("Error closing broker connection", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}
