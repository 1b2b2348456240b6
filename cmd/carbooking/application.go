package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"carbooking/internal/app/commands"
	availabilityapp "carbooking/internal/app/handlers/availability"
	bookingapp "carbooking/internal/app/handlers/booking"
	customersapp "carbooking/internal/app/handlers/customers"
	fleetapp "carbooking/internal/app/handlers/fleet"
	pricingapp "carbooking/internal/app/handlers/pricing"
	"carbooking/internal/app/middleware"
	"carbooking/internal/app/notify"
	appoutbox "carbooking/internal/app/outbox"
	"carbooking/internal/app/policies"
	"carbooking/internal/app/queries"
	"carbooking/internal/app/schedule"
	"carbooking/internal/app/services/auth"
	"carbooking/internal/app/uow"
	domainbooking "carbooking/internal/domain/booking"
	"carbooking/internal/domain/pricing"
	"carbooking/internal/infra/broker/kafka"
	"carbooking/internal/infra/config"
	mongostore "carbooking/internal/infra/db/mongo"
	ginserver "carbooking/internal/infra/http/gin"
	"carbooking/internal/infra/inbox"
	"carbooking/internal/infra/mail"
	"carbooking/internal/infra/obs"
	infraoutbox "carbooking/internal/infra/outbox"
	"carbooking/internal/infra/scheduler"
	"carbooking/internal/infra/security"
	"carbooking/internal/infra/storage/memory"
	s3store "carbooking/internal/infra/storage/s3"
)

type application struct {
	cfg      config.Config
	logger   *slog.Logger
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	commands commands.Bus

	cron     *scheduler.Cron
	workers  []func(ctx context.Context) error
	closers  []func(ctx context.Context) error
	inflight sync.WaitGroup
}

// storage is what one persistence mode contributes to the wiring.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	numbers     domainbooking.NumberGenerator
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		cfg:    cfg,
		logger: logger,
		health: obs.HealthHandlers{Checks: map[string]obs.Check{}},
		cron:   scheduler.NewCron(0, logger),
	}

	penalty, err := pricing.ParseLatePenaltyMode(cfg.LatePenaltyMode)
	if err != nil {
		return nil, err
	}
	policy := policies.PricingPolicy{LatePenalty: penalty}

	dispatcher := &notify.Dispatcher{
		Notifier: app.notifier(),
		Timeout:  cfg.NotifyTimeout,
		Logger:   logger,
	}
	if dispatcher.Archiver, err = app.priceArchive(); err != nil {
		return nil, err
	}

	var store storage
	switch cfg.StorageMode {
	case config.StorageMongo:
		store, err = app.mongoStorage(ctx, dispatcher)
	default:
		store = app.memoryStorage(dispatcher)
	}
	if err != nil {
		return nil, err
	}
	dispatcher.UoWFactory = store.factory

	deps := bookingapp.Deps{Outbox: store.outbox}
	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Deps:           deps,
		Pricing:        policy,
		Numbers:        store.numbers,
		NumberAttempts: cfg.BookingNumberAttempts,
		Logger:         logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingCommand{}.Key(), &bookingapp.UpdateBookingHandler{Deps: deps, Pricing: policy, Logger: logger})
	commands.RegisterHandler(commandBus, bookingapp.TransitionStatusCommand{}.Key(), &bookingapp.TransitionStatusHandler{Deps: deps, Logger: logger})
	commands.RegisterHandler(commandBus, bookingapp.ProcessRefundCommand{}.Key(), &bookingapp.ProcessRefundHandler{Deps: deps, Logger: logger})
	commands.RegisterHandler(commandBus, fleetapp.SaveVehicleCommand{}.Key(), &fleetapp.SaveVehicleHandler{Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: store.factory})
	queries.RegisterHandler(queryBus, bookingapp.ListVehicleBookingsQuery{}.Key(), &bookingapp.ListVehicleBookingsHandler{UoWFactory: store.factory})
	queries.RegisterHandler(queryBus, pricingapp.PreviewPriceQuery{}.Key(), &pricingapp.PreviewPriceHandler{UoWFactory: store.factory, Pricing: policy})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{UoWFactory: store.factory})
	queries.RegisterHandler(queryBus, fleetapp.SearchVehiclesQuery{}.Key(), &fleetapp.SearchVehiclesHandler{UoWFactory: store.factory})
	queries.RegisterHandler(queryBus, fleetapp.GetVehicleQuery{}.Key(), &fleetapp.GetVehicleHandler{UoWFactory: store.factory})
	queries.RegisterHandler(queryBus, customersapp.SearchCustomersQuery{}.Key(), &customersapp.SearchCustomersHandler{UoWFactory: store.factory})

	logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	validator := middleware.NewStructValidator()
	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.Timeout(cfg.CommandTimeout),
		middleware.Authorization(middleware.OperatorAuthorizer{}),
		middleware.Validation(validator),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox, logger),
		middleware.Retry(cfg.RetryBackoff, logger),
		middleware.Transaction(store.factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryTimeout(cfg.CommandTimeout),
		middleware.QueryValidation(validator),
	)

	authService := &auth.Service{
		Hashes:  cfg.OperatorTokenHashes,
		Secrets: security.BcryptHasher{},
		Logger:  logger,
	}
	app.handlers = ginserver.Handlers{
		Fleet:     ginserver.FleetHandler{Commands: app.commands, Queries: queryBusWithMiddleware, Logger: logger},
		Pricing:   ginserver.PricingHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Booking:   ginserver.BookingHandler{Commands: app.commands, Queries: queryBusWithMiddleware, Logger: logger},
		Customers: ginserver.CustomerHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Auth:      ginserver.OperatorAuth{Service: authService, Logger: logger},
	}

	reminder := &schedule.PickupReminderJob{UoWFactory: store.factory, Dispatcher: dispatcher, Logger: logger}
	if err := app.cron.Register(cfg.PickupReminderCron, reminder); err != nil {
		return nil, err
	}
	return app, nil
}

// memoryStorage keeps everything in process. Events reach the dispatcher when
// the command pipeline flushes the outbox after commit.
func (a *application) memoryStorage(sink appoutbox.Sink) storage {
	return storage{
		factory:     memory.Factory{Store: memory.NewStore()},
		outbox:      memory.NewOutbox(sink, a.logger),
		idempotency: memory.NewIdempotencyStore(a.cfg.IdempotencyTTL),
		numbers:     domainbooking.NewSequenceNumberGenerator(a.cfg.BookingNumberPrefix, 0),
	}
}

// mongoStorage writes events into the transactional outbox collection. A
// worker publishes them to Kafka and a consumer feeds them to the dispatcher.
func (a *application) mongoStorage(ctx context.Context, sink appoutbox.Sink) (storage, error) {
	client, err := mongostore.New(a.cfg.MongoURI, a.cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("mongo connect: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx); err != nil {
		return storage{}, fmt.Errorf("mongo ping: %w", err)
	}
	a.health.Checks["mongo"] = client.Ping

	producer, err := kafka.NewProducer(a.cfg.KafkaBrokers, nil)
	if err != nil {
		return storage{}, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })

	events := infraoutbox.NewStore(client.DB)
	worker := &infraoutbox.Worker{
		Store:       events,
		Producer:    producer,
		Interval:    a.cfg.OutboxPollInterval,
		TopicPrefix: a.cfg.KafkaTopicPrefix,
		Backoff:     a.cfg.RetryBackoff,
		Logger:      a.logger,
	}
	if host, err := os.Hostname(); err == nil {
		worker.ID = host
	}
	a.workers = append(a.workers, worker.Run)

	consumer, err := kafka.NewConsumer(a.cfg.KafkaBrokers, a.cfg.KafkaGroupID, nil, kafka.BookingEventsHandler{
		Inbox:  inbox.NewStore(client.DB, a.cfg.KafkaGroupID),
		Sink:   sink,
		Logger: a.logger,
	}, a.logger)
	if err != nil {
		return storage{}, fmt.Errorf("kafka consumer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	topic := infraoutbox.TopicFor(a.cfg.KafkaTopicPrefix, domainbooking.EventCreated)
	a.workers = append(a.workers, func(ctx context.Context) error {
		return consumer.Run(ctx, []string{topic})
	})

	return storage{
		factory:     mongostore.NewFactory(client.DB),
		outbox:      events,
		idempotency: mongostore.NewIdempotencyStore(client.DB, a.cfg.IdempotencyTTL),
		numbers:     domainbooking.NewRandomNumberGenerator(a.cfg.BookingNumberPrefix),
	}, nil
}

func (a *application) notifier() policies.Notifier {
	if a.cfg.SendgridAPIKey == "" {
		return mail.LogNotifier{Logger: a.logger}
	}
	return mail.NewSendGridNotifier(a.cfg.SendgridAPIKey, a.cfg.MailFrom, a.cfg.MailFromName)
}

func (a *application) priceArchive() (policies.SnapshotArchiver, error) {
	if a.cfg.S3Endpoint == "" {
		return nil, nil
	}
	client, err := s3store.NewClient(a.cfg.S3Endpoint, a.cfg.S3UseSSL, a.cfg.S3AccessKey, a.cfg.S3SecretKey, a.cfg.S3Bucket, a.logger)
	if err != nil {
		return nil, err
	}
	a.health.Checks["s3"] = client.Ping
	return s3store.PriceArchive{Uploader: client}, nil
}

// startBackground runs the scheduler and, in mongo mode, the outbox worker and
// the event consumer until ctx is cancelled.
func (a *application) startBackground(ctx context.Context) {
	a.cron.Start()
	for _, run := range a.workers {
		a.inflight.Add(1)
		go func(run func(context.Context) error) {
			defer a.inflight.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("background worker stopped", "error", err)
			}
		}(run)
	}
}

func (a *application) wait() {
	a.inflight.Wait()
}

func (a *application) close(ctx context.Context) {
	if err := a.cron.Stop(ctx); err != nil {
		a.logger.Warn("scheduler stop timed out", "error", err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
}
