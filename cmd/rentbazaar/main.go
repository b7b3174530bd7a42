package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"rentbazaar/internal/app/commands"
	bookingapp "rentbazaar/internal/app/handlers/booking"
	listingapp "rentbazaar/internal/app/handlers/listings"
	"rentbazaar/internal/app/middleware"
	appoutbox "rentbazaar/internal/app/outbox"
	"rentbazaar/internal/app/queries"
	"rentbazaar/internal/app/schedule"
	"rentbazaar/internal/app/uow"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	"rentbazaar/internal/domain/shared/money"
	"rentbazaar/internal/infra/broker/kafka"
	"rentbazaar/internal/infra/config"
	mongodb "rentbazaar/internal/infra/db/mongo"
	ginserver "rentbazaar/internal/infra/http/gin"
	"rentbazaar/internal/infra/obs"
	infraoutbox "rentbazaar/internal/infra/outbox"
	"rentbazaar/internal/infra/storage/memory"
	redisstore "rentbazaar/internal/infra/storage/redis"
	"rentbazaar/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := getenv("LISTINGS_FIXTURES", defaultFixturesPath())
	if err := app.loadListingFixtures(ctx, fixturesPath, cfg.DefaultCurrency, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	sweeper := &schedule.OverdueSweeper{
		UoWFactory: app.uowFactory,
		Outbox:     app.outbox,
		Logger:     logger,
		Interval:   cfg.SweepInterval,
	}
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("overdue sweeper stopped", "error", err)
		}
	}()
	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	uowFactory   uow.UoWFactory
	outbox       appoutbox.Outbox
	outboxWorker *infraoutbox.Worker
	listingsRepo domainlistings.Repository
	ready        func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		idStore  middleware.IdempotencyStore
		uploader s3.Uploader
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		listingsRepo := mongodb.NewListingRepository(client.DB)
		bookingRepo := mongodb.NewBookingRepository(client.DB)
		app.listingsRepo = listingsRepo
		app.uowFactory = mongodb.Factory{
			DB:           client.DB,
			ListingsRepo: listingsRepo,
			BookingRepo:  bookingRepo,
		}
		outboxStore := infraoutbox.NewStore(client.DB)
		app.outbox = outboxStore

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka connect: %w", err)
		}
		app.outboxWorker = &infraoutbox.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}

		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		idStore = redisstore.NewIdempotencyStore(redisClient, "rentbazaar:idem:", cfg.IdempotencyTTL)

		s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("s3 uploader unavailable, damage photos disabled", "error", err)
		} else {
			uploader = s3Client
		}

		app.ready = func() error { return client.Ping(ctx) }
	default:
		listingsRepo := memory.NewListingRepository()
		bookingRepo := memory.NewBookingRepository()
		app.listingsRepo = listingsRepo
		app.uowFactory = &memory.Factory{
			ListingsRepo: listingsRepo,
			BookingRepo:  bookingRepo,
		}
		app.outbox = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Logger: logger,
		Outbox: app.outbox,
	})
	commands.RegisterHandler(commandBus, bookingapp.TransitionBookingCommand{}.Key(), &bookingapp.TransitionBookingHandler{
		Logger: logger,
		Outbox: app.outbox,
	})
	commands.RegisterHandler(commandBus, bookingapp.RequestExtensionCommand{}.Key(), &bookingapp.RequestExtensionHandler{
		Logger: logger,
		Outbox: app.outbox,
	})
	commands.RegisterHandler(commandBus, bookingapp.DecideExtensionCommand{}.Key(), &bookingapp.DecideExtensionHandler{
		Logger: logger,
		Outbox: app.outbox,
	})
	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{Logger: logger, Outbox: app.outbox})
	commands.RegisterHandler(commandBus, listingapp.ActivateListingCommand{}.Key(), &listingapp.ActivateListingHandler{Logger: logger, Outbox: app.outbox})
	commands.RegisterHandler(commandBus, listingapp.SuspendListingCommand{}.Key(), &listingapp.SuspendListingHandler{Logger: logger, Outbox: app.outbox})
	commands.RegisterHandler(commandBus, listingapp.UpdateListingRatesCommand{}.Key(), &listingapp.UpdateListingRatesHandler{Logger: logger, Outbox: app.outbox})
	blockHandler := &listingapp.BlockDatesHandler{Logger: logger, Outbox: app.outbox}
	commands.RegisterHandler(commandBus, listingapp.BlockDatesCommand{}.Key(), blockHandler)
	commands.RegisterHandler(commandBus, listingapp.BlockDatesCommand{Unblock: true}.Key(), blockHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListRenterBookingsQuery{}.Key(), &bookingapp.ListRenterBookingsHandler{UoWFactory: app.uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, bookingapp.ListOwnerBookingsQuery{}.Key(), &bookingapp.ListOwnerBookingsHandler{UoWFactory: app.uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: app.uowFactory})
	queries.RegisterHandler(queryBus, listingapp.CalendarQuery{}.Key(), &listingapp.CalendarHandler{UoWFactory: app.uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, listingapp.QuoteQuery{}.Key(), &listingapp.QuoteHandler{UoWFactory: app.uowFactory})
	queries.RegisterHandler(queryBus, listingapp.ListOwnerListingsQuery{}.Key(), &listingapp.ListOwnerListingsHandler{UoWFactory: app.uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(app.uowFactory, nil),
		middleware.OutboxFlush(app.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Uploader: uploader,
		},
		Listing: ginserver.ListingHandler{
			Commands:        commandBusWithMiddleware,
			Queries:         queryBusWithMiddleware,
			DefaultCurrency: cfg.DefaultCurrency,
		},
		PrincipalMiddleware: ginserver.PrincipalMiddleware(),
	}
	return app, nil
}

type listingFixture struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Currency    string `json:"currency"`
	Rates       struct {
		Hourly  int64 `json:"hourly"`
		Daily   int64 `json:"daily"`
		Weekly  int64 `json:"weekly"`
		Monthly int64 `json:"monthly"`
	} `json:"rates"`
	Deposit int64 `json:"deposit"`
}

func (a *application) loadListingFixtures(ctx context.Context, path, defaultCurrency string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		currency := strings.ToUpper(strings.TrimSpace(fx.Currency))
		if currency == "" {
			currency = defaultCurrency
		}
		mk := func(amount int64) money.Money {
			if amount <= 0 {
				return money.Money{}
			}
			return money.Money{Amount: amount, Currency: currency}
		}
		listing, err := domainlistings.NewListing(domainlistings.CreateParams{
			ID:          domainlistings.ListingID(fx.ID),
			Owner:       domainlistings.OwnerID(fx.Owner),
			Title:       fx.Title,
			Description: fx.Description,
			Category:    fx.Category,
			City:        fx.City,
			Rates: domainpricing.RateCard{
				Hourly:  mk(fx.Rates.Hourly),
				Daily:   mk(fx.Rates.Daily),
				Weekly:  mk(fx.Rates.Weekly),
				Monthly: mk(fx.Rates.Monthly),
			},
			Deposit: mk(fx.Deposit),
			Now:     now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := listing.Activate(now); err != nil {
			logger.Error("fixture activation failed", "listing_id", fx.ID, "error", err)
			continue
		}
		listing.ClearEvents()
		if err := a.listingsRepo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

func defaultFixturesPath() string {
	return filepath.Join("data", "listings.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
