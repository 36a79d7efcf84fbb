package internal

import (
	"context"
	"errors"
	"fmt"
	"olx-parser-service/internal/adapters/collyfetcher"
	"olx-parser-service/internal/adapters/filestorage"
	logger_adapter "olx-parser-service/internal/adapters/logger"
	"olx-parser-service/internal/adapters/olx"
	postgres_adapter "olx-parser-service/internal/adapters/postgres"
	rabbitmq_adapter "olx-parser-service/internal/adapters/rabbitmq"
	"olx-parser-service/internal/adapters/rest"
	"olx-parser-service/internal/configs"
	"olx-parser-service/internal/constants"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"olx-parser-service/internal/core/usecase"
	fluentlogger "olx-parser-service/pkg/fluent_logger"
	"olx-parser-service/pkg/postgres"
	"olx-parser-service/pkg/rabbitmq/rabbitmq_common"
	"olx-parser-service/pkg/rabbitmq/rabbitmq_consumer"
	"olx-parser-service/pkg/rabbitmq/rabbitmq_producer"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 15 * time.Second

// App holds every wired component and runs the configured mode.
type App struct {
	config   *configs.AppConfig
	logger   port.LoggerPort
	searches []domain.NamedSearch

	dbPool        *pgxpool.Pool
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  logger_adapter.FluentPoster

	// cancelled on shutdown; background crawls started over REST run on it
	appCtx    context.Context
	cancelApp context.CancelFunc

	// pipeline mode
	startCrawlUC       *usecase.StartCrawlUseCase
	linkEventsListener port.EventListenerPort
	listingListener    port.EventListenerPort
	httpServer         *rest.Server

	// batch mode
	scrapeUC *usecase.ScrapeSearchUseCase
}

// NewApp is the composition root: every dependency is created and wired here.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	appCtx, cancelApp := context.WithCancel(context.Background())
	a := &App{
		config:    appConfig,
		appCtx:    appCtx,
		cancelApp: cancelApp,
	}

	if err := a.init(); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	appLogger, fluentClient, err := setupLogger(a.config)
	if err != nil {
		return err
	}
	a.logger = appLogger
	a.fluentClient = fluentClient

	a.searches, err = loadSearches(a.config.SearchesFile)
	if err != nil {
		return err
	}
	a.logger.Info("Predefined searches loaded", port.Fields{"count": len(a.searches), "file": a.config.SearchesFile})

	a.dbPool, err = postgres.NewClient(a.appCtx, postgres.Config{DatabaseURL: a.config.Database.URL})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	a.logger.Info("Successfully connected to PostgreSQL pool", nil)

	olxAdapter, err := a.newOlxAdapter()
	if err != nil {
		return err
	}

	storages, err := a.newListingStorages()
	if err != nil {
		return err
	}
	runRepo, err := postgres_adapter.NewCrawlRunRepository(a.dbPool)
	if err != nil {
		return fmt.Errorf("failed to create crawl run repository: %w", err)
	}

	saveListingUC := usecase.NewSaveListingUseCase(storages...)

	if a.config.Mode == configs.ModeBatch {
		a.scrapeUC = usecase.NewScrapeSearchUseCase(olxAdapter, saveListingUC, runRepo)
		a.logger.Info("Batch mode initialized", nil)
		return nil
	}

	return a.initPipeline(olxAdapter, saveListingUC, runRepo)
}

func (a *App) newOlxAdapter() (*olx.OlxAdapter, error) {
	fetcher, err := collyfetcher.NewCollyFetcherAdapter(collyfetcher.Config{
		AllowedDomains: a.config.Olx.AllowedDomains,
		RandomDelay:    a.config.Olx.RandomDelay,
		RequestTimeout: a.config.Olx.RequestTimeout,
		CacheDir:       a.config.Olx.CacheDir,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create content fetcher: %w", err)
	}

	location, err := time.LoadLocation(a.config.Olx.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", a.config.Olx.Timezone, err)
	}

	olxAdapter, err := olx.NewOlxAdapter(fetcher, olx.Config{
		BaseURL:        a.config.Olx.BaseURL,
		AllowedDomains: a.config.Olx.AllowedDomains,
		FeaturedOffers: a.config.Olx.FeaturedOffers,
		Location:       location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create olx adapter: %w", err)
	}
	a.logger.Info("OLX adapter initialized", port.Fields{"base_url": a.config.Olx.BaseURL})
	return olxAdapter, nil
}

func (a *App) newListingStorages() ([]port.ListingStoragePort, error) {
	pgStorage, err := postgres_adapter.NewListingStorageAdapter(a.dbPool)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres storage adapter: %w", err)
	}
	storages := []port.ListingStoragePort{pgStorage}

	if a.config.OutputFile != "" {
		fileStorage, err := filestorage.NewListingFileStorageAdapter(a.config.OutputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create file storage adapter: %w", err)
		}
		storages = append(storages, fileStorage)
		a.logger.Info("File storage enabled", port.Fields{"file": a.config.OutputFile})
	}
	return storages, nil
}

func (a *App) initPipeline(
	olxAdapter *olx.OlxAdapter,
	saveListingUC *usecase.SaveListingUseCase,
	runRepo port.CrawlRunRepositoryPort,
) error {
	rabbitURL := a.config.RabbitMQ.URL

	producerCfg := rabbitmq_producer.PublisherConfig{
		Config: rabbitmq_common.Config{
			URL:    rabbitURL,
			Logger: rabbitmq_adapter.NewPkgLoggerBridge(a.logger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
		},
		ExchangeName:             constants.ExchangeName,
		ExchangeType:             "direct",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
	}
	var err error
	a.eventProducer, err = rabbitmq_producer.NewPublisher(producerCfg)
	if err != nil {
		return fmt.Errorf("failed to create event producer: %w", err)
	}
	a.logger.Info("RabbitMQ event producer initialized", nil)

	linkQueue, err := rabbitmq_adapter.NewRabbitMQLinkQueueAdapter(a.eventProducer, constants.RoutingKeyLinkTasks)
	if err != nil {
		return err
	}
	listingQueue, err := rabbitmq_adapter.NewRabbitMQListingQueueAdapter(a.eventProducer, constants.RoutingKeyProcessedListings)
	if err != nil {
		return err
	}

	crawlUC := usecase.NewCrawlAndEnqueueLinksUseCase(olxAdapter, linkQueue, runRepo)
	processLinkUC := usecase.NewProcessLinkUseCase(olxAdapter, listingQueue)
	a.startCrawlUC = usecase.NewStartCrawlUseCase(a.appCtx, crawlUC)

	linkListener, err := rabbitmq_adapter.NewLinkConsumerAdapter(
		consumerConfig(rabbitURL, constants.QueueLinkTasks, constants.RoutingKeyLinkTasks, "olx-link-processor", 1),
		processLinkUC,
		a.logger,
	)
	if err != nil {
		return err
	}
	a.linkEventsListener = linkListener

	listingListener, err := rabbitmq_adapter.NewListingConsumerAdapter(
		consumerConfig(rabbitURL, constants.QueueProcessedListings, constants.RoutingKeyProcessedListings, "olx-listing-saver", 5),
		saveListingUC,
		a.logger,
	)
	if err != nil {
		return err
	}
	a.listingListener = listingListener
	a.logger.Info("Event listeners initialized", nil)

	if a.config.HTTP.Enabled {
		handlers := rest.NewParserHandlers(
			a.config.AppName,
			a.searches,
			olxAdapter,
			usecase.NewGetLastRunUseCase(runRepo),
			a.startCrawlUC,
		)
		a.httpServer = rest.NewServer(strconv.Itoa(a.config.HTTP.Port), handlers, a.logger)
	}

	return nil
}

func consumerConfig(url, queue, routingKey, tag string, prefetch int) rabbitmq_consumer.ConsumerConfig {
	return rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitmq_common.Config{URL: url},
		QueueName:              queue,
		DeclareQueue:           true,
		DurableQueue:           true,
		ExchangeNameForBind:    constants.ExchangeName,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		DurableExchangeForBind: true,
		RoutingKeyForBind:      routingKey,
		PrefetchCount:          prefetch,
		ConsumerTag:            tag,
	}
}

func setupLogger(cfg *configs.AppConfig) (port.LoggerPort, logger_adapter.FluentPoster, error) {
	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(cfg.StdoutLogger.Level),
		UseColor: cfg.StdoutLogger.Color,
	})

	if !cfg.FluentBit.Enabled {
		return stdoutLogger.WithFields(port.Fields{"service": cfg.AppName}), nil, nil
	}

	client, err := fluentlogger.NewClient(fluentlogger.Config{
		Host:      cfg.FluentBit.Host,
		Port:      cfg.FluentBit.Port,
		TagPrefix: cfg.AppName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create fluent bit client: %w", err)
	}
	fluentLogger, err := logger_adapter.NewFluentLoggerAdapter(client, logger_adapter.ParseLevel(cfg.FluentBit.Level))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	multi, err := logger_adapter.NewMultiloggerAdapter(stdoutLogger, fluentLogger)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return multi.WithFields(port.Fields{"service": cfg.AppName}), client, nil
}

func loadSearches(path string) ([]domain.NamedSearch, error) {
	if path == "" {
		return constants.DefaultPredefinedSearches(), nil
	}
	searches, err := constants.LoadPredefinedSearches(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load predefined searches: %w", err)
	}
	return searches, nil
}

// Run starts the configured mode and returns when it is done or a shutdown signal arrives.
func (a *App) Run() error {
	defer a.closeResources()

	a.logger.Info("Application is starting", port.Fields{"mode": a.config.Mode})
	if a.config.Mode == configs.ModeBatch {
		return a.runBatch()
	}
	return a.runPipeline()
}

func (a *App) runBatch() error {
	ctx, stop := signal.NotifyContext(a.appCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failed []error
	for _, search := range a.searches {
		runID := uuid.New()
		searchLogger := a.logger.WithFields(port.Fields{"search": search.Name, "run_id": runID.String()})
		searchCtx := contextkeys.ContextWithLogger(ctx, searchLogger)
		searchCtx = contextkeys.ContextWithTraceID(searchCtx, runID.String())

		run, err := a.scrapeUC.Execute(searchCtx, runID, search)
		if err != nil {
			searchLogger.Error("Search failed", err, nil)
			failed = append(failed, fmt.Errorf("search %s: %w", search.Name, err))
		} else {
			searchLogger.Info("Search finished", port.Fields{
				"links_found":    run.LinksFound,
				"listings_saved": run.ListingsSaved,
				"truncated":      run.Truncated,
			})
		}

		if ctx.Err() != nil {
			a.logger.Warn("Batch interrupted by signal", nil)
			break
		}
	}

	return errors.Join(failed...)
}

func (a *App) runPipeline() error {
	var wg sync.WaitGroup
	componentErrors := make(chan error, 3)

	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		a.logger.Info("Starting listener", port.Fields{"listener": name})
		if err := listener.Start(a.appCtx); err != nil {
			a.logger.Error("Listener stopped with an unexpected error", err, port.Fields{"listener": name})
			componentErrors <- fmt.Errorf("%s error: %w", name, err)
			return
		}
		a.logger.Info("Listener stopped gracefully", port.Fields{"listener": name})
	}

	wg.Add(2)
	go startListener("link listener", a.linkEventsListener)
	go startListener("listing listener", a.listingListener)

	if a.httpServer != nil {
		go func() {
			if err := a.httpServer.Start(); err != nil {
				componentErrors <- err
			}
		}()
	}

	a.startPredefinedCrawls()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or component error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Info("Received signal, shutting down", port.Fields{"signal": receivedSignal.String()})
	case err := <-componentErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	}

	a.cancelApp()

	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error stopping REST server", err, nil)
		}
		cancel()
	}

	a.logger.Info("Waiting for background processes to finish...", nil)
	wg.Wait()
	a.startCrawlUC.Wait()
	a.logger.Info("All background processes finished", nil)
	return nil
}

// startPredefinedCrawls schedules one crawl per predefined search.
func (a *App) startPredefinedCrawls() {
	for _, search := range a.searches {
		ctx := contextkeys.ContextWithLogger(a.appCtx, a.logger.WithFields(port.Fields{"search": search.Name}))
		if _, err := a.startCrawlUC.Execute(ctx, search); err != nil {
			a.logger.Error("Failed to schedule predefined crawl", err, port.Fields{"search": search.Name})
		}
	}
}

func (a *App) closeResources() {
	a.cancelApp()

	closeWithLog := func(name string, closeFn func() error) {
		if err := closeFn(); err != nil && a.logger != nil {
			a.logger.Error("Error closing component", err, port.Fields{"component": name})
		}
	}

	if a.linkEventsListener != nil {
		closeWithLog("link listener", a.linkEventsListener.Close)
		a.linkEventsListener = nil
	}
	if a.listingListener != nil {
		closeWithLog("listing listener", a.listingListener.Close)
		a.listingListener = nil
	}
	if a.eventProducer != nil {
		closeWithLog("event producer", a.eventProducer.Close)
		a.eventProducer = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
		if a.logger != nil {
			a.logger.Info("PostgreSQL pool closed", nil)
		}
	}
	if a.logger != nil {
		a.logger.Info("Application shut down", nil)
	}
	if a.fluentClient != nil {
		_ = a.fluentClient.Close()
		a.fluentClient = nil
	}
}
