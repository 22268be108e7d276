package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/clients/registry"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/crypto"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/notification"
	"social-publisher/infrastructure/persistence"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/queue"
	"social-publisher/infrastructure/ratelimit"
	"social-publisher/infrastructure/servicebus"
	"social-publisher/usecase"
)

// app holds every wired component. Both the server and the operator
// commands build one so they act on the same stores.
type app struct {
	queue       repository.IJobQueue
	jobs        usecase.IJobUsecase
	publish     usecase.IPublishUsecase
	credentials usecase.ICredentialUsecase
	scheduler   usecase.ISchedulerUsecase
	publishers  repository.IPublisherRegistry

	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Error while closing resource")
		}
	}
}

func buildApp(ctx context.Context) (*app, error) {
	cfg := &configuration.C
	a := &app{}

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.closers = append(a.closers, psqlDb)
	if err := persistence.EnsureSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring schema")
	}

	connections, err := a.connectionStore(ctx, cfg, psqlDb)
	if err != nil {
		a.Close()
		return nil, err
	}

	resultDb, err := persistence.NewResultStoreDB(cfg.Database.ResultStore, psqlDb)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("result store: %w", err)
	}
	if err := persistence.EnsurePublishResultSchema(resultDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring publish result schema")
	}
	results := persistence.NewPublishResultRepository(resultDb)

	contents, err := a.contentStore(ctx, cfg, psqlDb)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.queue = a.jobQueue(ctx, cfg)

	cipher, err := crypto.NewTokenCipher(cfg.Credentials.Key)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("credential cipher: %w", err)
	}

	notifier := a.notifier(ctx, cfg)
	limiter := ratelimit.NewLimiter(configuration.RateLimitConfigs(cfg))
	a.publishers = registry.NewDefaultRegistry(registry.Endpoints{
		TikTokBaseURL:     cfg.Platforms.TikTokBaseURL,
		GraphBaseURL:      cfg.Platforms.GraphBaseURL,
		YouTubeUploadURL:  cfg.Platforms.YouTubeUploadURL,
		TwitterAPIURL:     cfg.Platforms.TwitterAPIURL,
		TwitterUploadURL:  cfg.Platforms.TwitterUploadURL,
		LinkedInBaseURL:   cfg.Platforms.LinkedInBaseURL,
		LinkedInVersion:   cfg.Platforms.LinkedInVersion,
		PinterestBaseURL:  cfg.Platforms.PinterestBaseURL,
		PollInterval:      cfg.Platforms.PollInterval,
		HTTPTimeout:       cfg.Platforms.HTTPTimeout,
		TikTokPrivacy:     cfg.Platforms.TikTokPrivacy,
		YouTubePrivacy:    cfg.Platforms.YouTubePrivacy,
		YouTubeCategoryID: cfg.Platforms.YouTubeCategoryID,
	})
	jobRepo := persistence.NewPostJobRepository(psqlDb)

	a.credentials = usecase.NewCredentialUsecase(connections, cipher, notifier, persistence.NewTenantAdminRepository(psqlDb))
	a.jobs = usecase.NewJobUsecase(jobRepo, contents, results, a.queue, limiter, a.publishers, cfg.Scheduler.Lookahead)
	a.publish = usecase.NewPublishUsecase(jobRepo, contents, results, a.credentials, limiter, a.publishers)
	a.scheduler = usecase.NewSchedulerUsecase(jobRepo, a.queue, a.credentials, usecase.SchedulerPolicy{
		Lookahead:      cfg.Scheduler.Lookahead,
		PromotionBatch: cfg.Scheduler.PromotionBatch,
		CompletedTTL:   cfg.Scheduler.CompletedTTL,
		CancelledTTL:   cfg.Scheduler.CancelledTTL,
		ExpiryWarning:  cfg.Scheduler.ExpiryWarning,
		StaleAfter:     cfg.Scheduler.StaleAfter,
	})
	return a, nil
}

func (a *app) connectionStore(ctx context.Context, cfg *configuration.Config, psqlDb *sql.DB) (repository.ISocialConnection, error) {
	if !strings.EqualFold(cfg.Database.Vendor, "mssql") {
		return persistence.NewSocialConnectionRepository(psqlDb), nil
	}
	mssqlDb, err := persistence.NewMSSQLDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("mssql: %w", err)
	}
	a.closers = append(a.closers, mssqlDb)
	if err := persistence.EnsureSocialConnectionSchemaMSSQL(mssqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring mssql connection schema")
	}
	return persistence.NewSocialConnectionRepositoryMSSQL(mssqlDb), nil
}

func (a *app) contentStore(ctx context.Context, cfg *configuration.Config, psqlDb *sql.DB) (repository.IContent, error) {
	if !strings.EqualFold(cfg.Content.Store, "mongo") {
		return persistence.NewContentRepository(psqlDb), nil
	}
	m := cfg.Database.Mongo
	client, err := persistence.NewMongoDb(m.Host, m.Port, m.User, m.Password, m.Name)
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}
	a.closers = append(a.closers, closerFunc(func() error { return client.Disconnect(context.Background()) }))
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return persistence.NewContentRepositoryMongo(client, cfg.Content.Mongo.Database, cfg.Content.Mongo.Collection), nil
}

// jobQueue prefers Redis and falls back to the in-process queue when Redis is
// unreachable. Pending jobs are re-enqueued by the promotion pass either way.
func (a *app) jobQueue(ctx context.Context, cfg *configuration.Config) repository.IJobQueue {
	opts := queue.DefaultOptions()
	if cfg.Queue.Prefix != "" {
		opts.Prefix = cfg.Queue.Prefix
	}
	if cfg.Queue.BackoffBase > 0 {
		opts.BackoffBase = cfg.Queue.BackoffBase
	}
	if cfg.Queue.CompletedRetention > 0 {
		opts.CompletedRetention = cfg.Queue.CompletedRetention
	}
	if cfg.Queue.FailedRetention > 0 {
		opts.FailedRetention = cfg.Queue.FailedRetention
	}

	if strings.EqualFold(cfg.Queue.Driver, "memory") {
		return queue.NewMemoryQueue(opts)
	}
	rdb, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
		cfg.RedisClient.Username,
		cfg.RedisClient.Password,
	)
	if err != nil {
		_ = rdb.Close()
		logger.GetLogger().WithField("error", err).Warn("Redis not available - using in-memory queue")
		return queue.NewMemoryQueue(opts)
	}
	logger.GetLogger().Info("Redis client initialized successfully.")
	return queue.NewRedisQueue(rdb, opts)
}

func (a *app) notifier(ctx context.Context, cfg *configuration.Config) repository.INotifier {
	switch strings.ToLower(cfg.Notification.Driver) {
	case "pubsub":
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			break
		}
		n := pubsub.NewNotifier(client, cfg.Pubsub.TopicID)
		a.closers = append(a.closers, closerFunc(func() error { n.Stop(); return client.Close() }))
		return n
	case "servicebus":
		client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available")
			break
		}
		a.closers = append(a.closers, closerFunc(func() error { return client.Close(context.Background()) }))
		return servicebus.NewNotifier(client, cfg.ServiceBus.QueueName)
	}
	return notification.NewLogNotifier(nil)
}
