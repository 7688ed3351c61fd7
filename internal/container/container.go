package container

import (
	"time"

	"eventmaster/internal/config"
	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/internal/service"
	"eventmaster/internal/service/assets"
	"eventmaster/internal/service/auth"
	"eventmaster/internal/service/qrrender"
	"eventmaster/pkg/database"
	"eventmaster/pkg/logger"
	"eventmaster/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	RateLimiter  service.RateLimiter
	Cache        *service.CacheService
	Services     *service.Services
}

// New creates a new dependency injection container. Redis is optional: when
// it is missing or unreachable, rate limits are kept in process.
func New(cfg *config.Config, logger *logger.Logger, db *database.PostgresDB) (*Container, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, using in-process rate limits")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, using in-process rate limits")
	}

	repos := &repository.Repositories{
		Event:      repository.NewEventRepository(db),
		Guest:      repository.NewGuestRepository(db),
		Folder:     repository.NewFolderRepository(db),
		QRCode:     repository.NewQRCodeRepository(db),
		PublicForm: repository.NewPublicFormRepository(db),
		Submission: repository.NewSubmissionRepository(db),
	}

	c := NewWithRepositories(cfg, logger, repos, redisClient)
	c.DB = db
	return c, nil
}

// NewWithRepositories wires services over the given repositories.
// redisClient may be nil.
func NewWithRepositories(cfg *config.Config, logger *logger.Logger, repos *repository.Repositories, redisClient *redis.Client) *Container {
	var (
		limiter service.RateLimiter
		cache   *service.CacheService
	)
	if redisClient != nil {
		limiter = service.NewRedisRateLimiter(redisClient)
		cache = service.NewCacheService(redisClient, logger.Logger)
	} else {
		limiter = service.NewMemoryRateLimiter()
	}

	assetStore := assets.NewImageKit(assets.Config{
		PrivateKey: cfg.ImageKitPrivateKey,
		Timeout:    30 * time.Second,
	}, logger)
	if !assetStore.Enabled() {
		logger.Info("ImageKit not configured, QR images stay inline")
	}

	services := &service.Services{
		Auth: auth.NewService(cfg.JWTSecret, logger),
		QRCode: service.NewQRCodeService(repos, qrrender.New(), assetStore, cache, service.QRCodeConfig{
			BaseURL:     cfg.BaseURL,
			AssetFolder: cfg.ImageKitFolder,
		}, logger),
		PublicForm: service.NewPublicFormService(repos, limiter, service.PublicFormConfig{
			DefaultPhoneRegion: cfg.DefaultPhoneRegion,
			SubmitLimit:        domain.RateLimit{Requests: cfg.SubmitRateLimit, Window: cfg.SubmitRateWindow},
			FormLimit:          domain.RateLimit{Requests: cfg.FormRateLimit, Window: cfg.FormRateWindow},
		}, logger),
		FormAdmin: service.NewFormManagementService(repos, cfg.BaseURL, logger),
		Event:     service.NewEventService(repos, cfg.DefaultPhoneRegion, logger),
		Folder:    service.NewFolderService(repos, logger),
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		RedisClient:  redisClient,
		Repositories: repos,
		RateLimiter:  limiter,
		Cache:        cache,
		Services:     services,
	}
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// GetCacheService returns the landing cache (nil if Redis is not available)
func (c *Container) GetCacheService() *service.CacheService {
	return c.Cache
}

// Close releases the Redis connection. The database pool is owned by the caller.
func (c *Container) Close() error {
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
