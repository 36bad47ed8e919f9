package bootstrap

import (
	"context"
	"fmt"
	"time"

	"notes-sync-be/internal/config"
	"notes-sync-be/internal/controller"
	"notes-sync-be/internal/editor"
	"notes-sync-be/internal/handler"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/internal/pkg/serverutils"
	"notes-sync-be/internal/repository/memory"
	"notes-sync-be/internal/repository/unitofwork"
	"notes-sync-be/internal/service"
	"notes-sync-be/internal/websocket"
	"notes-sync-be/pkg/database"

	pktNats "notes-sync-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	NoteController   controller.INoteController
	SystemController controller.ISystemController

	// Editor sessions
	EditorHandler *handler.EditorHandler
	WebSocketHub  *websocket.Hub

	RateLimiter *serverutils.RateLimiter

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	NoteService     service.INoteService

	closers []func()
}

// NewContainer builds every dependency from cfg. NATS and Redis are optional: when
// their URL is empty or unreachable the server runs without them.
func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Storage
	uowFactory, err := c.newRepositoryFactory(cfg)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var relay service.EventRelay
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := natsPub.EnsureStream(ctx); err != nil {
				sysLogger.Warn("Bootstrap", "NATS stream is not ready, relay may drop events", map[string]interface{}{"error": err.Error()})
			}
			cancel()
			relay = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Search cache
	var searchCache service.ISearchCache
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis, search cache disabled", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
		} else {
			searchCache = service.NewRedisSearchCache(rdb, cfg.Editor.SearchCacheTTL, sysLogger)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, relay, sysLogger)
	c.NoteService = service.NewNoteService(uowFactory, publisherService, searchCache, sysLogger)

	// 5. Transport
	sessionLogger := logger.NewIsolatedLogger(cfg.App.SessionLogFilePath)
	c.WebSocketHub = websocket.NewHub(sessionLogger)
	c.EditorHandler = handler.NewEditorHandler(c.NoteService, c.WebSocketHub, editor.Config{
		SaveDelay:   cfg.Editor.SaveDelay,
		SearchDelay: cfg.Editor.SearchDelay,
	}, sessionLogger)

	c.NoteController = controller.NewNoteController(c.NoteService)
	c.SystemController = controller.NewSystemController(sysLogger)
	c.RateLimiter = serverutils.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
	c.closers = append(c.closers, c.RateLimiter.Stop)

	return c, nil
}

func (c *Container) newRepositoryFactory(cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		c.Logger.Warn("Bootstrap", "Using in-memory notes store, data is lost on restart", nil)
		return memory.NewRepositoryFactory(memory.NewNoteCache()), nil

	case config.DriverPostgres:
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
		}
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		c.closers = append(c.closers, func() { closeDB(db) })
		return unitofwork.NewRepositoryFactory(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
