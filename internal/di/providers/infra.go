package providers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/cache"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/events"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/notify"
)

// NotifierHandle wraps the webhook client with shutdown capability.
type NotifierHandle struct {
	*notify.Client
}

// Shutdown implements do.Shutdownable.
func (h *NotifierHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideNotifier provides the automation webhook client.
func ProvideNotifier(i do.Injector) (*NotifierHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := notify.New(notify.Config{
		ReminderURL:   cfg.Notify.ReminderURL,
		CompletionURL: cfg.Notify.CompletionURL,
		Timeout:       cfg.Notify.Timeout,
		PerSecond:     cfg.Notify.DispatchPerSecond,
	}, log.Logger)

	if cfg.Notify.ReminderURL == "" {
		log.Warn("REMINDER_AUTOMATION_URL not set, reminders will be skipped")
	}
	if cfg.Notify.CompletionURL == "" {
		log.Warn("COMPLETION_AUTOMATION_URL not set, completion notices will be skipped")
	}

	return &NotifierHandle{Client: client}, nil
}

// PublisherHandle wraps the event publisher with shutdown capability.
type PublisherHandle struct {
	events.Publisher
}

// Shutdown implements do.Shutdownable.
func (h *PublisherHandle) Shutdown() error {
	return h.Close()
}

// ProvidePublisher connects to NATS when configured and discards events otherwise.
func ProvidePublisher(i do.Injector) (*PublisherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Events.NATSURL == "" {
		log.Info("NATS_URL not set, domain events disabled")
		return &PublisherHandle{Publisher: events.Noop{}}, nil
	}

	nc, err := events.NewNATS(events.NATSConfig{
		URL:           cfg.Events.NATSURL,
		Name:          "mimirswell-server",
		SubjectPrefix: cfg.Events.SubjectPrefix,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Publishing domain events", "subject_prefix", cfg.Events.SubjectPrefix)
	return &PublisherHandle{Publisher: nc}, nil
}

// HeroCacheHandle holds the hero content cache and the redis client behind
// it, if any.
type HeroCacheHandle struct {
	Cache  cache.Cache[*domain.HeroContent]
	client *redis.Client
}

// Shutdown implements do.Shutdownable.
func (h *HeroCacheHandle) Shutdown() error {
	if h.client != nil {
		return h.client.Close()
	}
	return nil
}

// ProvideHeroCache provides the cache for per-user hero content.
func ProvideHeroCache(i do.Injector) (*HeroCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clk := do.MustInvoke[clock.Clock](i)

	if cfg.Cache.Driver != config.CacheRedis {
		return &HeroCacheHandle{
			Cache: cache.NewTTL[*domain.HeroContent](cfg.Cache.HeroTTL, clk),
		}, nil
	}

	client, err := cache.NewRedisClient(context.Background(), cache.RedisConfig{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Hero cache backed by redis", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.HeroTTL)
	return &HeroCacheHandle{
		Cache:  cache.NewRedis[*domain.HeroContent](client, "mimirswell:hero", cfg.Cache.HeroTTL, log.Logger),
		client: client,
	}, nil
}
