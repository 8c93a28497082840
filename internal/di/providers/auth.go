package providers

import (
	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/ratelimit"
)

// ProvideTokenService provides the JWT session token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clk := do.MustInvoke[clock.Clock](i)

	secret, persisted, err := auth.ResolveSecret(cfg.Auth.JWTSecret, dataDir(cfg))
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.Auth.JWTSecret != "":
	case persisted:
		log.Info("Using token secret from data directory")
	default:
		log.Warn("JWT_SECRET not set and no data directory, sessions will not survive a restart")
	}

	log.Info("Token service ready", "token_ttl", cfg.Auth.TokenTTL)

	return auth.NewTokenService(secret, cfg.Auth.TokenTTL, clk)
}

// LoginLimiterHandle wraps the login limiter with shutdown capability.
// Limiter is nil when login throttling is disabled.
type LoginLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	if h.Limiter != nil {
		h.Limiter.Stop()
	}
	return nil
}

// ProvideLoginLimiter provides the per-IP login attempt limiter.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Auth.LoginPerMinute <= 0 {
		return &LoginLimiterHandle{}, nil
	}
	return &LoginLimiterHandle{
		Limiter: ratelimit.New(ratelimit.PerMinute(cfg.Auth.LoginPerMinute), cfg.Auth.LoginBurst),
	}, nil
}
