package service

import (
	"log/slog"

	"github.com/kirinyoku/showseat/internal/lock"
	"github.com/kirinyoku/showseat/internal/pricing"
	"github.com/kirinyoku/showseat/internal/repository"
	redisrepo "github.com/kirinyoku/showseat/internal/repository/redis"
	"github.com/kirinyoku/showseat/internal/service/booking"
	"github.com/kirinyoku/showseat/internal/service/catalog"
	"github.com/kirinyoku/showseat/internal/service/query"
)

type Services struct {
	Booking *booking.Service
	Catalog *catalog.Service
	Query   *query.Service
	Pricing *pricing.Policy
}

type Config struct {
	Query query.Config
}

// NewServices wires the services over one store. cache may be nil; nil
// fields of hooks are skipped.
func NewServices(
	store repository.Store,
	policy *pricing.Policy,
	cache *redisrepo.Cache,
	hooks booking.Hooks,
	cfg Config,
	logger *slog.Logger,
) *Services {
	if cache != nil && hooks.Cache == nil {
		hooks.Cache = cache
	}

	return &Services{
		Booking: booking.New(store, policy, lock.NewRegistry(), hooks, logger),
		Catalog: catalog.New(store, logger),
		Query:   query.New(store, cache, policy, cfg.Query),
		Pricing: policy,
	}
}
