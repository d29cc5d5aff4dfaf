package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/app/repository"
)

const (
	CacheKeyPresaleMetrics = "presale:metrics:snapshot"
	CacheExpiration        = 5 * time.Minute
)

// PresaleSnapshot is the public view of the global presale metrics row
type PresaleSnapshot struct {
	TotalTokensSold        decimal.Decimal `json:"totalTokensSold"`
	TotalUsdtContributed   decimal.Decimal `json:"totalUsdtContributed"`
	TotalTokensDistributed decimal.Decimal `json:"totalTokensDistributed"`
	UpdatedAt              *time.Time      `json:"updatedAt,omitempty"`
}

// Provider serves presale metrics with a redis cache-aside in front of the
// database. A nil cache client disables caching.
type Provider struct {
	repo  repository.PresaleMetricsRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewProvider(repo repository.PresaleMetricsRepository, cache *redis.Client) *Provider {
	return &Provider{repo: repo, cache: cache, ttl: CacheExpiration}
}

// Snapshot returns the cached metrics, loading them from the database on a miss
func (p *Provider) Snapshot(ctx context.Context) (*PresaleSnapshot, error) {
	if p.cache != nil {
		raw, err := p.cache.Get(ctx, CacheKeyPresaleMetrics).Bytes()
		if err == nil {
			var snap PresaleSnapshot
			if uerr := json.Unmarshal(raw, &snap); uerr == nil {
				return &snap, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warnf("[Statistics] Cache read failed: %v", err)
		}
	}

	snap, err := p.load()
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if raw, err := json.Marshal(snap); err == nil {
			if err := p.cache.Set(ctx, CacheKeyPresaleMetrics, raw, p.ttl).Err(); err != nil {
				log.Warnf("[Statistics] Cache write failed: %v", err)
			}
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot so the next read hits the database
func (p *Provider) Invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Del(ctx, CacheKeyPresaleMetrics).Err(); err != nil {
		log.Warnf("[Statistics] Cache invalidation failed: %v", err)
	}
}

func (p *Provider) load() (*PresaleSnapshot, error) {
	row, err := p.repo.Get()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PresaleSnapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return fromModel(row), nil
}

func fromModel(m *models.PresaleMetrics) *PresaleSnapshot {
	snap := &PresaleSnapshot{
		TotalTokensSold:        m.TotalTokensSold,
		TotalUsdtContributed:   m.TotalUsdtContributed,
		TotalTokensDistributed: m.TotalTokensDistributed,
	}
	if !m.UpdatedAt.IsZero() {
		at := m.UpdatedAt
		snap.UpdatedAt = &at
	}
	return snap
}
