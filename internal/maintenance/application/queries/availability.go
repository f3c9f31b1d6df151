package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	sharedDomain "github.com/felixgeelhaar/upkeep/internal/shared/domain"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
)

// AvailabilityCache stores computed availability reports. Invalidate drops
// every cached report by moving to a new generation.
type AvailabilityCache interface {
	// Get returns the report cached for key, if any, and the generation it
	// looked in.
	Get(ctx context.Context, key string) (CachedAvailability, error)
	// Set stores a report under generation. Reports stored under a generation
	// that has since been invalidated are never returned.
	Set(ctx context.Context, key string, generation int64, a AvailabilityDTO) error
	Invalidate(ctx context.Context) error
}

// CachedAvailability is the result of a cache lookup. Report is nil on a miss.
type CachedAvailability struct {
	Report     *AvailabilityDTO
	Generation int64
}

// AvailabilityQuery asks for slot contention on dates from..to inclusive.
type AvailabilityQuery struct {
	From time.Time
	To   time.Time
}

// AvailabilityHandler handles AvailabilityQuery. It takes no locks; results
// are advisory.
type AvailabilityHandler struct {
	claims  domain.ClaimReader
	cache   AvailabilityCache
	loc     *time.Location
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewAvailabilityHandler creates a handler. cache may be nil.
func NewAvailabilityHandler(claims domain.ClaimReader, cache AvailabilityCache, loc *time.Location, logger *slog.Logger, metrics observability.Metrics) *AvailabilityHandler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AvailabilityHandler{claims: claims, cache: cache, loc: loc, logger: logger, metrics: metrics}
}

// Handle executes the AvailabilityQuery.
func (h *AvailabilityHandler) Handle(ctx context.Context, q AvailabilityQuery) (*AvailabilityDTO, error) {
	start, end, err := domain.DateRange(q.From, q.To, h.loc)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%s:%s", h.loc.String(), start.Format(DateLayout), end.AddDate(0, 0, -1).Format(DateLayout))

	// The report is stored under the generation seen before claims are read,
	// so a write committing meanwhile invalidates it.
	storable := false
	var generation int64
	if h.cache != nil {
		cached, err := h.cache.Get(ctx, key)
		switch {
		case err != nil:
			h.logger.Warn("availability cache read failed", "key", key, "error", err)
			h.metrics.Counter(observability.MetricCacheLookupTotal, 1, observability.T("result", "error"))
		case cached.Report != nil:
			h.metrics.Counter(observability.MetricCacheLookupTotal, 1, observability.T("result", "hit"))
			return cached.Report, nil
		default:
			h.metrics.Counter(observability.MetricCacheLookupTotal, 1, observability.T("result", "miss"))
			storable, generation = true, cached.Generation
		}
	}

	claims, err := h.claims.ListClaimsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list slot claims: %w", err)
	}
	a, err := domain.CalculateAvailability(claims, q.From, q.To, h.loc)
	if err != nil {
		return nil, err
	}
	dto := NewAvailabilityDTO(a)

	if storable {
		if err := h.cache.Set(ctx, key, generation, dto); err != nil {
			h.logger.Warn("availability cache write failed", "key", key, "error", err)
		}
	}
	return &dto, nil
}

// CacheInvalidator drops cached availability after writes that move slots.
type CacheInvalidator struct {
	cache  AvailabilityCache
	logger *slog.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator.
func NewCacheInvalidator(cache AvailabilityCache, logger *slog.Logger) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidator{cache: cache, logger: logger}
}

func (c *CacheInvalidator) Dispatch(ctx context.Context, events []sharedDomain.DomainEvent) {
	for _, e := range events {
		if !movesSlots(e) {
			continue
		}
		if err := c.cache.Invalidate(ctx); err != nil {
			c.logger.Warn("availability cache invalidation failed", "event", e.RoutingKey(), "error", err)
		}
		return
	}
}

func movesSlots(e sharedDomain.DomainEvent) bool {
	switch ev := e.(type) {
	case *domain.FactoryReviewed:
		return ev.TimeChanged
	case *domain.UserApproved:
		return false
	default:
		return true
	}
}
