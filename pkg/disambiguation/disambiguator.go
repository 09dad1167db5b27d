// Package disambiguation resolves entity mentions against the canonical entities in the graph.
package disambiguation

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// EntityStore finds or creates the canonical entity for a key.
type EntityStore interface {
	FindOrCreate(ctx context.Context, key graph.EntityKey, name string, attributes map[string]any) (models.CanonicalEntity, error)
}

// GraphDisambiguator matches mentions by normalized name within tenant and type.
type GraphDisambiguator struct {
	extractor *NameExtractor
	chains    normalizers.TypeChains
	store     EntityStore
	cache     EntityCache
	logger    ectologger.Logger
}

// NewGraphDisambiguator creates a disambiguator. cache may be nil.
func NewGraphDisambiguator(extractor *NameExtractor, chains normalizers.TypeChains, store EntityStore, cache EntityCache, logger ectologger.Logger) *GraphDisambiguator {
	return &GraphDisambiguator{
		extractor: extractor,
		chains:    chains,
		store:     store,
		cache:     cache,
		logger:    logger,
	}
}

// Disambiguate emits one pair per distinct name found on the mention and none when no name is found.
func (d *GraphDisambiguator) Disambiguate(ctx context.Context, rc models.ResolutionContext) ([]models.ResolvedPair, error) {
	ctx, span := tracing.StartSpan(ctx, "disambiguation.GraphDisambiguator.Disambiguate")
	defer span.End()

	log := d.logger.WithContext(ctx).WithFields(map[string]any{
		"tmp_id":      rc.Current.TmpID,
		"entity_type": rc.Current.Type,
		"tenant_id":   rc.TenantID,
	})

	names, err := d.extractor.Extract(rc.Current)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		log.Debug("Mention has no resolvable name")
		return nil, nil
	}

	seen := make(map[string]bool, len(names))
	pairs := make([]models.ResolvedPair, 0, len(names))
	for _, name := range names {
		normalized := d.chains.Normalize(rc.Current.Type, name)
		if normalized == "" {
			continue
		}
		key := graph.EntityKey{
			TenantID: rc.TenantID,
			Type:     rc.Current.Type,
			MatchKey: fingerprint.MatchKey(rc.TenantID, rc.Current.Type, normalized),
		}
		if seen[key.MatchKey] {
			continue
		}
		seen[key.MatchKey] = true

		entity, err := d.resolve(ctx, key, name, rc.Current.Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", name, err)
		}
		pairs = append(pairs, models.ResolvedPair{Mention: rc.Current, Entity: entity})
	}

	log.WithField("pairs", len(pairs)).Debug("Disambiguated mention")
	return pairs, nil
}

func (d *GraphDisambiguator) resolve(ctx context.Context, key graph.EntityKey, name string, attributes map[string]any) (models.CanonicalEntity, error) {
	if d.cache != nil {
		cached, err := d.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
			d.logger.WithContext(ctx).WithError(err).Warn("Entity cache read failed")
		case cached != nil:
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return *cached, nil
		default:
			metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	entity, err := d.store.FindOrCreate(ctx, key, name, attributes)
	if err != nil {
		return models.CanonicalEntity{}, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, entity); err != nil {
			d.logger.WithContext(ctx).WithError(err).Warn("Entity cache write failed")
		}
	}
	return entity, nil
}
