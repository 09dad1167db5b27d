// Package resolution resolves the entity mentions of one ingested document and links them in the graph.
package resolution

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Disambiguator resolves one mention to zero or more canonical entities.
// Zero pairs means the mention did not resolve; several pairs means it was split.
type Disambiguator interface {
	Disambiguate(ctx context.Context, rc models.ResolutionContext) ([]models.ResolvedPair, error)
}

// DisambiguatorFunc adapts a plain function to Disambiguator.
type DisambiguatorFunc func(ctx context.Context, rc models.ResolutionContext) ([]models.ResolvedPair, error)

func (f DisambiguatorFunc) Disambiguate(ctx context.Context, rc models.ResolutionContext) ([]models.ResolvedPair, error) {
	return f(ctx, rc)
}

// GraphWriter persists relationship merges. WriteBatch must send all mutations in one store round trip.
type GraphWriter interface {
	Write(ctx context.Context, mutation models.GraphMutation) error
	WriteBatch(ctx context.Context, mutations []models.GraphMutation) error
}

// Observer is notified after a batch has been committed and assembled.
type Observer interface {
	BatchResolved(ctx context.Context, req models.BatchRequest, result BatchResult) error
}

// BatchResult summarizes a committed batch.
type BatchResult struct {
	Correlations []models.CorrelationEntry
	Mutations    []models.GraphMutation
}
