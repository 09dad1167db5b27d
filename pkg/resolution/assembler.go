package resolution

import "github.com/Ramsey-B/fern/pkg/models"

// Assemble projects resolved pairs into correlation entries, preserving pair order.
func Assemble(pairs []models.ResolvedPair) []models.CorrelationEntry {
	entries := make([]models.CorrelationEntry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, models.CorrelationEntry{
			TmpID: p.Mention.TmpID,
			Entity: models.CanonicalEntity{
				ID:       p.Entity.ID,
				Name:     p.Entity.Name,
				Type:     p.Entity.Type,
				TenantID: p.Entity.TenantID,
			},
		})
	}
	return entries
}
