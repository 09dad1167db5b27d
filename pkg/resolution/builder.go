package resolution

import "github.com/Ramsey-B/fern/pkg/models"

// BuildContexts returns one resolution context per mention, in input order.
func BuildContexts(req models.BatchRequest) []models.ResolutionContext {
	contexts := make([]models.ResolutionContext, 0, len(req.Entities))
	for i, current := range req.Entities {
		rest := make([]models.EntityMention, 0, len(req.Entities)-1)
		rest = append(rest, req.Entities[:i]...)
		rest = append(rest, req.Entities[i+1:]...)

		contexts = append(contexts, models.ResolutionContext{
			Current:      current,
			Rest:         rest,
			Content:      req.Content,
			ContentID:    req.ContentID,
			TenantID:     req.TenantID,
			IngestionID:  req.IngestionID,
			DatasourceID: req.DatasourceID,
		})
	}
	return contexts
}
