package resolution

import "github.com/Ramsey-B/fern/pkg/models"

// DroppedRelation is a declared relation whose target mention produced no resolved pair.
type DroppedRelation struct {
	SourceTmpID int64
	Relation    models.DeclaredRelation
}

// Compile turns the declared relations of every resolved pair into graph mutations.
// Targets are looked up by temp id, first match in pair order wins, and relations
// whose target did not resolve are skipped. Output keeps pair then relation order.
func Compile(pairs []models.ResolvedPair) []models.GraphMutation {
	mutations, _ := compile(pairs)
	return mutations
}

func compile(pairs []models.ResolvedPair) ([]models.GraphMutation, []DroppedRelation) {
	var mutations []models.GraphMutation
	var dropped []DroppedRelation

	for _, source := range pairs {
		for _, rel := range source.Mention.Relations {
			target, ok := findTarget(pairs, rel.To)
			if !ok {
				dropped = append(dropped, DroppedRelation{SourceTmpID: source.Mention.TmpID, Relation: rel})
				continue
			}
			mutations = append(mutations, models.GraphMutation{
				SourceID:   source.Entity.ID,
				SourceType: source.Entity.Type,
				TargetID:   target.Entity.ID,
				TargetType: target.Entity.Type,
				Relation:   rel.Name,
			})
		}
	}
	return mutations, dropped
}

func findTarget(pairs []models.ResolvedPair, tmpID int64) (models.ResolvedPair, bool) {
	for _, p := range pairs {
		if p.Mention.TmpID == tmpID {
			return p, true
		}
	}
	return models.ResolvedPair{}, false
}
