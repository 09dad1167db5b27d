package graph

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

const defaultRelationType = "RELATED_TO"

// Statement is a parameterized Cypher query
type Statement struct {
	Cypher string
	Params map[string]any
}

// MergeStatement renders the edge merge for a single mutation.
func MergeStatement(m models.GraphMutation) Statement {
	return Statement{
		Cypher: mergeClause(m, 0),
		Params: map[string]any{
			sourceParam(0): m.SourceID,
			targetParam(0): m.TargetID,
		},
	}
}

// UnionStatement combines the merges of every mutation into one UNION ALL query.
func UnionStatement(mutations []models.GraphMutation) Statement {
	parts := make([]string, len(mutations))
	params := make(map[string]any, len(mutations)*2)
	for i, m := range mutations {
		parts[i] = mergeClause(m, i)
		params[sourceParam(i)] = m.SourceID
		params[targetParam(i)] = m.TargetID
	}
	return Statement{
		Cypher: strings.Join(parts, "\nUNION ALL\n"),
		Params: params,
	}
}

func mergeClause(m models.GraphMutation, i int) string {
	return fmt.Sprintf(
		"MATCH (a:%s), (b:%s) WHERE id(a) = $%s AND id(b) = $%s MERGE (a)-[r:%s]->(b) RETURN id(r) AS rel_id",
		sanitizeLabel(m.SourceType),
		sanitizeLabel(m.TargetType),
		sourceParam(i),
		targetParam(i),
		sanitizeRelationType(m.Relation),
	)
}

func sourceParam(i int) string { return fmt.Sprintf("src_%d", i) }

func targetParam(i int) string { return fmt.Sprintf("dst_%d", i) }

// sanitizeLabel ensures the label is safe for Cypher
func sanitizeLabel(label string) string {
	return sanitizeIdentifier(label, "Entity")
}

func sanitizeRelationType(rel string) string {
	return sanitizeIdentifier(rel, defaultRelationType)
}

// sanitizeIdentifier keeps alphanumerics and underscores. Identifiers cannot be parameterized.
func sanitizeIdentifier(s, fallback string) string {
	var b strings.Builder
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
