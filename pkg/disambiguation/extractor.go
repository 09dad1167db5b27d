package disambiguation

import (
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"

	"github.com/Ramsey-B/fern/pkg/models"
)

// DefaultNameExpression reads the mention name, falling back to a name attribute.
const DefaultNameExpression = "name || attributes.name"

// NameExtractor evaluates a JMESPath expression against a mention to find the names it refers to.
// The expression sees {name, type, attributes}.
type NameExtractor struct {
	expression string
	compiled   *jmespath.JMESPath
}

// NewNameExtractor compiles expression. An empty expression uses DefaultNameExpression.
func NewNameExtractor(expression string) (*NameExtractor, error) {
	if strings.TrimSpace(expression) == "" {
		expression = DefaultNameExpression
	}
	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile name expression %q: %w", expression, err)
	}
	return &NameExtractor{expression: expression, compiled: compiled}, nil
}

// Extract returns the non-blank names for m. A list result means the mention refers to several entities.
func (e *NameExtractor) Extract(m models.EntityMention) ([]string, error) {
	attrs := m.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	result, err := e.compiled.Search(map[string]any{
		"name":       m.Name,
		"type":       m.Type,
		"attributes": attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate name expression: %w", err)
	}

	var names []string
	switch v := result.(type) {
	case nil:
	case string:
		names = appendName(names, v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = appendName(names, s)
			}
		}
	default:
		return nil, fmt.Errorf("name expression %q returned %T, expected string or list", e.expression, result)
	}
	return names, nil
}

func appendName(names []string, name string) []string {
	if strings.TrimSpace(name) == "" {
		return names
	}
	return append(names, name)
}
