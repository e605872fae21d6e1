package introspection

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	schema "github.com/hanpama/gqlcore/internal/schema"
)

var errNoQueryType = errors.New("introspection: schema has no query type")

// extend returns a copy of original with the introspection types added and
// __schema and __type appended to the query root. The original schema is not
// modified.
func extend(original *schema.Schema) (*schema.Schema, error) {
	queryType := original.GetQueryType()
	if queryType == nil {
		return nil, errNoQueryType
	}
	metaTypes, err := schema.IntrospectionTypes()
	if err != nil {
		return nil, fmt.Errorf("introspection: %w", err)
	}

	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            maps.Clone(original.Types),
		Directives:       original.Directives,
		Description:      original.Description,
	}
	for _, t := range metaTypes {
		if _, taken := extended.Types[t.Name]; taken {
			return nil, fmt.Errorf("introspection: type name %s is reserved", t.Name)
		}
		extended.AddType(t)
	}

	root := *queryType
	root.Fields = append(slices.Clip(queryType.Fields),
		schema.NewField("__schema", "Access the current type schema of this server.",
			schema.NonNullType(schema.NamedType("__Schema"))),
		schema.NewField("__type", "Request the type information of a single type.",
			schema.NamedType("__Type")).
			AddArgument(schema.NewInputValue("name", "The name of the type to look up.",
				schema.NonNullType(schema.NamedType("String")))),
	)
	extended.AddType(&root)
	return extended, nil
}
