package introspection

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/gqlcore/internal/executor"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

const testSDL = `
"""Entry point"""
type Query {
  hello: String
  user(id: ID!): User
  old: String @deprecated(reason: "use hello")
  search(filter: Filter = {role: ADMIN, limit: 10}): [Node!]!
}
interface Node { id: ID! }
type User implements Node { id: ID! name: String }
enum Role { ADMIN GUEST @deprecated }
input Filter { limit: Int, role: Role }
input Pick @oneOf { a: Int, b: String }
scalar Date @specifiedBy(url: "https://example.com/date")
`

func execute(t *testing.T, base executor.Runtime, query string) map[string]any {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	rt, err := Wrap(base, sch)
	require.NoError(t, err)
	res := executor.NewExecutor(rt, rt.Schema()).ExecuteQuery(context.Background(), query, "", nil, nil)
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func TestSchemaRoots(t *testing.T) {
	got := execute(t, executor.NewMockRuntime(nil), `{
	  __schema { description queryType { name } mutationType { name } }
	}`)
	want := map[string]any{
		"__schema": map[string]any{
			"description":  nil,
			"queryType":    map[string]any{"name": "Query"},
			"mutationType": nil,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaTypesAreSorted(t *testing.T) {
	got := execute(t, executor.NewMockRuntime(nil), `{ __schema { types { name } } }`)
	var names []string
	for _, tv := range got["__schema"].(map[string]any)["types"].([]any) {
		names = append(names, tv.(map[string]any)["name"].(string))
	}
	require.IsNonDecreasing(t, names)
	require.Contains(t, names, "__Schema")
	require.Contains(t, names, "User")
	require.Contains(t, names, "Date")
}

func TestTypeFields(t *testing.T) {
	rt := executor.NewMockRuntime(nil)

	t.Run("deprecated fields are hidden by default", func(t *testing.T) {
		got := execute(t, rt, `{
		  __type(name: "Query") {
		    kind name description
		    fields { name }
		    all: fields(includeDeprecated: true) { name isDeprecated deprecationReason }
		  }
		}`)
		want := map[string]any{"__type": map[string]any{
			"kind":        "OBJECT",
			"name":        "Query",
			"description": "Entry point",
			"fields": []any{
				map[string]any{"name": "hello"},
				map[string]any{"name": "user"},
				map[string]any{"name": "search"},
			},
			"all": []any{
				map[string]any{"name": "hello", "isDeprecated": false, "deprecationReason": nil},
				map[string]any{"name": "user", "isDeprecated": false, "deprecationReason": nil},
				map[string]any{"name": "old", "isDeprecated": true, "deprecationReason": "use hello"},
				map[string]any{"name": "search", "isDeprecated": false, "deprecationReason": nil},
			},
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("wrapper types", func(t *testing.T) {
		got := execute(t, rt, `{
		  __type(name: "Query") {
		    fields { name type { kind name ofType { kind name ofType { kind name ofType { kind name } } } } }
		  }
		}`)
		want := map[string]any{"__type": map[string]any{"fields": []any{
			map[string]any{"name": "hello", "type": map[string]any{"kind": "SCALAR", "name": "String", "ofType": nil}},
			map[string]any{"name": "user", "type": map[string]any{"kind": "OBJECT", "name": "User", "ofType": nil}},
			map[string]any{"name": "search", "type": map[string]any{
				"kind": "NON_NULL", "name": nil,
				"ofType": map[string]any{
					"kind": "LIST", "name": nil,
					"ofType": map[string]any{
						"kind": "NON_NULL", "name": nil,
						"ofType": map[string]any{"kind": "INTERFACE", "name": "Node"},
					},
				},
			}},
		}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("arguments and default values", func(t *testing.T) {
		got := execute(t, rt, `{
		  __type(name: "Query") { fields { name args { name defaultValue type { name } } } }
		}`)
		fields := got["__type"].(map[string]any)["fields"].([]any)
		want := []any{
			map[string]any{"name": "filter", "defaultValue": "{limit:10,role:ADMIN}", "type": map[string]any{"name": "Filter"}},
		}
		if diff := cmp.Diff(want, fields[2].(map[string]any)["args"]); diff != "" {
			t.Fatalf("args mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, []any{}, fields[0].(map[string]any)["args"])
	})
}

func TestAbstractAndInputTypes(t *testing.T) {
	got := execute(t, executor.NewMockRuntime(nil), `{
	  node: __type(name: "Node") { possibleTypes { name } interfaces { name } enumValues { name } }
	  user: __type(name: "User") { interfaces { name } possibleTypes { name } }
	  role: __type(name: "Role") {
	    enumValues { name }
	    all: enumValues(includeDeprecated: true) { name deprecationReason }
	  }
	  filter: __type(name: "Filter") { isOneOf inputFields { name type { name } defaultValue } }
	  pick: __type(name: "Pick") { isOneOf }
	  date: __type(name: "Date") { kind specifiedByURL isOneOf }
	  missing: __type(name: "Nope") { name }
	}`)
	want := map[string]any{
		"node": map[string]any{
			"possibleTypes": []any{map[string]any{"name": "User"}},
			"interfaces":    []any{},
			"enumValues":    nil,
		},
		"user": map[string]any{
			"interfaces":    []any{map[string]any{"name": "Node"}},
			"possibleTypes": nil,
		},
		"role": map[string]any{
			"enumValues": []any{map[string]any{"name": "ADMIN"}},
			"all": []any{
				map[string]any{"name": "ADMIN", "deprecationReason": nil},
				map[string]any{"name": "GUEST", "deprecationReason": schema.DefaultDeprecationReason},
			},
		},
		"filter": map[string]any{
			"isOneOf": false,
			"inputFields": []any{
				map[string]any{"name": "limit", "type": map[string]any{"name": "Int"}, "defaultValue": nil},
				map[string]any{"name": "role", "type": map[string]any{"name": "Role"}, "defaultValue": nil},
			},
		},
		"pick":    map[string]any{"isOneOf": true},
		"date":    map[string]any{"kind": "SCALAR", "specifiedByURL": "https://example.com/date", "isOneOf": nil},
		"missing": nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectives(t *testing.T) {
	got := execute(t, executor.NewMockRuntime(nil), `{
	  __schema { directives { name isRepeatable locations args { name type { kind } } } }
	}`)
	var skip map[string]any
	for _, d := range got["__schema"].(map[string]any)["directives"].([]any) {
		if d.(map[string]any)["name"] == "skip" {
			skip = d.(map[string]any)
		}
	}
	want := map[string]any{
		"name":         "skip",
		"isRepeatable": false,
		"locations":    []any{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		"args":         []any{map[string]any{"name": "if", "type": map[string]any{"kind": "NON_NULL"}}},
	}
	if diff := cmp.Diff(want, skip); diff != "" {
		t.Fatalf("skip mismatch (-want +got):\n%s", diff)
	}
}

func TestOtherFieldsReachBase(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	rt.SetSerializer(func(v any, _ string) (any, error) { return "<" + v.(string) + ">", nil })

	got := execute(t, rt, `{ hello __type(name: "Query") { name } __typename }`)
	want := map[string]any{
		"hello":      "<world>",
		"__type":     map[string]any{"name": "Query"},
		"__typename": "Query",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, rt.GetCalls(), 1)
}

func TestWrap(t *testing.T) {
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	rt, err := Wrap(executor.NewMockRuntime(nil), sch)
	require.NoError(t, err)

	require.Nil(t, sch.Type("__Schema"), "original schema must not change")
	require.Nil(t, sch.GetQueryType().Field("__schema"))
	require.NotNil(t, rt.Schema().GetQueryType().Field("__type"))
	require.Equal(t, schema.TypeKindEnum, rt.Schema().Type("__TypeKind").Kind)

	_, err = Wrap(executor.NewMockRuntime(nil), schema.NewSchema(""))
	require.ErrorIs(t, err, errNoQueryType)
}
