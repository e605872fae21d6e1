package sample

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlcore/internal/executor"
	"github.com/hanpama/gqlcore/internal/jsonrt"
)

func TestSchema(t *testing.T) {
	sch, err := Schema(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Query", sch.QueryType)
	require.True(t, sch.IsPossibleType("Node", "Book"))
	require.True(t, sch.IsPossibleType("Node", "Author"))
	require.True(t, sch.Type("Book").Field("author").Async)

	again, err := Schema(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(sch, again); diff != "" {
		t.Fatalf("Schema mismatch between builds (-want +got):\n%s", diff)
	}
}

func TestExecute(t *testing.T) {
	sch, err := Schema(context.Background())
	require.NoError(t, err)
	rt, err := jsonrt.New(sch, Data)
	require.NoError(t, err)

	got := executor.NewExecutor(rt, sch).ExecuteQuery(context.Background(), `{
  books { id title genre published author { name books { title } } }
  featured { __typename id ... on Author { name } }
  genres
}`, "", nil, rt.Root())

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"books": []any{
				map[string]any{
					"id": "b1", "title": "The Go Programming Language", "genre": "REFERENCE", "published": "2015-10-26",
					"author": map[string]any{
						"name":  "Alan Donovan",
						"books": []any{map[string]any{"title": "The Go Programming Language"}},
					},
				},
				map[string]any{
					"id": "b2", "title": "Invisible Cities", "genre": "FICTION", "published": "1972-11-01",
					"author": map[string]any{
						"name":  "Italo Calvino",
						"books": []any{map[string]any{"title": "Invisible Cities"}},
					},
				},
			},
			"featured": map[string]any{"__typename": "Author", "id": "a2", "name": "Italo Calvino"},
			"genres":   []any{"FICTION", "REFERENCE"},
		},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
