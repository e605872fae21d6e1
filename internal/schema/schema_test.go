package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const librarySDL = `
schema { query: Query mutation: Mutation }

"Things that can be looked up by id."
interface Node { id: ID! }

type Book implements Node {
  id: ID!
  title: String!
  isbn: String @deprecated(reason: "use identifiers")
  reviews(first: Int = 10, order: Order = NEWEST): [Review!]! @async
}

type Author implements Node {
  id: ID!
  name: String
}

type Review { body: String }

union SearchResult = Book | Author

enum Order {
  NEWEST
  OLDEST @deprecated
}

input BookFilter {
  title: String
  tags: [String!] = ["fiction"]
  order: Order = OLDEST
}

scalar Date @specifiedBy(url: "https://tools.ietf.org/html/rfc3339")

type Query {
  node(id: ID!): Node
  search(filter: BookFilter): [SearchResult]
  today: Date
}

type Mutation { touch: Boolean }

directive @cost(weight: Int!) repeatable on FIELD_DEFINITION | OBJECT
`

func TestBuildFromSDL(t *testing.T) {
	s, err := BuildFromSDL(librarySDL)
	require.NoError(t, err)

	require.Equal(t, "Query", s.QueryType)
	require.Equal(t, "Mutation", s.MutationType)
	require.Empty(t, s.SubscriptionType)
	require.Same(t, stringType, s.Type("String"), "built-in scalars are shared")
	require.Nil(t, s.Type("__Schema"))
	require.Nil(t, s.GetQueryType().Field("__typename"))

	t.Run("object fields", func(t *testing.T) {
		book := s.Type("Book")
		require.Equal(t, []string{"Node"}, book.Interfaces)

		reviews := book.Field("reviews")
		require.True(t, reviews.Async)
		require.Equal(t, "[Review!]!", reviews.Type.String())
		require.Equal(t, 10, reviews.Argument("first").DefaultValue)
		require.Equal(t, "NEWEST", reviews.Argument("order").DefaultValue)

		isbn := book.Field("isbn")
		require.False(t, isbn.Async)
		require.True(t, isbn.IsDeprecated)
		require.Equal(t, "use identifiers", isbn.DeprecationReason)
	})

	t.Run("abstract types", func(t *testing.T) {
		require.Equal(t, []string{"Author", "Book"}, s.Type("Node").PossibleTypes)
		require.Equal(t, []string{"Author", "Book"}, s.Type("SearchResult").PossibleTypes)
		require.True(t, s.IsPossibleType("SearchResult", "Book"))
		require.True(t, s.IsPossibleType("Book", "Book"))
		require.False(t, s.IsPossibleType("Node", "Review"))
	})

	t.Run("enums and inputs", func(t *testing.T) {
		oldest := s.Type("Order").EnumValue("OLDEST")
		require.True(t, oldest.IsDeprecated)
		require.Equal(t, DefaultDeprecationReason, oldest.DeprecationReason)

		filter := s.Type("BookFilter")
		require.Equal(t, []any{"fiction"}, filter.InputField("tags").DefaultValue)
		require.Equal(t, "OLDEST", filter.InputField("order").DefaultValue)
	})

	t.Run("scalars and directives", func(t *testing.T) {
		date := s.Type("Date")
		require.NotNil(t, date.SpecifiedByURL)
		require.Equal(t, "https://tools.ietf.org/html/rfc3339", *date.SpecifiedByURL)

		cost := s.Directives["cost"]
		require.True(t, cost.IsRepeatable)
		require.Equal(t, []string{"FIELD_DEFINITION", "OBJECT"}, cost.Locations)
		require.Equal(t, "Int!", cost.Arguments[0].Type.String())
		require.Same(t, includeDirective, s.Directives["include"])
	})
}

func TestBuildFromSDL_Invalid(t *testing.T) {
	_, err := BuildFromSDL(`type Query { a: Missing }`)
	require.ErrorContains(t, err, "Missing")

	_, err = BuildFromSDL(`type Query {`)
	require.Error(t, err)
}

func TestRender_RoundTrip(t *testing.T) {
	t.Run("from SDL", func(t *testing.T) {
		want, err := BuildFromSDL(librarySDL)
		require.NoError(t, err)

		got, err := BuildFromSDL(Render(want))
		require.NoError(t, err, Render(want))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("schema mismatch after render (-want +got):\n%s", diff)
		}
	})

	t.Run("from constructors", func(t *testing.T) {
		color := NewType("Color", TypeKindEnum, "").
			AddEnumValue(NewEnumValue("RED", "")).
			AddEnumValue(NewEnumValue("BLUE", "").Deprecate("too cold"))
		point := NewType("Point", TypeKindInputObject, "A position.").
			AddInputField(NewInputValue("x", "", NonNullType(NamedType("Float")))).
			AddInputField(NewInputValue("y", "", NamedType("Float")).SetDefault(1.5))
		query := NewType("Query", TypeKindObject, "").
			AddField(NewField("paint", "Paints a point.", NamedType("Boolean")).
				AddArgument(NewInputValue("at", "", NonNullType(NamedType("Point")))).
				AddArgument(NewInputValue("color", "", NamedType("Color")).SetDefault("RED")).
				SetAsync(true))
		want := NewSchema("").SetQueryType("Query").AddType(query).AddType(point).AddType(color)

		sdl := Render(want)
		require.NotContains(t, sdl, "scalar String")
		require.NotContains(t, sdl, "directive @include")
		require.Contains(t, sdl, "color: Color = RED")

		got, err := BuildFromSDL(sdl)
		require.NoError(t, err, sdl)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("schema mismatch after render (-want +got):\n%s", diff)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		s, err := BuildFromSDL(librarySDL)
		require.NoError(t, err)
		require.Equal(t, Render(s), Render(s))
	})
}

func TestTypeRef(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("String"))))
	require.Equal(t, "[String!]!", ref.String())
	require.True(t, IsNonNull(ref))
	require.True(t, IsList(ref))
	require.Equal(t, "String", GetNamedType(ref))
	require.Equal(t, "[String!]", Unwrap(ref).String())
	require.False(t, IsList(NamedType("Int")))
}

func TestNewSchema_Builtins(t *testing.T) {
	s := NewSchema("")
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		require.True(t, IsBuiltin(s.Type(name)), name)
		require.Same(t, s.Type(name), BuiltinScalar(name))
	}
	require.Nil(t, BuiltinScalar("Date"))
	require.Equal(t, "\n", Render(s))
}
