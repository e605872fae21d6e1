package declare

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlcore/internal/definition"
	"github.com/hanpama/gqlcore/internal/schema"
)

type queryType struct{}
type userType struct{}
type postType struct{}
type nodeType struct{}
type searchResultType struct{}
type roleType struct{}
type postFilterType struct{}
type dateType struct{}

var userDefinitions atomic.Int32

func (queryType) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{
		Name: "Query",
		Fields: []*FieldDefinition{
			{Name: "node", Type: MustInterface(nodeType{}), Arguments: []*InputValueDefinition{
				{Name: "id", Type: NonNull(Builtin("ID"))},
			}},
			{Name: "search", Type: List(MustUnion(searchResultType{})), Async: true, Arguments: []*InputValueDefinition{
				{Name: "filter", Type: MustInputObject(postFilterType{})},
			}},
		},
	}, nil
}

func (userType) Definition(context.Context) (*ObjectDefinition, error) {
	userDefinitions.Add(1)
	return &ObjectDefinition{
		Name:       "User",
		Interfaces: []*TypeExpr{MustInterface(nodeType{})},
		Fields: []*FieldDefinition{
			{Name: "id", Type: NonNull(Builtin("ID"))},
			{Name: "role", Type: MustEnum(roleType{})},
			{Name: "friends", Type: NonNull(List(NonNull(MustObject(userType{}))))},
			{Name: "posts", Type: List(MustObject(postType{})), Async: true},
		},
	}, nil
}

func (postType) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{
		Name:       "Post",
		Interfaces: []*TypeExpr{MustInterface(nodeType{})},
		Fields: []*FieldDefinition{
			{Name: "id", Type: NonNull(Builtin("ID"))},
			{Name: "author", Type: MustObject(userType{})},
			{Name: "published", Type: MustScalar(dateType{})},
			{Name: "legacyBody", Type: Builtin("String"), Deprecated: true},
		},
	}, nil
}

func (nodeType) Definition(context.Context) (*InterfaceDefinition, error) {
	return &InterfaceDefinition{
		Name:        "Node",
		Description: "Things that can be looked up by id.",
		Fields:      []*FieldDefinition{{Name: "id", Type: NonNull(Builtin("ID"))}},
	}, nil
}

func (searchResultType) Definition(context.Context) (*UnionDefinition, error) {
	return &UnionDefinition{Name: "SearchResult", Members: []*TypeExpr{MustObject(postType{}), MustObject(userType{})}}, nil
}

func (roleType) Definition(context.Context) (*EnumDefinition, error) {
	return &EnumDefinition{Name: "Role", Values: []*EnumValueDefinition{
		{Name: "ADMIN"},
		{Name: "GUEST", Deprecated: true, DeprecationReason: "use MEMBER"},
	}}, nil
}

func (postFilterType) Definition(context.Context) (*InputObjectDefinition, error) {
	return &InputObjectDefinition{Name: "PostFilter", Fields: []*InputValueDefinition{
		{Name: "author", Type: Builtin("ID")},
		{Name: "limit", Type: Builtin("Int"), Default: 20},
		{Name: "role", Type: MustEnum(roleType{}), Default: "ADMIN"},
	}}, nil
}

func (dateType) Definition(context.Context) (*ScalarDefinition, error) {
	return &ScalarDefinition{Name: "Date", SpecifiedByURL: "https://tools.ietf.org/html/rfc3339"}, nil
}

func expectedSchema() *schema.Schema {
	id := func() *schema.TypeRef { return schema.NonNullType(schema.NamedType("ID")) }
	query := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("node", "", schema.NamedType("Node")).
			AddArgument(schema.NewInputValue("id", "", id()))).
		AddField(schema.NewField("search", "", schema.ListType(schema.NamedType("SearchResult"))).
			AddArgument(schema.NewInputValue("filter", "", schema.NamedType("PostFilter"))).
			SetAsync(true))
	user := schema.NewType("User", schema.TypeKindObject, "").
		AddInterface("Node").
		AddField(schema.NewField("id", "", id())).
		AddField(schema.NewField("role", "", schema.NamedType("Role"))).
		AddField(schema.NewField("friends", "", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("User")))))).
		AddField(schema.NewField("posts", "", schema.ListType(schema.NamedType("Post"))).SetAsync(true))
	post := schema.NewType("Post", schema.TypeKindObject, "").
		AddInterface("Node").
		AddField(schema.NewField("id", "", id())).
		AddField(schema.NewField("author", "", schema.NamedType("User"))).
		AddField(schema.NewField("published", "", schema.NamedType("Date"))).
		AddField(schema.NewField("legacyBody", "", schema.NamedType("String")).Deprecate(schema.DefaultDeprecationReason))
	node := schema.NewType("Node", schema.TypeKindInterface, "Things that can be looked up by id.").
		AddField(schema.NewField("id", "", id())).
		AddPossibleType("Post").
		AddPossibleType("User")
	search := schema.NewType("SearchResult", schema.TypeKindUnion, "").
		AddPossibleType("Post").
		AddPossibleType("User")
	role := schema.NewType("Role", schema.TypeKindEnum, "").
		AddEnumValue(schema.NewEnumValue("ADMIN", "")).
		AddEnumValue(schema.NewEnumValue("GUEST", "").Deprecate("use MEMBER"))
	filter := schema.NewType("PostFilter", schema.TypeKindInputObject, "").
		AddInputField(schema.NewInputValue("author", "", schema.NamedType("ID"))).
		AddInputField(schema.NewInputValue("limit", "", schema.NamedType("Int")).SetDefault(20)).
		AddInputField(schema.NewInputValue("role", "", schema.NamedType("Role")).SetDefault("ADMIN"))
	date := schema.NewType("Date", schema.TypeKindScalar, "").SetSpecifiedByURL("https://tools.ietf.org/html/rfc3339")

	return schema.NewSchema("").SetQueryType("Query").
		AddType(query).AddType(user).AddType(post).AddType(node).
		AddType(search).AddType(role).AddType(filter).AddType(date)
}

func TestBuild(t *testing.T) {
	got, err := Build(context.Background(), Roots{Query: MustObject(queryType{})})
	require.NoError(t, err)

	if diff := cmp.Diff(expectedSchema(), got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
	require.Same(t, schema.BuiltinScalar("ID"), got.Type("ID"))
	require.Equal(t, int32(1), userDefinitions.Load(), "User is referenced many times but defined once")

	t.Run("renders as SDL", func(t *testing.T) {
		again, err := schema.BuildFromSDL(schema.Render(got))
		require.NoError(t, err)
		if diff := cmp.Diff(got, again); diff != "" {
			t.Fatalf("schema mismatch after render (-want +got):\n%s", diff)
		}
	})

	t.Run("rebuild is stable", func(t *testing.T) {
		again, err := Build(context.Background(), Roots{Query: MustObject(queryType{})})
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(got, again))
		require.Equal(t, int32(1), userDefinitions.Load())
	})
}

type mutationType struct{}

func (mutationType) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{Name: "Mutation", Fields: []*FieldDefinition{{Name: "touch", Type: Builtin("Boolean")}}}, nil
}

type orphanType struct{}

func (orphanType) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{
		Name:       "Orphan",
		Interfaces: []*TypeExpr{MustInterface(nodeType{})},
		Fields:     []*FieldDefinition{{Name: "id", Type: NonNull(Builtin("ID"))}},
	}, nil
}

func TestBuild_RootsAndExtraTypes(t *testing.T) {
	s, err := Build(context.Background(),
		Roots{Query: MustObject(queryType{}), Mutation: MustObject(mutationType{})},
		MustObject(orphanType{}),
	)
	require.NoError(t, err)
	require.Equal(t, "Mutation", s.MutationType)
	require.Empty(t, s.SubscriptionType)
	require.Equal(t, []string{"Orphan", "Post", "User"}, s.Type("Node").PossibleTypes)
}

type dupA struct{}
type dupB struct{}
type dupQuery struct{}

func (dupA) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{Name: "Dup", Fields: []*FieldDefinition{{Name: "a", Type: Builtin("Int")}}}, nil
}

func (dupB) Definition(context.Context) (*EnumDefinition, error) {
	return &EnumDefinition{Name: "Dup", Values: []*EnumValueDefinition{{Name: "X"}}}, nil
}

func (dupQuery) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{Name: "Query", Fields: []*FieldDefinition{
		{Name: "a", Type: MustObject(dupA{})},
		{Name: "b", Type: MustEnum(dupB{})},
	}}, nil
}

type brokenType struct{}

var errBroken = errors.New("broken")

func (brokenType) Definition(context.Context) (*ObjectDefinition, error) { return nil, errBroken }

type inputAsOutput struct{}

func (inputAsOutput) Definition(context.Context) (*ObjectDefinition, error) {
	return &ObjectDefinition{Name: "Query", Fields: []*FieldDefinition{{Name: "f", Type: MustInputObject(postFilterType{})}}}, nil
}

type shadowString struct{}

func (shadowString) Definition(context.Context) (*ScalarDefinition, error) {
	return &ScalarDefinition{Name: "String"}, nil
}

type nonComparable []int

func (nonComparable) Definition(context.Context) (*ObjectDefinition, error) { return nil, nil }

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("query root is required", func(t *testing.T) {
		_, err := Build(ctx, Roots{})
		require.ErrorContains(t, err, "query root type is required")
	})

	t.Run("root must be an object", func(t *testing.T) {
		_, err := Build(ctx, Roots{Query: MustEnum(roleType{})})
		require.ErrorContains(t, err, "must be an object type")
	})

	t.Run("duplicate type name", func(t *testing.T) {
		_, err := Build(ctx, Roots{Query: MustObject(dupQuery{})})
		require.ErrorContains(t, err, `type name "Dup" is declared more than once`)
	})

	t.Run("built-in name cannot be redeclared", func(t *testing.T) {
		_, err := Build(ctx, Roots{Query: MustObject(queryType{})}, MustScalar(shadowString{}))
		require.ErrorContains(t, err, `type name "String"`)
	})

	t.Run("provider failure", func(t *testing.T) {
		_, err := Build(ctx, Roots{Query: MustObject(brokenType{})})
		require.ErrorIs(t, err, errBroken)
	})

	t.Run("input type as field type", func(t *testing.T) {
		_, err := Build(ctx, Roots{Query: MustObject(inputAsOutput{})})
		require.ErrorContains(t, err, "input type PostFilter cannot be used as a field type")
	})
}

func TestReferences(t *testing.T) {
	t.Run("handle of the wrong kind", func(t *testing.T) {
		_, err := Object(roleType{})
		var mismatch *definition.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		require.Contains(t, mismatch.Handle, "roleType")
		require.Panics(t, func() { MustObject(roleType{}) })
	})

	t.Run("handle that cannot be shared", func(t *testing.T) {
		_, err := Object(nonComparable{1})
		require.ErrorIs(t, err, definition.ErrHandleNotComparable)
	})

	t.Run("same handle shares the definition", func(t *testing.T) {
		a, b := MustObject(userType{}), MustObject(userType{})
		da, err := a.named.resolve(context.Background())
		require.NoError(t, err)
		db, err := b.named.resolve(context.Background())
		require.NoError(t, err)
		require.Same(t, da, db)
	})

	t.Run("unknown built-in", func(t *testing.T) {
		require.Panics(t, func() { Builtin("Date") })
	})

	t.Run("non-null is idempotent", func(t *testing.T) {
		e := NonNull(Builtin("Int"))
		require.Same(t, e, NonNull(e))
	})
}
