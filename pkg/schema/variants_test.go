package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/nodegen/pkg/schema"
)

func TestExtractVariants_Scenario(t *testing.T) {
	c := scenarioCatalog(t)
	variants, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Root")
	require.NoError(t, err)

	assert.Equal(t, []schema.Variant{
		{Tag: "Select", Field: "select", Number: 1, Payload: fq("SelectStmt"), PayloadIdent: "SelectStmt"},
		{Tag: "Insert", Field: "insert", Number: 2, Payload: fq("InsertStmt"), PayloadIdent: "InsertStmt"},
	}, variants)
}

func TestExtractVariants_DeclarationOrderNotNumberOrder(t *testing.T) {
	c := catalog(t,
		msg("Node",
			ref("zeta", "Zeta", 9),
			ref("alpha", "Alpha", 1),
			ref("mid", "Mid", 4),
		),
		msg("Zeta"), msg("Alpha"), msg("Mid"),
	)
	variants, err := schema.ExtractVariants(c, newAnalyzer(t, c), fq("Node"))
	require.NoError(t, err)

	var tags []string
	for _, v := range variants {
		tags = append(tags, v.Tag)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, tags)
}

func TestExtractVariants_Deterministic(t *testing.T) {
	c := scenarioCatalog(t)
	first, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Root")
	require.NoError(t, err)

	for range 5 {
		again, err := schema.ExtractVariants(scenarioCatalog(t), newAnalyzer(t, c), "Root")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtractVariants_BoxedWhenPayloadReachesRoot(t *testing.T) {
	c := catalog(t,
		msg("Node",
			ref("select_stmt", "SelectStmt", 1),
			ref("a_const", "A_Const", 2),
		),
		msg("SelectStmt", ref("where_clause", "Node", 1)),
		msg("A_Const", scalar("ival", schema.KindInt32, 1)),
	)
	variants, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Node")
	require.NoError(t, err)
	require.Len(t, variants, 2)

	assert.Equal(t, "SelectStmt", variants[0].Tag)
	assert.True(t, variants[0].Boxed, "SelectStmt contains Node")
	assert.Equal(t, "AConst", variants[1].Tag)
	assert.Equal(t, "AConst", variants[1].PayloadIdent)
	assert.False(t, variants[1].Boxed)
}

func TestExtractVariants_SelfRecursivePayloadIsBoxedInside(t *testing.T) {
	c := catalog(t,
		msg("Node", ref("expr", "Expr", 1)),
		msg("Expr", ref("arg", "Expr", 1)),
	)
	an, err := schema.Analyze(c, "Node")
	require.NoError(t, err)

	assert.False(t, an.Variants[0].Boxed, "Expr does not reach Node")
	require.Len(t, an.Messages, 1)
	assert.True(t, an.Messages[0].Fields[0].Boxed, "Expr.arg is purely self-recursive")
}

func TestExtractVariants_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		c := scenarioCatalog(t)
		_, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Nope")
		require.Error(t, err)
		assert.True(t, schema.IsMissingRootErr(err))
	})

	t.Run("no message fields", func(t *testing.T) {
		c := catalog(t, msg("Node", scalar("x", schema.KindInt32, 1), list("items", "Node", 2)))
		_, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Node")
		require.Error(t, err)
		assert.True(t, schema.IsNoVariantsErr(err))
	})

	t.Run("duplicate payload", func(t *testing.T) {
		c := catalog(t,
			msg("Node", ref("first", "Expr", 1), ref("second", "Expr", 2)),
			msg("Expr"),
		)
		_, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Node")
		require.Error(t, err)
		assert.True(t, schema.IsDuplicatePayloadErr(err))
		assert.Contains(t, err.Error(), "first")
		assert.Contains(t, err.Error(), "second")
	})

	t.Run("tag collision", func(t *testing.T) {
		c := catalog(t,
			msg("Node", ref("foo_bar", "A", 1), ref("fooBar", "B", 2)),
			msg("A"), msg("B"),
		)
		_, err := schema.ExtractVariants(c, newAnalyzer(t, c), "Node")
		require.Error(t, err)
		assert.True(t, schema.IsNameCollisionErr(err))
	})
}
