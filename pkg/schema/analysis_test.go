package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/nodegen/pkg/schema"
)

func TestAnalyze_Scenario(t *testing.T) {
	an, err := schema.Analyze(scenarioCatalog(t), "Root")
	require.NoError(t, err)

	assert.Equal(t, "Root", an.RootIdent)
	require.Len(t, an.Messages, 3, "root is not rendered as a payload struct")

	var names []string
	for _, m := range an.Messages {
		names = append(names, m.Ident)
	}
	assert.Equal(t, []string{"SelectStmt", "InsertStmt", "Expr"}, names)

	assert.NotNil(t, an.Messages[0].Variant, "SelectStmt is a payload")
	assert.Nil(t, an.Messages[2].Variant, "Expr is not a payload")

	boxed := an.BoxedFields()
	require.Len(t, boxed, 2)
	assert.Equal(t, schema.BoxedField{
		Message: fq("Expr"),
		Field:   "left",
		Target:  fq("Expr"),
		Cycle:   []string{fq("Expr"), fq("Expr")},
	}, boxed[0])
	assert.Equal(t, "right", boxed[1].Field)

	assert.Equal(t, []string{fq("Expr")}, an.RecursiveMessages())
}

func TestAnalyze_UnionFields(t *testing.T) {
	c := catalog(t,
		msg("Node", ref("select_stmt", "SelectStmt", 1), ref("list", "List", 2)),
		msg("SelectStmt", ref("where_clause", "Node", 1), list("target_list", "Node", 2)),
		msg("List", list("items", "Node", 1)),
	)
	an, err := schema.Analyze(c, "Node")
	require.NoError(t, err)

	sel := an.Messages[0]
	assert.True(t, sel.Fields[0].Union)
	assert.True(t, sel.Fields[0].Boxed, "SelectStmt -> Node -> SelectStmt")
	assert.Equal(t, "Node", sel.Fields[0].TargetIdent)
	assert.True(t, sel.Fields[1].Union)
	assert.False(t, sel.Fields[1].Boxed)

	boxed := an.BoxedFields()
	require.Len(t, boxed, 2)
	assert.Equal(t, []string{fq("Node"), fq("SelectStmt"), fq("Node")}, boxed[0].Cycle, "variant arm first")
	assert.Equal(t, []string{fq("SelectStmt"), fq("Node"), fq("SelectStmt")}, boxed[1].Cycle)
}

func TestAnalyze_SkipsNonVariantRootFields(t *testing.T) {
	c := catalog(t,
		msg("Node", scalar("location", schema.KindInt32, 1), ref("expr", "Expr", 2)),
		msg("Expr"),
	)
	an, err := schema.Analyze(c, "Node")
	require.NoError(t, err)

	require.Len(t, an.Variants, 1)
	assert.Equal(t, []string{"sqltree.Node.location: singular int32"}, an.Skipped)
}

func TestAnalyze_Enums(t *testing.T) {
	c, err := schema.NewCatalog(pkg,
		[]schema.Message{
			msg("Node", ref("set_op", "SetOp", 1)),
			msg("SetOp", schema.Field{Name: "op", Number: 1, Type: schema.FieldType{Kind: schema.KindEnum, Ref: fq("SetOperation")}}),
		},
		[]schema.Enum{{
			Name: fq("SetOperation"),
			Values: []schema.EnumValue{
				{Name: "SET_OPERATION_UNDEFINED", Number: 0},
				{Name: "SETOP_UNION", Number: 1},
				{Name: "SETOP_UNION_ALIAS", Number: 1},
			},
		}},
	)
	require.NoError(t, err)

	an, err := schema.Analyze(c, "Node")
	require.NoError(t, err)
	require.Len(t, an.Enums, 1)

	e := an.Enums[0]
	assert.Equal(t, "SetOperation", e.Ident)
	assert.Equal(t, "SetOperation_SETOP_UNION", e.Values[1].Ident)
	assert.False(t, e.Values[1].Alias)
	assert.True(t, e.Values[2].Alias)
	assert.Equal(t, "SetOperation", an.Messages[0].Fields[0].TargetIdent)
}

func TestAnalyze_NameCollisions(t *testing.T) {
	tests := []struct {
		name string
		msgs []schema.Message
	}{
		{
			name: "messages normalize to the same identifier",
			msgs: []schema.Message{
				msg("Node", ref("a", "A_Expr", 1)),
				msg("A_Expr"),
				msg("AExpr"),
			},
		},
		{
			name: "message clashes with an arm",
			msgs: []schema.Message{
				msg("Node", ref("expr", "Expr", 1)),
				msg("Expr"),
				msg("NodeExpr"),
			},
		},
		{
			name: "message clashes with a view",
			msgs: []schema.Message{
				msg("Node", ref("expr", "Expr", 1)),
				msg("Expr"),
				msg("NodeRef"),
			},
		},
		{
			name: "message clashes with the codec",
			msgs: []schema.Message{
				msg("Node", ref("expr", "Expr", 1)),
				msg("Expr"),
				msg("NodeCodec"),
			},
		},
		{
			name: "field clashes with a generated method",
			msgs: []schema.Message{
				msg("Node", ref("expr", "Expr", 1)),
				msg("Expr", scalar("clone", schema.KindBool, 1)),
			},
		},
		{
			name: "variant tag clashes with an accessor method",
			msgs: []schema.Message{
				msg("Node", ref("kind", "Expr", 1)),
				msg("Expr"),
			},
		},
		{
			name: "fields normalize to the same identifier",
			msgs: []schema.Message{
				msg("Node", ref("expr", "Expr", 1)),
				msg("Expr", scalar("foo_bar", schema.KindBool, 1), scalar("fooBar", schema.KindBool, 2)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Analyze(catalog(t, tt.msgs...), "Node")
			require.Error(t, err)
			assert.True(t, schema.IsNameCollisionErr(err), "got %v", err)
		})
	}
}

func TestAnalyze_RootAsOwnPayload(t *testing.T) {
	c := catalog(t, msg("Node", ref("inner", "Node", 1)))
	_, err := schema.Analyze(c, "Node")
	require.Error(t, err)
	assert.True(t, schema.IsInvalidSchemaErr(err))
}

func TestAnalyze_Idempotent(t *testing.T) {
	first, err := schema.Analyze(scenarioCatalog(t), "Root")
	require.NoError(t, err)
	second, err := schema.Analyze(scenarioCatalog(t), "Root")
	require.NoError(t, err)

	assert.Equal(t, first.Variants, second.Variants)
	assert.Equal(t, first.Messages, second.Messages)
	assert.Equal(t, first.BoxedFields(), second.BoxedFields())
}
