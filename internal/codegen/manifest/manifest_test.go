package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/pthm/nodegen/internal/codegen"
	"github.com/pthm/nodegen/internal/codegen/manifest"
	"github.com/pthm/nodegen/pkg/schema"
)

func analysis(t *testing.T) *schema.Analysis {
	t.Helper()
	ref := func(name, target string, n int32) schema.Field {
		return schema.Field{Name: name, Number: n, Type: schema.FieldType{Kind: schema.KindMessage, Ref: "sqltree." + target}}
	}
	c, err := schema.NewCatalog("sqltree", []schema.Message{
		{Name: "sqltree.Node", Fields: []schema.Field{ref("select_stmt", "SelectStmt", 1), ref("a_const", "A_Const", 2)}},
		{Name: "sqltree.SelectStmt", Fields: []schema.Field{ref("where_clause", "Node", 1), ref("larg", "SelectStmt", 2)}},
		{Name: "sqltree.A_Const", Fields: []schema.Field{{Name: "ival", Number: 1, Type: schema.FieldType{Kind: schema.KindInt32}}}},
	}, nil)
	require.NoError(t, err)
	an, err := schema.Analyze(c, "Node")
	require.NoError(t, err)
	return an
}

func TestGenerate(t *testing.T) {
	gen := codegen.Get("manifest")
	require.NotNil(t, gen, "manifest registers itself")

	files, err := gen.Generate(analysis(t), &codegen.Config{Version: "v1.2.3", Source: "proto/sqltree.proto"})
	require.NoError(t, err)
	require.Contains(t, files, manifest.File)

	var got manifest.Manifest
	require.NoError(t, yaml.Unmarshal(files[manifest.File], &got))

	assert.Equal(t, "nodegen v1.2.3", got.Generator)
	assert.Equal(t, "proto/sqltree.proto", got.Source)
	assert.Equal(t, "sqltree.Node", got.Root)
	assert.Equal(t, []manifest.Variant{
		{Tag: "SelectStmt", Field: "select_stmt", Number: 1, Payload: "sqltree.SelectStmt", Boxed: true},
		{Tag: "AConst", Field: "a_const", Number: 2, Payload: "sqltree.A_Const", Boxed: false},
	}, got.Variants)

	require.Len(t, got.BoxedFields, 3)
	assert.Equal(t, manifest.BoxedField{
		Message: "sqltree.SelectStmt",
		Field:   "larg",
		Target:  "sqltree.SelectStmt",
		Cycle:   []string{"sqltree.SelectStmt", "sqltree.SelectStmt"},
	}, got.BoxedFields[2])
	assert.Equal(t, []string{"sqltree.Node", "sqltree.SelectStmt"}, got.Recursive)
	assert.Contains(t, got.Fingerprint, "blake3:")

	assert.Equal(t, []manifest.MessageStat{
		{Name: "sqltree.SelectStmt", Ident: "SelectStmt", Fields: 2, Boxed: 1},
		{Name: "sqltree.A_Const", Ident: "AConst", Fields: 1},
	}, got.Messages, "where_clause is a union field, not a pointer")
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := &manifest.Generator{}
	first, err := gen.Generate(analysis(t), nil)
	require.NoError(t, err)
	second, err := gen.Generate(analysis(t), nil)
	require.NoError(t, err)
	assert.Equal(t, string(first[manifest.File]), string(second[manifest.File]))
}
