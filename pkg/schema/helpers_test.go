package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm/nodegen/pkg/schema"
)

const pkg = "sqltree"

func fq(name string) string { return pkg + "." + name }

// ref is a singular message field.
func ref(name, target string, number int32) schema.Field {
	return schema.Field{
		Name:   name,
		Number: number,
		Type:   schema.FieldType{Kind: schema.KindMessage, Ref: fq(target)},
	}
}

// list is a repeated message field.
func list(name, target string, number int32) schema.Field {
	f := ref(name, target, number)
	f.Repetition = schema.Repeated
	return f
}

func scalar(name string, kind schema.Kind, number int32) schema.Field {
	return schema.Field{Name: name, Number: number, Type: schema.FieldType{Kind: kind}}
}

func msg(name string, fields ...schema.Field) schema.Message {
	return schema.Message{Name: fq(name), Fields: fields}
}

func catalog(t *testing.T, msgs ...schema.Message) *schema.Catalog {
	t.Helper()
	c, err := schema.NewCatalog(pkg, msgs, nil)
	require.NoError(t, err)
	return c
}

// scenarioCatalog is Root{select, insert}, SelectStmt{where_clause: Expr},
// Expr{left, right: Expr}.
func scenarioCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	return catalog(t,
		msg("Root",
			ref("select", "SelectStmt", 1),
			ref("insert", "InsertStmt", 2),
		),
		msg("SelectStmt", ref("where_clause", "Expr", 1)),
		msg("InsertStmt", scalar("relname", schema.KindString, 1)),
		msg("Expr",
			ref("left", "Expr", 1),
			ref("right", "Expr", 2),
		),
	)
}
