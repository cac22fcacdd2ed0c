package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/nodegen/pkg/schema"
)

func newAnalyzer(t *testing.T, c *schema.Catalog) *schema.Analyzer {
	t.Helper()
	g, err := schema.BuildGraph(c)
	require.NoError(t, err)
	return schema.NewAnalyzer(g)
}

func TestMustIndirect_SelfIsReachable(t *testing.T) {
	a := newAnalyzer(t, catalog(t, msg("Leaf", scalar("x", schema.KindInt32, 1))))

	assert.True(t, a.MustIndirect(fq("Leaf"), fq("Leaf")), "a message always reaches itself")
}

func TestMustIndirect_Scenario(t *testing.T) {
	c := scenarioCatalog(t)
	a := newAnalyzer(t, c)

	expr, _ := c.Message(fq("Expr"))
	for _, f := range expr.Fields {
		assert.True(t, a.FieldBoxed(expr.Name, f), "Expr.%s references Expr and must box", f.Name)
	}

	sel, _ := c.Message(fq("SelectStmt"))
	assert.False(t, a.FieldBoxed(sel.Name, sel.Fields[0]),
		"SelectStmt.where_clause stays inline: Expr never reaches SelectStmt")
}

func TestMustIndirect_MutualCycle(t *testing.T) {
	c := catalog(t,
		msg("A", ref("b", "B", 1)),
		msg("B", ref("a", "A", 1)),
	)
	a := newAnalyzer(t, c)

	ma, _ := c.Message(fq("A"))
	mb, _ := c.Message(fq("B"))
	assert.True(t, a.FieldBoxed(ma.Name, ma.Fields[0]), "A.b reaches back to A through B")
	assert.True(t, a.FieldBoxed(mb.Name, mb.Fields[0]), "B.a reaches back to B through A")
}

func TestMustIndirect_AcyclicNeverBoxes(t *testing.T) {
	c := catalog(t,
		msg("A", ref("b", "B", 1), ref("c", "C", 2)),
		msg("B", ref("c", "C", 1), ref("d", "D", 2)),
		msg("C", ref("d", "D", 1)),
		msg("D", scalar("v", schema.KindString, 1)),
	)
	a := newAnalyzer(t, c)

	for _, m := range c.Messages {
		for _, f := range m.Fields {
			assert.False(t, a.FieldBoxed(m.Name, f), "%s.%s should not box in an acyclic schema", m.Name, f.Name)
		}
	}
}

func TestMustIndirect_RepeatedBreaksCycles(t *testing.T) {
	c := catalog(t,
		msg("Tree", list("children", "Tree", 1), ref("meta", "Meta", 2)),
		msg("Meta", list("owners", "Tree", 1)),
	)
	a := newAnalyzer(t, c)

	tree, _ := c.Message(fq("Tree"))
	assert.False(t, a.FieldBoxed(tree.Name, tree.Fields[0]), "repeated fields never box")
	assert.False(t, a.FieldBoxed(tree.Name, tree.Fields[1]), "Meta only reaches Tree through a repeated field")
	assert.Empty(t, a.Graph().Edges(fq("Meta")))
}

func TestMustIndirect_UnrelatedCycleTerminates(t *testing.T) {
	c := catalog(t,
		msg("Start", ref("loop", "Loop1", 1)),
		msg("Loop1", ref("next", "Loop2", 1)),
		msg("Loop2", ref("next", "Loop1", 1)),
		msg("Target", scalar("x", schema.KindBool, 1)),
	)
	a := newAnalyzer(t, c)

	assert.False(t, a.MustIndirect(fq("Start"), fq("Target")))
	assert.True(t, a.MustIndirect(fq("Start"), fq("Loop2")))
}

// MustIndirect(T, M) must agree with the path definition for every pair, and
// with the memoized ancestor closure.
func TestMustIndirect_MatchesClosure(t *testing.T) {
	c := catalog(t,
		msg("Root", ref("a", "A", 1), ref("e", "E", 2)),
		msg("A", ref("b", "B", 1)),
		msg("B", ref("c", "C", 1), list("as", "A", 2)),
		msg("C", ref("a", "A", 1)),
		msg("E", ref("e", "E", 1), ref("root", "Root", 2)),
	)
	a := newAnalyzer(t, c)
	nodes := a.Graph().Nodes()

	for _, from := range nodes {
		for _, to := range nodes {
			_, inClosure := a.Ancestors(to)[from]
			assert.Equal(t, inClosure, a.MustIndirect(from, to), "%s -> %s", from, to)

			path := a.Path(from, to)
			if !inClosure {
				assert.Nil(t, path)
				continue
			}
			require.NotEmpty(t, path)
			assert.Equal(t, from, path[0])
			assert.Equal(t, to, path[len(path)-1])
			for i := 0; i+1 < len(path); i++ {
				assert.Contains(t, a.Graph().Edges(path[i]), path[i+1], "path step %s -> %s", path[i], path[i+1])
			}
		}
	}
}

func TestAncestors_ShortestPath(t *testing.T) {
	c := catalog(t,
		msg("A", ref("long", "B", 1), ref("short", "D", 2)),
		msg("B", ref("c", "C", 1)),
		msg("C", ref("d", "D", 1)),
		msg("D", scalar("x", schema.KindInt64, 1)),
	)
	a := newAnalyzer(t, c)

	assert.Equal(t, []string{fq("A"), fq("D")}, a.Path(fq("A"), fq("D")))
	assert.Equal(t, []string{fq("D")}, a.Path(fq("D"), fq("D")))
}
