package doctor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/nodegen/internal/codegen"
	_ "github.com/pthm/nodegen/internal/codegen/golang"
	_ "github.com/pthm/nodegen/internal/codegen/manifest"
	"github.com/pthm/nodegen/pkg/descriptor"
	"github.com/pthm/nodegen/pkg/schema"
)

const sqltreeProto = `syntax = "proto3";
package sqltree;

message Node {
  oneof node {
    SelectStmt select_stmt = 1;
    A_Const a_const = 2;
  }
  int32 location = 3;
}

message SelectStmt {
  Node where_clause = 1;
}

message A_Const {
  int32 ival = 1;
}
`

type fixture struct {
	dir    string
	schema string
	out    string
}

// newFixture writes the schema and generates the committed files from it.
func newFixture(t *testing.T, target string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, schema: filepath.Join(dir, "sqltree.proto"), out: filepath.Join(dir, "gen")}
	require.NoError(t, os.WriteFile(f.schema, []byte(sqltreeProto), 0o644))
	require.NoError(t, os.Mkdir(f.out, 0o755))

	catalog, err := descriptor.Load(context.Background(), f.schema)
	require.NoError(t, err)
	an, err := schema.Analyze(catalog, "Node")
	require.NoError(t, err)
	files, err := codegen.Get(target).Generate(an, &codegen.Config{Version: "v1.0.0"})
	require.NoError(t, err)
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(f.out, name), src, 0o644))
	}
	return f
}

func (f fixture) run(t *testing.T, target, version string) *Report {
	t.Helper()
	d := New(Options{
		Schema: f.schema,
		Root:   "Node",
		Target: target,
		Output: f.out,
		Config: &codegen.Config{Version: version},
	})
	report, err := d.Run(context.Background())
	require.NoError(t, err)
	return report
}

func findCheck(t *testing.T, r *Report, name string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %+v", name, r.Checks)
	return CheckResult{}
}

func TestRun_UpToDate(t *testing.T) {
	f := newFixture(t, "go")
	report := f.run(t, "go", "v1.0.0")

	assert.False(t, report.HasErrors())
	assert.Equal(t, StatusPass, findCheck(t, report, "structs_gen.go").Status)
	assert.Equal(t, StatusPass, findCheck(t, report, "nodes_gen.go").Status)
	assert.Equal(t, StatusPass, findCheck(t, report, "codec_gen.go").Status)

	skipped := findCheck(t, report, "skipped")
	assert.Equal(t, StatusWarn, skipped.Status)
	assert.Contains(t, skipped.Details, "sqltree.Node.location")
}

func TestRun_SchemaChanged(t *testing.T) {
	f := newFixture(t, "go")
	changed := strings.Replace(sqltreeProto, "int32 ival = 1;", "int32 ival = 1;\n  string sval = 2;", 1)
	require.NoError(t, os.WriteFile(f.schema, []byte(changed), 0o644))

	report := f.run(t, "go", "v1.0.0")

	assert.True(t, report.HasErrors())
	check := findCheck(t, report, "structs_gen.go")
	assert.Equal(t, StatusFail, check.Status)
	assert.Contains(t, check.Message, "different schema")
}

func TestRun_VersionChanged(t *testing.T) {
	f := newFixture(t, "go")
	report := f.run(t, "go", "v1.1.0")

	assert.False(t, report.HasErrors())
	check := findCheck(t, report, "nodes_gen.go")
	assert.Equal(t, StatusWarn, check.Status)
	assert.Contains(t, check.Details, "File: v1.0.0, current: v1.1.0")
}

func TestRun_VersionChangedAndEdited(t *testing.T) {
	f := newFixture(t, "go")
	path := filepath.Join(f.out, "nodes_gen.go")
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(src), `return "SelectStmt"`, `return "Select"`, 1)
	require.NotEqual(t, string(src), edited)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	report := f.run(t, "go", "v1.1.0")

	assert.True(t, report.HasErrors())
	check := findCheck(t, report, "nodes_gen.go")
	assert.Equal(t, StatusFail, check.Status)
	assert.Contains(t, check.Message, "modified after generation")
	assert.Equal(t, StatusWarn, findCheck(t, report, "structs_gen.go").Status)
}

func TestRun_EditedByHand(t *testing.T) {
	f := newFixture(t, "go")
	path := filepath.Join(f.out, "nodes_gen.go")
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(src, []byte("\n// local tweak\n")...), 0o644))

	report := f.run(t, "go", "v1.0.0")

	check := findCheck(t, report, "nodes_gen.go")
	assert.Equal(t, StatusFail, check.Status)
	assert.Contains(t, check.Message, "modified after generation")
}

func TestRun_MissingFile(t *testing.T) {
	f := newFixture(t, "go")
	require.NoError(t, os.Remove(filepath.Join(f.out, "structs_gen.go")))

	report := f.run(t, "go", "v1.0.0")

	check := findCheck(t, report, "structs_gen.go")
	assert.Equal(t, StatusFail, check.Status)
	assert.Contains(t, check.Message, "is missing")
	assert.Equal(t, StatusPass, findCheck(t, report, "nodes_gen.go").Status)
}

func TestRun_Manifest(t *testing.T) {
	f := newFixture(t, "manifest")

	assert.False(t, f.run(t, "manifest", "v1.0.0").HasErrors())
	assert.Equal(t, StatusWarn, findCheck(t, f.run(t, "manifest", "v2.0.0"), "nodes.yaml").Status)
}

func TestRun_SchemaErrors(t *testing.T) {
	t.Run("unparseable schema", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.proto")
		require.NoError(t, os.WriteFile(path, []byte("message {"), 0o644))

		report, err := New(Options{Schema: path, Root: "Node", Output: dir}).Run(context.Background())
		require.NoError(t, err)
		assert.True(t, report.HasErrors())
		assert.Equal(t, StatusFail, findCheck(t, report, "loaded").Status)
		assert.Len(t, report.Checks, 1, "later checks depend on the schema")
	})

	t.Run("missing root", func(t *testing.T) {
		f := newFixture(t, "go")
		report, err := New(Options{Schema: f.schema, Root: "Stmt", Output: f.out}).Run(context.Background())
		require.NoError(t, err)
		check := findCheck(t, report, "analyzed")
		assert.Equal(t, StatusFail, check.Status)
		assert.Contains(t, check.Details, "root message not found")
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t, "go")
		report := f.run(t, "rust", "v1.0.0")
		assert.Equal(t, StatusFail, findCheck(t, report, "target").Status)
	})
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Stamp
	}{
		{
			name: "go header",
			src:  "// Code generated by nodegen v0.3.1. DO NOT EDIT.\n// Source: a.proto\n// Schema fingerprint: blake3:00ff\n\npackage a\n",
			want: Stamp{Version: "v0.3.1", Fingerprint: "00ff"},
		},
		{
			name: "manifest",
			src:  "fingerprint: blake3:abc123\ngenerator: nodegen dev\nroot: sqltree.Node\n",
			want: Stamp{Version: "dev", Fingerprint: "abc123"},
		},
		{
			name: "quoted manifest values",
			src:  "fingerprint: \"blake3:abc123\"\ngenerator: \"nodegen v1.0.0\"\n",
			want: Stamp{Version: "v1.0.0", Fingerprint: "abc123"},
		},
		{
			name: "hand written file",
			src:  "package a\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStamp([]byte(tt.src)))
		})
	}
}

func TestReport_Print(t *testing.T) {
	r := &Report{}
	r.AddCheck(CheckResult{Category: "Schema", Name: "loaded", Status: StatusPass, Message: "Schema loaded"})
	r.AddCheck(CheckResult{
		Category: "Generated Code",
		Name:     "nodes_gen.go",
		Status:   StatusFail,
		Message:  "nodes_gen.go was generated from a different schema",
		Details:  "line one\nline two",
		FixHint:  "Run 'nodegen generate' to regenerate",
	})

	var quiet, verbose bytes.Buffer
	r.Print(&quiet, false)
	r.Print(&verbose, true)

	assert.Contains(t, quiet.String(), "  ✓ Schema loaded\n")
	assert.Contains(t, quiet.String(), "      Fix: Run 'nodegen generate' to regenerate\n")
	assert.NotContains(t, quiet.String(), "line one")
	assert.Contains(t, verbose.String(), "      line one\n      line two\n")
	assert.Contains(t, verbose.String(), "Summary: 1 passed, 0 warnings, 1 errors\n")
}
