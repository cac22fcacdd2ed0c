// Package codegen is the programmatic entry point to nodegen's generators.
//
// Build tooling that already holds a schema (from pkg/descriptor or built by
// hand) can analyze and generate without the CLI:
//
//	catalog, _ := descriptor.LoadProto(ctx, "proto/sqltree.proto", "proto")
//	an, _ := schema.Analyze(catalog, "Node")
//	files, _ := codegen.Generate("go", an, &codegen.Config{Package: "sqltree"})
//	for name, src := range files {
//	    os.WriteFile(filepath.Join("internal/sqltree", name), src, 0o644)
//	}
//
// The generated files should be committed to version control; `nodegen
// check` reports when they drift from the schema.
package codegen

import (
	"fmt"
	"io"

	"github.com/pthm/nodegen/internal/codegen"
	gogen "github.com/pthm/nodegen/internal/codegen/golang"
	_ "github.com/pthm/nodegen/internal/codegen/manifest"
	"github.com/pthm/nodegen/pkg/schema"
)

// Config is an alias for the generator configuration.
type Config = codegen.Config

// Analysis is an alias for schema.Analysis.
type Analysis = schema.Analysis

// ListTargets lists the registered generator names.
func ListTargets() []string {
	return codegen.List()
}

// DefaultConfig returns the defaults of the named target, or nil if the
// target is unknown.
func DefaultConfig(target string) *Config {
	g := codegen.Get(target)
	if g == nil {
		return nil
	}
	return g.DefaultConfig()
}

// Generate runs the named target and returns its files keyed by relative
// path. Output depends only on the analysis and cfg.
func Generate(target string, an *Analysis, cfg *Config) (map[string][]byte, error) {
	g := codegen.Get(target)
	if g == nil {
		return nil, fmt.Errorf("unknown target %q (available: %v)", target, codegen.List())
	}
	return g.Generate(an, cfg)
}

// GenerateGo writes the Go representation of an analysis to w as a single
// file: payload structs, enums, the owned, borrowed and exclusive forms of
// the union with their conversions, and the wire codec.
//
// Typical workflow (run via go:generate or a build script):
//
//	//go:generate go run ./internal/tools/gennodes
//
//	f, _ := os.Create("internal/sqltree/nodes_gen.go")
//	defer f.Close()
//	codegen.GenerateGo(f, an, &codegen.Config{Package: "sqltree"})
func GenerateGo(w io.Writer, an *Analysis, cfg *Config) error {
	single := Config{}
	if cfg != nil {
		single = *cfg
	}
	opts := make(map[string]any, len(single.Options)+1)
	for k, v := range single.Options {
		opts[k] = v
	}
	opts["single_file"] = true
	single.Options = opts

	files, err := codegen.Get("go").Generate(an, &single)
	if err != nil {
		return err
	}
	_, err = w.Write(files[gogen.NodesFile])
	return err
}
