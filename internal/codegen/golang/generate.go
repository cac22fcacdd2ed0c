// Package gogen implements the Go code generator.
//
// For a root message Node the generator writes three files: structs_gen.go
// with one struct per non-root message and one named type per enum,
// nodes_gen.go with the three representations of the union (the owned Node
// interface, the borrowed NodeRef view and the exclusive NodeMut accessor)
// plus the conversions between them, and codec_gen.go with NodeCodec, which
// decodes and encodes serialized parse results in the protobuf wire format.
//
// Supported options (Config.Options):
//   - "single_file" (bool): write everything to nodes_gen.go.
package gogen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"go/token"
	"text/template"

	"github.com/pthm/nodegen/internal/codegen"
	"github.com/pthm/nodegen/pkg/schema"
)

// Output file names.
const (
	StructsFile = "structs_gen.go"
	NodesFile   = "nodes_gen.go"
	CodecFile   = "codec_gen.go"
)

//go:embed templates/*.go.tmpl
var templatesFS embed.FS

// templates holds the parsed Go templates.
var templates *template.Template

func init() {
	var err error
	templates, err = template.ParseFS(templatesFS, "templates/*.go.tmpl")
	if err != nil {
		panic(fmt.Sprintf("failed to parse Go templates: %v", err))
	}
	codegen.Register(&Generator{})
}

// Generator implements codegen.Generator for Go.
type Generator struct{}

// Name returns "go" as the target identifier.
func (g *Generator) Name() string { return "go" }

// DefaultConfig returns default configuration for Go code generation.
func (g *Generator) DefaultConfig() *codegen.Config {
	return &codegen.Config{
		RuntimeImport: codegen.DefaultRuntimeImport,
		Version:       "dev",
		Options:       make(map[string]any),
	}
}

// Generate renders the Go files for an analysis. Output is gofmt-formatted
// and depends only on the analysis and cfg, so regenerating an unchanged
// schema is byte-identical.
func (g *Generator) Generate(an *schema.Analysis, cfg *codegen.Config) (map[string][]byte, error) {
	cfg = codegen.Resolve(cfg, g.DefaultConfig())

	pkg := cfg.Package
	if pkg == "" {
		pkg = packageName(an.Catalog.Package)
	}
	if !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
		return nil, fmt.Errorf("%w: package name %q", schema.ErrInvalidName, pkg)
	}

	b := newBuilder(an)
	base := fileData{
		Version:     cfg.Version,
		Source:      cfg.Source,
		Fingerprint: codegen.Fingerprint(an),
		Package:     pkg,
		Root:        b.root,
		Variants:    b.variants(),
		Enums:       b.enums(),
		Messages:    b.messages(),
	}
	for _, m := range base.Messages {
		if b.nodeful[m.Name] {
			base.Walkers = append(base.Walkers, m)
		}
	}
	// messages() decides whether the clone helper is needed.
	base.Root = b.root
	if len(base.Enums) > 0 {
		b.structImports["fmt"] = true
	}

	structs := base
	structs.EmitStructs = true
	structs.StdImports = sortedImports(b.structImports)

	nodes := base
	nodes.EmitNodes = true
	nodes.StdImports = sortedImports(b.nodeImports)
	nodes.ModuleImports = []string{runtimeImport(cfg.RuntimeImport)}

	codec := base
	codec.EmitCodec = true
	codec.StdImports = sortedImports(b.codecImports)
	codec.ModuleImports = []string{runtimeImport(cfg.RuntimeImport), fmt.Sprintf("%q", protowireImport)}

	if single, _ := cfg.Options["single_file"].(bool); single {
		nodes.EmitStructs, nodes.EmitCodec = true, true
		nodes.StdImports = sortedImports(b.structImports, b.nodeImports, b.codecImports)
		nodes.ModuleImports = codec.ModuleImports
		src, err := render(nodes)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{NodesFile: src}, nil
	}

	out := make(map[string][]byte, 3)
	for name, data := range map[string]fileData{StructsFile: structs, NodesFile: nodes, CodecFile: codec} {
		src, err := render(data)
		if err != nil {
			return nil, err
		}
		out[name] = src
	}
	return out, nil
}

func render(data fileData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "file.go.tmpl", data); err != nil {
		return nil, fmt.Errorf("executing Go template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated Go: %w\n%s", err, buf.Bytes())
	}
	return src, nil
}
