// Package codegen provides a registry of output generators.
//
// Generators turn a resolved schema.Analysis into files. They return a file
// map so a single target can emit several files (the Go target writes the
// payload structs and the union representations separately).
//
// This is an internal package used by the nodegen CLI. For programmatic code
// generation, use pkg/codegen which provides a stable public API.
package codegen

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/pthm/nodegen/pkg/schema"
)

// DefaultRuntimeImport is the import path of the runtime package referenced
// by generated code.
const DefaultRuntimeImport = "github.com/pthm/nodegen/node"

// Generator produces output files from an analysis.
//
// Implementations should be registered via Register() in their init() function.
// The CLI uses the registry to dispatch generation based on the --target flag.
type Generator interface {
	// Name returns the target identifier ("go", "manifest").
	Name() string

	// Generate returns a map of filename -> content for all generated files.
	// The filenames are relative paths; the caller decides where to write
	// them. Generation is all-or-nothing: on error no files are returned.
	Generate(an *schema.Analysis, cfg *Config) (map[string][]byte, error)

	// DefaultConfig returns the default configuration for this generator.
	DefaultConfig() *Config
}

// Config holds target-agnostic generation options.
type Config struct {
	// Package is the package name for generated code. Empty derives it from
	// the last element of the schema package.
	Package string

	// RuntimeImport is the import path of the node runtime package.
	RuntimeImport string

	// Version is stamped into the generated header.
	Version string

	// Source is the schema path recorded in the generated header.
	Source string

	// Options holds target-specific configuration.
	// Each generator documents its supported options.
	Options map[string]any
}

// Resolve returns a copy of cfg with defaults from def filled in. A nil cfg
// yields def.
func Resolve(cfg, def *Config) *Config {
	if cfg == nil {
		out := *def
		return &out
	}
	out := *cfg
	if out.Package == "" {
		out.Package = def.Package
	}
	if out.RuntimeImport == "" {
		out.RuntimeImport = def.RuntimeImport
	}
	if out.Version == "" {
		out.Version = def.Version
	}
	if out.Options == nil {
		out.Options = def.Options
	}
	return &out
}

// Fingerprint is the BLAKE3 hash of the analyzed schema and the root. Equal
// fingerprints generate identical output.
func Fingerprint(an *schema.Analysis) string {
	h := blake3.New()
	_, _ = h.Write(an.Catalog.Canonical())
	_, _ = fmt.Fprintf(h, "root %s\n", an.Root.Name)
	return hex.EncodeToString(h.Sum(nil))
}

// registry maps target names to generators.
var registry = make(map[string]Generator)

// Register adds a generator to the global registry.
// Generators should call this from their init() function.
//
// Panics if a generator with the same name is already registered.
func Register(g Generator) {
	name := g.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("codegen: generator %q already registered", name))
	}
	registry[name] = g
}

// Get returns the generator for the given target name.
// Returns nil if no generator is registered for that name.
func Get(name string) Generator {
	return registry[name]
}

// List returns all registered generator names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registered returns true if a generator is registered for the given name.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}
