package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/pthm/nodegen/internal/cli"
	"github.com/pthm/nodegen/internal/logging"
	"github.com/pthm/nodegen/pkg/descriptor"
	"github.com/pthm/nodegen/pkg/schema"
)

// schemaFlags are the flags shared by every command that loads a schema.
type schemaFlags struct {
	path        string
	root        string
	importPaths []string
}

func (f *schemaFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.path, "schema", "", "path to a .proto file or binary FileDescriptorSet")
	fs.StringVar(&f.root, "root", "", "root union message (default: Node)")
	fs.StringSliceVarP(&f.importPaths, "import-path", "I", nil, "directory to resolve proto imports from (repeatable)")
}

// resolve applies flag > config > default precedence.
func (f *schemaFlags) resolve() (path, root string, importPaths []string) {
	path = resolveString(f.path, cfg.Schema)
	root = resolveString(f.root, cfg.Root, "Node")
	importPaths = f.importPaths
	if len(importPaths) == 0 {
		importPaths = cfg.ImportPaths
	}
	return path, root, importPaths
}

// load reads and analyzes the schema, mapping failures to exit codes.
func (f *schemaFlags) load(ctx context.Context) (*schema.Analysis, string, error) {
	path, root, importPaths := f.resolve()
	if path == "" {
		return nil, "", cli.ConfigError("--schema is required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, path, cli.SchemaError(fmt.Sprintf("schema not found: %s", path), nil)
	}

	catalog, err := descriptor.Load(ctx, path, importPaths...)
	if err != nil {
		return nil, path, cli.SchemaError("loading schema", err)
	}

	an, err := schema.Analyze(catalog, root)
	if err != nil {
		if errors.Is(err, schema.ErrMissingRoot) {
			return nil, path, cli.ConfigError(fmt.Sprintf("root %q", root), err)
		}
		return nil, path, cli.SchemaError("analyzing schema", err)
	}

	logging.FromContext(ctx).Info("analyzed schema",
		"schema", path,
		"root", an.Root.Name,
		"variants", len(an.Variants),
		"messages", len(an.Messages),
	)
	return an, path, nil
}
