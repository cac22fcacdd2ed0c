package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/nodegen/internal/cli"
	"github.com/pthm/nodegen/internal/logging"
	"github.com/pthm/nodegen/internal/version"
	"github.com/pthm/nodegen/pkg/codegen"
)

var (
	genSchema        schemaFlags
	genTarget        string
	genOutput        string
	genPackage       string
	genRuntimeImport string
	genSingleFile    bool
	genVersion       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate tree types from a schema",
	Long: `Generate the owned, borrowed and exclusive representations of a root union
message, together with its payload structs and enums.

Generation is all-or-nothing: if the schema fails analysis no file is written.

Supported targets: ` + strings.Join(codegen.ListTargets(), ", "),
	Example: `  # Generate Go code into the current directory
  nodegen generate --schema sqltree.proto --root Node --output .

  # Resolve imports from vendored protos
  nodegen generate --schema pg_query.proto -I third_party/proto --output internal/pgtree

  # Write a single file to stdout
  nodegen generate --schema sqltree.proto --output -

  # Write the analysis manifest for review
  nodegen generate --schema sqltree.proto --target manifest --output .`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Resolve values: flags > config > defaults
		target := resolveString(genTarget, cfg.Generate.Target, "go")
		output := resolveString(genOutput, cfg.Generate.Output, ".")
		toStdout := output == "-"

		if !slices.Contains(codegen.ListTargets(), target) {
			return cli.ConfigError(
				fmt.Sprintf("unknown target %q", target),
				fmt.Errorf("supported targets: %s", strings.Join(codegen.ListTargets(), ", ")),
			)
		}

		an, source, err := genSchema.load(cmd.Context())
		if err != nil {
			return err
		}

		genCfg := codegen.DefaultConfig(target)
		genCfg.Package = resolveString(genPackage, cfg.Generate.Package)
		genCfg.RuntimeImport = resolveString(genRuntimeImport, cfg.Generate.RuntimeImport, genCfg.RuntimeImport)
		genCfg.Version = resolveString(genVersion, version.Short())
		genCfg.Source = filepath.ToSlash(source)
		genCfg.Options = map[string]any{
			"single_file": resolveBool(genSingleFile, cfg.Generate.SingleFile, toStdout),
		}

		files, err := codegen.Generate(target, an, genCfg)
		if err != nil {
			return cli.GeneralError("generation failed", err)
		}

		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		slices.Sort(names)

		if toStdout {
			if len(files) > 1 {
				return cli.ConfigError("--output - requires single-file output", nil)
			}
			for _, name := range names {
				if _, err := cmd.OutOrStdout().Write(files[name]); err != nil {
					return cli.GeneralError("writing to stdout", err)
				}
			}
			return nil
		}

		if err := os.MkdirAll(output, 0o755); err != nil {
			return cli.GeneralError("creating output directory", err)
		}
		log := logging.FromContext(cmd.Context())
		for _, name := range names {
			outPath := filepath.Join(output, name)
			if err := os.WriteFile(outPath, files[name], 0o644); err != nil {
				return cli.GeneralError(fmt.Sprintf("writing %s", outPath), err)
			}
			log.Debug("wrote file", "path", outPath, "bytes", len(files[name]))
			if !quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", outPath)
			}
		}

		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	genSchema.register(f)
	f.StringVar(&genTarget, "target", "", "output target: "+strings.Join(codegen.ListTargets(), ", ")+" (default: go)")
	f.StringVarP(&genOutput, "output", "o", "", "output directory, or - for stdout (default: .)")
	f.StringVar(&genPackage, "package", "", "package name (default: derived from the schema package)")
	f.StringVar(&genRuntimeImport, "runtime-import", "", "import path of the node runtime package")
	f.BoolVar(&genSingleFile, "single-file", false, "write all Go code to one file")
	f.StringVar(&genVersion, "generator-version", "", "version stamped into generated headers (default: this binary's version)")
}
