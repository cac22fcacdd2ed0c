package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/nodegen/internal/cli"
	"github.com/pthm/nodegen/pkg/codegen"
)

var (
	initYes    bool
	initForce  bool
	initSchema string
	initRoot   string
	initTarget string
	initOutput string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a nodegen.yaml",
	Long: `Create a nodegen.yaml in the current directory.

Prompts for the schema, root message and output location unless --yes is
given, in which case flag values and defaults are used.`,
	Example: `  # Answer prompts
  nodegen init

  # Non-interactive
  nodegen init --yes --schema proto/sqltree.proto --root Node --output internal/sqltree`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "nodegen.yaml"
		if _, err := os.Stat(path); err == nil && !initForce {
			return cli.ConfigError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
		}

		answers := initAnswers{
			Schema: initSchema,
			Root:   resolveString(initRoot, "Node"),
			Target: resolveString(initTarget, "go"),
			Output: resolveString(initOutput, "."),
		}
		if !initYes {
			if err := answers.prompt(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return cli.GeneralError("reading answers", err)
			}
		}
		if answers.Schema == "" {
			return cli.ConfigError("--schema is required", nil)
		}

		out, err := answers.yaml()
		if err != nil {
			return cli.GeneralError("encoding configuration", err)
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return cli.GeneralError(fmt.Sprintf("writing %s", path), err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		}
		return nil
	},
}

func init() {
	f := initCmd.Flags()
	f.BoolVarP(&initYes, "yes", "y", false, "accept flag values and defaults without prompting")
	f.BoolVar(&initForce, "force", false, "overwrite an existing nodegen.yaml")
	f.StringVar(&initSchema, "schema", "", "path to the schema")
	f.StringVar(&initRoot, "root", "", "root union message (default: Node)")
	f.StringVar(&initTarget, "target", "", "output target (default: go)")
	f.StringVarP(&initOutput, "output", "o", "", "output directory (default: .)")
}

type initAnswers struct {
	Schema string
	Root   string
	Target string
	Output string
}

func (a *initAnswers) prompt() error {
	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Schema").
				Description(".proto file or binary FileDescriptorSet").
				Value(&a.Schema).
				Validate(required("schema")),
			huh.NewInput().
				Title("Root message").
				Value(&a.Root).
				Validate(required("root")),
			huh.NewSelect[string]().
				Title("Target").
				Options(huh.NewOptions(codegen.ListTargets()...)...).
				Value(&a.Target),
			huh.NewInput().
				Title("Output directory").
				Value(&a.Output),
		),
	).Run()
}

func (a *initAnswers) yaml() ([]byte, error) {
	c := cli.Config{
		Schema: filepath.ToSlash(a.Schema),
		Root:   a.Root,
		Log:    cli.LogConfig{Format: "text"},
		Generate: cli.GenerateConfig{
			Target: a.Target,
			Output: filepath.ToSlash(a.Output),
		},
	}
	return yaml.Marshal(c)
}
