package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateSchema schemaFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a schema",
	Long: `Validate that a schema loads, that its root message is a usable union and
that every generated identifier is unique.`,
	Example: `  # Validate a specific schema file
  nodegen validate --schema sqltree.proto --root Node

  # Validate using config file settings
  nodegen validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		an, _, err := validateSchema.load(cmd.Context())
		if err != nil {
			return err
		}

		if !quiet {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Schema is valid. Root %s has %d variants.\n", an.Root.Name, len(an.Variants))
			_, _ = fmt.Fprintf(w, "  - %d payload structs\n", len(an.Messages))
			_, _ = fmt.Fprintf(w, "  - %d enums\n", len(an.Enums))
			_, _ = fmt.Fprintf(w, "  - %d boxed fields\n", len(an.BoxedFields()))
			if len(an.Skipped) > 0 {
				_, _ = fmt.Fprintf(w, "  - %d root fields skipped (run analyze for details)\n", len(an.Skipped))
			}
		}

		return nil
	},
}

func init() {
	validateSchema.register(validateCmd.Flags())
}
