package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/nodegen/internal/cli"
	"github.com/pthm/nodegen/internal/logging"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string

	// Persistent flags
	cfgFile   string
	verbose   int
	quiet     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "nodegen",
	Short: "Tree type generator for protobuf syntax trees",
	Long: `nodegen - Tree type generator for protobuf syntax trees

nodegen reads a protobuf schema whose root message is a tagged union (a
oneof of statement and expression nodes) and generates Go types for it: an
owned tree, a borrowed read-only view, and an exclusive accessor for in-place
rewrites, with conversions between them. Fields that would make a type
contain itself are boxed automatically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version/init commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" || cmd.Name() == "init" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		format := resolveString(logFormat, cfg.Log.Format)
		logger := logging.New(logging.Level(verbose, quiet), format, cmd.ErrOrStderr())
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		if configPath != "" {
			logger.Info("loaded configuration", "path", configPath)
		}

		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupSchema  = "schema"
	groupCode    = "code"
	groupUtility = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover nodegen.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default: text)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupSchema, Title: "Schema:"},
		&cobra.Group{ID: groupCode, Title: "Code:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	// Schema commands
	validateCmd.GroupID = groupSchema
	analyzeCmd.GroupID = groupSchema
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(analyzeCmd)

	// Code commands
	generateCmd.GroupID = groupCode
	checkCmd.GroupID = groupCode
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)

	// Utility commands
	initCmd.GroupID = groupUtility
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
