package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// configNames are the file names searched for, in order.
var configNames = []string{"nodegen.yaml", "nodegen.yml"}

// Config represents the nodegen configuration from nodegen.yaml.
type Config struct {
	// Top-level convenience fields
	Schema      string   `mapstructure:"schema"       json:"schema"`
	ImportPaths []string `mapstructure:"import_paths" json:"import_paths"`
	Root        string   `mapstructure:"root"         json:"root"`

	Log LogConfig `mapstructure:"log" json:"log"`

	// Per-command configuration
	Generate GenerateConfig `mapstructure:"generate" json:"generate"`
	Check    CheckConfig    `mapstructure:"check"    json:"check"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `mapstructure:"format" json:"format"`
}

// GenerateConfig holds code generation settings.
type GenerateConfig struct {
	Target        string `mapstructure:"target"         json:"target"`
	Output        string `mapstructure:"output"         json:"output"`
	Package       string `mapstructure:"package"        json:"package"`
	RuntimeImport string `mapstructure:"runtime_import" json:"runtime_import"`
	SingleFile    bool   `mapstructure:"single_file"    json:"single_file"`
}

// CheckConfig holds drift check settings. Empty fields fall back to the
// generate section.
type CheckConfig struct {
	Target string `mapstructure:"target" json:"target"`
	Output string `mapstructure:"output" json:"output"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("NODEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Top-level defaults
	v.SetDefault("schema", "")
	v.SetDefault("import_paths", []string{})
	v.SetDefault("root", "Node")

	v.SetDefault("log.format", "text")

	// Generate defaults
	v.SetDefault("generate.target", "go")
	v.SetDefault("generate.output", ".")
	v.SetDefault("generate.package", "")
	v.SetDefault("generate.runtime_import", "")
	v.SetDefault("generate.single_file", false)

	// Check defaults
	v.SetDefault("check.target", "")
	v.SetDefault("check.output", "")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for nodegen.yaml or nodegen.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Auto-discovery: walk up to .git or maxWalkDepth
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break // Stop at repo root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// Validate checks that the settings every command needs are present.
func (c *Config) Validate() error {
	var errs []error
	if c.Schema == "" {
		errs = append(errs, errors.New("schema is required (set schema in nodegen.yaml or pass --schema)"))
	}
	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ResolvedCheckTarget returns the target compared by check, with
// check.target taking precedence over generate.target.
func (c *Config) ResolvedCheckTarget() string {
	if c.Check.Target != "" {
		return c.Check.Target
	}
	return c.Generate.Target
}

// ResolvedCheckOutput returns the directory compared by check, with
// check.output taking precedence over generate.output.
func (c *Config) ResolvedCheckOutput() string {
	if c.Check.Output != "" {
		return c.Check.Output
	}
	return c.Generate.Output
}
