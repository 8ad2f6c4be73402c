package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/kolah/damascus/internal/python"
	"github.com/spf13/cobra"
)

const (
	DefaultFile = "damascus.yaml"
	EnvPrefix   = "DAMASCUS_"
)

type Config struct {
	Spec      string         `koanf:"spec"`
	OutputDir string         `koanf:"output-dir"`
	Headers   []string       `koanf:"headers"`
	Timeout   time.Duration  `koanf:"timeout"`
	DryRun    bool           `koanf:"dry-run"`
	Python    PythonConfig   `koanf:"python"`
	Templates TemplateConfig `koanf:"templates"`
	Log       LogConfig      `koanf:"log"`
}

type PythonConfig struct {
	// Version is the target interpreter version, e.g. "3.9".
	Version string `koanf:"version"`
	// Async adds an asyncio wrapper next to every client method.
	Async bool `koanf:"async"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// envConfig is the DAMASCUS_* environment layer. Unset variables leave the
// lower layers untouched.
type envConfig struct {
	Spec      string        `env:"SPEC"`
	OutputDir string        `env:"OUTPUT_DIR"`
	Headers   []string      `env:"HEADERS" envSeparator:";"`
	Timeout   time.Duration `env:"TIMEOUT"`
	PyVersion string        `env:"PY_VERSION"`
	Templates string        `env:"TEMPLATES"`
	LogLevel  string        `env:"LOG_LEVEL"`
	LogFormat string        `env:"LOG_FORMAT"`
}

func defaults() map[string]any {
	return map[string]any{
		"timeout":        "30s",
		"python.version": python.DefaultVersion.String(),
		"python.async":   true,
		"log.level":      "info",
		"log.format":     "console",
	}
}

// BindFlags binds the flags shared by every command that reads a document.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: "+DefaultFile+")")
	flags.StringP("spec", "s", "", "OpenAPI document path or http(s) URL")
	flags.StringArrayP("header", "H", nil, "Header sent when fetching a remote document, as 'Name: Value'")
	flags.Duration("timeout", 0, "Timeout for fetching a remote document")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: console, json")
}

// BindGenerateFlags binds the flags that only affect generation.
func BindGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("output-dir", "o", "", "Output directory for the generated package")
	flags.String("py-version", "", "Target Python version (default "+python.DefaultVersion.String()+")")
	flags.Bool("async", true, "Generate asyncio wrappers for client methods")
	flags.String("templates", "", "Custom templates directory")
	flags.Bool("dry-run", false, "Print output without writing files")
}

// Load layers defaults, the config file, DAMASCUS_* variables and flags, in
// increasing precedence.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := checkVersionType(k.Get("python.version")); err != nil {
			return nil, fmt.Errorf("%s: %w", configFile, err)
		}
	}

	envMap, err := buildEnvMap()
	if err != nil {
		return nil, err
	}
	if len(envMap) > 0 {
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkVersionType rejects a python.version YAML decoded as a number: an
// unquoted 3.10 reads as 3.1.
func checkVersionType(v any) error {
	switch v.(type) {
	case nil, string:
		return nil
	default:
		return fmt.Errorf("python.version must be a quoted string such as \"3.10\", got %T %v", v, v)
	}
}

func buildEnvMap() (map[string]any, error) {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	m := make(map[string]any)
	if e.Spec != "" {
		m["spec"] = e.Spec
	}
	if e.OutputDir != "" {
		m["output-dir"] = e.OutputDir
	}
	if len(e.Headers) > 0 {
		m["headers"] = e.Headers
	}
	if e.Timeout > 0 {
		m["timeout"] = e.Timeout
	}
	if e.PyVersion != "" {
		m["python.version"] = e.PyVersion
	}
	if e.Templates != "" {
		m["templates.dir"] = e.Templates
	}
	if e.LogLevel != "" {
		m["log.level"] = e.LogLevel
	}
	if e.LogFormat != "" {
		m["log.format"] = e.LogFormat
	}
	return m, nil
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getStringArray := func(name string) []string {
		if v, err := cmd.Flags().GetStringArray(name); err == nil && len(v) > 0 {
			return v
		}
		if v, err := cmd.PersistentFlags().GetStringArray(name); err == nil && len(v) > 0 {
			return v
		}
		return nil
	}

	getDuration := func(name string) time.Duration {
		if v, err := cmd.Flags().GetDuration(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetDuration(name); err == nil {
			return v
		}
		return 0
	}

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	if v := getString("spec"); v != "" {
		m["spec"] = v
	}
	if v := getString("output-dir"); v != "" {
		m["output-dir"] = v
	}
	if v := getStringArray("header"); len(v) > 0 {
		m["headers"] = v
	}
	if flagChanged("timeout") {
		m["timeout"] = getDuration("timeout")
	}
	if v := getString("py-version"); v != "" {
		m["python.version"] = v
	}
	if flagChanged("async") {
		m["python.async"] = getBool("async")
	}
	if v := getString("templates"); v != "" {
		m["templates.dir"] = v
	}
	if flagChanged("dry-run") {
		m["dry-run"] = getBool("dry-run")
	}
	if v := getString("log-level"); v != "" {
		m["log.level"] = v
	}
	if v := getString("log-format"); v != "" {
		m["log.format"] = v
	}

	return m
}

func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if _, err := c.PythonVersion(); err != nil {
		return err
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	validFormats := map[string]bool{"": true, "console": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: console, json)", c.Log.Format)
	}

	return nil
}

// ValidateOutput checks what writing files additionally needs.
func (c *Config) ValidateOutput() error {
	if c.OutputDir == "" && !c.DryRun {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// PythonVersion parses the configured target version.
func (c *Config) PythonVersion() (python.Version, error) {
	v, err := python.ParseVersion(c.Python.Version)
	if err != nil {
		return python.Version{}, fmt.Errorf("invalid python version: %w", err)
	}
	return v, nil
}
