package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kolah/damascus/internal/python"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid config",
			config:  Config{Spec: "spec.yaml", OutputDir: "out", Python: PythonConfig{Version: "3.9"}},
			wantErr: false,
		},
		{
			name:        "missing spec",
			config:      Config{OutputDir: "out"},
			wantErr:     true,
			errContains: "spec file is required",
		},
		{
			name:        "invalid python version",
			config:      Config{Spec: "spec.yaml", Python: PythonConfig{Version: "three"}},
			wantErr:     true,
			errContains: "invalid python version",
		},
		{
			name:        "negative timeout",
			config:      Config{Spec: "spec.yaml", Timeout: -time.Second},
			wantErr:     true,
			errContains: "invalid timeout",
		},
		{
			name:        "invalid log level",
			config:      Config{Spec: "spec.yaml", Log: LogConfig{Level: "loud"}},
			wantErr:     true,
			errContains: "invalid log level",
		},
		{
			name:        "invalid log format",
			config:      Config{Spec: "spec.yaml", Log: LogConfig{Format: "xml"}},
			wantErr:     true,
			errContains: "invalid log format",
		},
		{
			name:    "json log format",
			config:  Config{Spec: "spec.yaml", Log: LogConfig{Level: "debug", Format: "json"}},
			wantErr: false,
		},
		{
			name:    "empty python version uses default",
			config:  Config{Spec: "spec.yaml"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					require.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateOutput(t *testing.T) {
	require.ErrorContains(t, (&Config{Spec: "a.yaml"}).ValidateOutput(), "output directory is required")
	require.NoError(t, (&Config{Spec: "a.yaml", DryRun: true}).ValidateOutput())
	require.NoError(t, (&Config{Spec: "a.yaml", OutputDir: "out"}).ValidateOutput())
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{}
	BindFlags(cmd)
	BindGenerateFlags(cmd)
	return cmd
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("spec", "api.yaml"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "api.yaml", cfg.Spec)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.True(t, cfg.Python.Async)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)

	v, err := cfg.PythonVersion()
	require.NoError(t, err)
	require.Equal(t, python.DefaultVersion, v)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec: api.yaml
output-dir: ./output
headers:
  - "Authorization: Bearer abc"
timeout: 5s
python:
  version: "3.9"
  async: false
templates:
  dir: ./tmpl
log:
  level: debug
`
	err := os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte(configContent), 0644)
	require.NoError(t, err)
	chdir(t, tmpDir)

	cfg, err := Load(newCommand())
	require.NoError(t, err)

	require.Equal(t, "api.yaml", cfg.Spec)
	require.Equal(t, "./output", cfg.OutputDir)
	require.Equal(t, []string{"Authorization: Bearer abc"}, cfg.Headers)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, "3.9", cfg.Python.Version)
	require.False(t, cfg.Python.Async)
	require.Equal(t, "./tmpl", cfg.Templates.Dir)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte("spec: api.yaml\noutput-dir: ./output\n"), 0644)
	require.NoError(t, err)
	chdir(t, tmpDir)

	t.Setenv("DAMASCUS_OUTPUT_DIR", "./from-env")
	t.Setenv("DAMASCUS_PY_VERSION", "3.8")
	t.Setenv("DAMASCUS_HEADERS", "X-A: 1;X-B: 2")
	t.Setenv("DAMASCUS_TIMEOUT", "2s")

	cfg, err := Load(newCommand())
	require.NoError(t, err)

	require.Equal(t, "api.yaml", cfg.Spec)
	require.Equal(t, "./from-env", cfg.OutputDir)
	require.Equal(t, "3.8", cfg.Python.Version)
	require.Equal(t, []string{"X-A: 1", "X-B: 2"}, cfg.Headers)
	require.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoadFlagsOverrideEnvAndFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte("spec: api.yaml\npython:\n  version: \"3.9\"\n"), 0644)
	require.NoError(t, err)
	chdir(t, tmpDir)
	t.Setenv("DAMASCUS_PY_VERSION", "3.8")

	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("py-version", "3.12"))
	require.NoError(t, cmd.Flags().Set("async", "false"))
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "3.12", cfg.Python.Version)
	require.False(t, cfg.Python.Async)
	require.True(t, cfg.DryRun)
}

func TestLoadWithExplicitConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	err := os.WriteFile(configPath, []byte("spec: custom.yaml\noutput-dir: ./custom\n"), 0644)
	require.NoError(t, err)
	chdir(t, t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "custom.yaml", cfg.Spec)
	require.Equal(t, "./custom", cfg.OutputDir)
}

func TestLoadMissingConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", "does-not-exist.yaml"))

	_, err := Load(cmd)
	require.ErrorContains(t, err, "reading config file")
}

func TestLoadRejectsUnquotedVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		errMsg  string
	}{
		{"float", "3.10", "got float64 3.1"},
		{"integer", "3", "got int 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			content := "spec: api.yaml\npython:\n  version: " + tt.version + "\n"
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte(content), 0644))
			chdir(t, tmpDir)

			_, err := Load(newCommand())
			require.ErrorContains(t, err, "python.version must be a quoted string")
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestCheckVersionType(t *testing.T) {
	require.NoError(t, checkVersionType(nil))
	require.NoError(t, checkVersionType("3.10"))
	require.Error(t, checkVersionType(3.1))
}

func TestLoadRequiresSpec(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load(newCommand())
	require.ErrorContains(t, err, "spec file is required")
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := newCommand()

	require.NoError(t, cmd.PersistentFlags().Set("spec", "test.yaml"))
	require.NoError(t, cmd.PersistentFlags().Set("header", "X-A: 1"))
	require.NoError(t, cmd.PersistentFlags().Set("header", "X-B: 2"))
	require.NoError(t, cmd.PersistentFlags().Set("timeout", "3s"))
	require.NoError(t, cmd.Flags().Set("output-dir", "./out"))
	require.NoError(t, cmd.Flags().Set("templates", "./tmpl"))

	m := buildFlagsMap(cmd)

	require.Equal(t, "test.yaml", m["spec"])
	require.Equal(t, []string{"X-A: 1", "X-B: 2"}, m["headers"])
	require.Equal(t, 3*time.Second, m["timeout"])
	require.Equal(t, "./out", m["output-dir"])
	require.Equal(t, "./tmpl", m["templates.dir"])
	require.NotContains(t, m, "python.async")
	require.NotContains(t, m, "dry-run")
}
