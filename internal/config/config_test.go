package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgilbir/esmirror"
)

// clearEnv unsets the ESMIRROR_* variables a test may touch and restores
// them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

var envKeys = []string{
	"ESMIRROR_OUTPUT", "ESMIRROR_TARGET", "ESMIRROR_BASE_URL", "ESMIRROR_CONCURRENCY",
	"ESMIRROR_CACHE_SIZE", "ESMIRROR_TIMEOUT", "ESMIRROR_MANIFEST", "ESMIRROR_REWRITE",
	"ESMIRROR_VERBOSE",
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, envKeys...)

	cfg, path, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), *cfg)
	assert.Empty(t, cfg.Manifest, "manifest is opt-in")
	assert.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Requests())
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t, envKeys...)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "esmirror.yaml"), `
output: vendor/esm
target: es2020
concurrency: 4
timeout: 5s
rewrite: substring
manifest: manifest.json
packages:
  - name: react
    version: 18.3.1
  - name: react-dom
    version: 18.3.1
    subpath: client
`)

	cfg, path, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "esmirror.yaml"), path)
	assert.Equal(t, "vendor/esm", cfg.Output)
	assert.Equal(t, "es2020", cfg.Target)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, esmirror.RewriteSubstring, cfg.RewriteMode())
	assert.Equal(t, esmirror.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, esmirror.DefaultManifest, cfg.Manifest)
	assert.Equal(t, []esmirror.Request{
		{Package: "react", Version: "18.3.1"},
		{Package: "react-dom", Version: "18.3.1", SubPath: "client"},
	}, cfg.Requests())
}

func TestLoadExplicitConfigFileMustExist(t *testing.T) {
	clearEnv(t, envKeys...)
	_, _, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t, envKeys...)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "esmirror.toml"), "target = \"es2019\"\nconcurrency = 2\noutput = \"from-file\"\n")
	writeFile(t, filepath.Join(dir, ".env"), "ESMIRROR_CONCURRENCY=3\nESMIRROR_OUTPUT=from-dotenv\n")
	t.Setenv("ESMIRROR_OUTPUT", "from-env")

	flags := pflag.NewFlagSet("load", pflag.ContinueOnError)
	flags.String("target", "es2022", "")
	flags.String("output", "unused-default", "")
	require.NoError(t, flags.Parse([]string{"--target", "es2017"}))

	cfg, _, err := Load(LoadOptions{Dir: dir, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "es2017", cfg.Target, "changed flag beats file")
	assert.Equal(t, 3, cfg.Concurrency, ".env beats file")
	assert.Equal(t, "from-env", cfg.Output, "process env beats .env and unchanged flags")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output", func(c *Config) { c.Output = " " }},
		{"empty target", func(c *Config) { c.Target = "" }},
		{"bad base url", func(c *Config) { c.BaseURL = "esm.sh" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"unknown rewrite", func(c *Config) { c.Rewrite = "regex" }},
		{"package without version", func(c *Config) { c.Packages = []Package{{Name: "he"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
