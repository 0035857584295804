// Package config resolves esmirror settings from defaults, an optional
// config file, a .env file, ESMIRROR_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mgilbir/esmirror"
)

const (
	// FileName is the config file name searched for, without extension.
	FileName = "esmirror"
	// EnvPrefix prefixes every environment variable, as in ESMIRROR_TARGET.
	EnvPrefix = "ESMIRROR"
)

// Package is one root module listed in the config file.
type Package struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Version string `mapstructure:"version" yaml:"version"`
	SubPath string `mapstructure:"subpath" yaml:"subpath,omitempty"`
}

// Config is the resolved configuration of one esmirror invocation.
type Config struct {
	Output      string        `mapstructure:"output" yaml:"output"`
	Target      string        `mapstructure:"target" yaml:"target"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	CacheSize   int           `mapstructure:"cache_size" yaml:"cache_size"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Manifest    string        `mapstructure:"manifest" yaml:"manifest"`
	Rewrite     string        `mapstructure:"rewrite" yaml:"rewrite"`
	Verbose     bool          `mapstructure:"verbose" yaml:"verbose"`
	Packages    []Package     `mapstructure:"packages" yaml:"packages,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Output:      "esm-package-dependencies",
		Target:      "es2022",
		BaseURL:     esmirror.DefaultBaseURL,
		Concurrency: 1,
		CacheSize:   256,
		Timeout:     60 * time.Second,
		Rewrite:     esmirror.RewriteSpans.String(),
	}
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist.
	ConfigFile string
	// Dir is searched for esmirror.{yaml,toml,json} and .env when
	// ConfigFile is empty. Defaults to the working directory.
	Dir string
	// Flags, when set, are bound by key name. Only flags the user changed
	// override other sources.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, "", err
	}

	v := viper.New()
	defaults := Default()
	v.SetDefault("output", defaults.Output)
	v.SetDefault("target", defaults.Target)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("manifest", defaults.Manifest)
	v.SetDefault("rewrite", defaults.Rewrite)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, "", err
		}
	}

	resolved := ""
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("config: reading %s: %w", opts.ConfigFile, err)
		}
		resolved = opts.ConfigFile
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("config: reading config in %s: %w", dir, err)
			}
		} else {
			resolved = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("config: parsing: %w", err)
	}
	return &cfg, resolved, nil
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"output":      "output",
	"target":      "target",
	"base-url":    "base_url",
	"concurrency": "concurrency",
	"timeout":     "timeout",
	"rewrite":     "rewrite",
	"manifest":    "manifest",
	"verbose":     "verbose",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadDotEnv exports the variables in path that are not already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// Validate reports the first setting that cannot drive a mirror run.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Output) == "":
		return errors.New("config: output directory is required")
	case strings.TrimSpace(c.Target) == "":
		return errors.New("config: target is required")
	case !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://"):
		return fmt.Errorf("config: base_url %q must be an http or https URL", c.BaseURL)
	case c.Concurrency < 1:
		return fmt.Errorf("config: concurrency must be at least 1, got %d", c.Concurrency)
	case c.CacheSize < 0:
		return fmt.Errorf("config: cache_size must not be negative, got %d", c.CacheSize)
	case c.Timeout < 0:
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := esmirror.ParseRewriteMode(c.Rewrite); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for i, p := range c.Packages {
		if p.Name == "" || p.Version == "" {
			return fmt.Errorf("config: packages[%d]: name and version are required", i)
		}
	}
	return nil
}

// RewriteMode returns the parsed rewrite setting.
func (c *Config) RewriteMode() esmirror.RewriteMode {
	m, _ := esmirror.ParseRewriteMode(c.Rewrite)
	return m
}

// Requests converts the configured packages to mirror requests.
func (c *Config) Requests() []esmirror.Request {
	reqs := make([]esmirror.Request, 0, len(c.Packages))
	for _, p := range c.Packages {
		reqs = append(reqs, esmirror.Request{Package: p.Name, Version: p.Version, SubPath: p.SubPath})
	}
	return reqs
}
