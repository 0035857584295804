package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mgilbir/esmirror"
	"github.com/mgilbir/esmirror/internal/config"
)

func newLoadCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [package@version[/subpath] ...]",
		Short: "Mirror packages and their dependencies",
		Long: `Mirror each package and everything it imports into the output directory.

The output directory is emptied first. Without arguments the packages listed
in the config file are mirrored.`,
		Example: `  esmirror load he@1.2.0
  esmirror load react@18.3.1 react-dom@18.3.1/client -o vendor/esm -j 8 --manifest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			return runLoad(cmd, cfg, path, args)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringP("output", "o", defaults.Output, "output directory, emptied before mirroring")
	flags.String("target", defaults.Target, "build target requested from the host")
	flags.String("base-url", defaults.BaseURL, "module host")
	flags.IntP("concurrency", "j", defaults.Concurrency, "maximum fetches in flight")
	flags.Duration("timeout", defaults.Timeout, "timeout for each HTTP request")
	flags.String("rewrite", defaults.Rewrite, "specifier rewrite mode: spans or substring")
	flags.String("manifest", defaults.Manifest, "write a manifest; --manifest=NAME picks the file name")
	flags.Lookup("manifest").NoOptDefVal = esmirror.DefaultManifest
	return cmd
}

func runLoad(cmd *cobra.Command, cfg *config.Config, configPath string, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	requests := cfg.Requests()
	if len(args) > 0 {
		requests = requests[:0]
		for _, arg := range args {
			req, err := esmirror.ParseRequest(arg)
			if err != nil {
				return err
			}
			requests = append(requests, req)
		}
	}
	if len(requests) == 0 {
		return errors.New("no packages to mirror: pass package@version arguments or list packages in the config file")
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if configPath != "" {
		logger.Debug("using config file", "path", configPath)
	}

	var fetcher esmirror.Fetcher = esmirror.NewHTTPFetcher(&http.Client{Timeout: cfg.Timeout})
	if cfg.CacheSize > 0 {
		cached, err := esmirror.NewCachingFetcher(fetcher, cfg.CacheSize)
		if err != nil {
			return err
		}
		fetcher = cached
	}

	m, err := esmirror.New(
		esmirror.WithFetcher(fetcher),
		esmirror.WithLogger(logger),
		esmirror.WithBaseURL(cfg.BaseURL),
		esmirror.WithConcurrency(cfg.Concurrency),
		esmirror.WithRewriteMode(cfg.RewriteMode()),
		esmirror.WithManifest(cfg.Manifest),
	)
	if err != nil {
		return err
	}

	res, err := m.LoadAll(cmd.Context(), cfg.Output, cfg.Target, requests...)
	if err != nil {
		return err
	}

	logger.Info("mirrored", "modules", len(res.Modules), "output", cfg.Output)
	for _, p := range res.Paths() {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
