package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mgilbir/esmirror/internal/config"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "esmirror",
		Short: "Mirror ES modules from esm.sh for offline use",
		Long: `esmirror downloads ES modules and every module they import from an
esm.sh style CDN, rewrites the import specifiers to relative paths and writes
the tree to a local directory, so it can be served or loaded offline.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default is ./esmirror.{yaml,toml,json})")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every module, including skipped ones")

	root.AddCommand(newLoadCmd(g))
	root.AddCommand(newConfigCmd(g))
	return root
}

// loadConfig resolves configuration with the flags of cmd bound on top.
func (g *globals) loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	return config.Load(config.LoadOptions{ConfigFile: g.configFile, Flags: cmd.Flags()})
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "esmirror",
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
