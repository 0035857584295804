// Command esmirror mirrors ES modules from an esm.sh style CDN into a local
// directory, rewriting every import to a relative path.
//
// Usage:
//
//	esmirror load react@18.3.1 react-dom@18.3.1/client -o vendor/esm
//	esmirror config
//
// Settings come from flags, ESMIRROR_* environment variables, a .env file
// and esmirror.{yaml,toml,json} in the working directory.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// version is set via -ldflags.
var version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
