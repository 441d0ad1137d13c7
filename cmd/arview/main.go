// Package main is the arview command itself.
package main

import (
	"os"

	"github.com/slicerar/arview/cli"
	"github.com/slicerar/arview/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Fatal(err)
	}
}
