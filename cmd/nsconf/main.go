// Package main is the entry point for the nsconf CLI.
package main

import (
	"os"

	"github.com/dshills/nsconf/cmd/nsconf/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
