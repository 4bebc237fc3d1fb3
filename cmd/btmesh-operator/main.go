package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/btmesh-io/btmesh-operator/cmd/btmesh-operator/app"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
