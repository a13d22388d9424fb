package main

import (
	"os"

	"msvec/blocek/cmd/categories"
	"msvec/blocek/cmd/export"
	"msvec/blocek/cmd/parse"
	"msvec/blocek/cmd/root"
	"msvec/blocek/cmd/serve"
	"msvec/blocek/cmd/stats"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(stats.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(categories.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
