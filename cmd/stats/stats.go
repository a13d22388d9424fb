// Package stats prints the current ledger state.
package stats

import (
	"github.com/spf13/cobra"

	"msvec/blocek/cmd/root"
	"msvec/blocek/internal/ledger"
	"msvec/blocek/internal/taxonomy"
)

var history bool

// Cmd represents the stats command
var Cmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the current health/happiness ledger",
	Run:   statsFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&history, "history", "H", false, "Also print the audit history")
}

func statsFunc(cmd *cobra.Command, args []string) {
	log := root.Logger()

	tax, err := taxonomy.LoadFile(root.Cfg.Taxonomy.File, log)
	if err != nil {
		root.Log.Fatalf("Failed to load taxonomy: %v", err)
	}

	state := ledger.NewEngine(root.Cfg.Ledger.StateFile, tax, log).Load()
	root.Log.Infof("zdravie: %d/100", state.Health)
	root.Log.Infof("stastie: %d/100", state.Happiness)
	root.Log.Infof("history entries: %d", len(state.History))

	if !history {
		return
	}
	for _, entry := range state.History {
		root.Log.Infof("%s  %s [%s]  health %+d happiness %+d",
			entry.Date, entry.Item, entry.Category, entry.Health, entry.Happiness)
	}
}
