// Package categories lists the canonical category taxonomy.
package categories

import (
	"github.com/spf13/cobra"

	"msvec/blocek/cmd/root"
	"msvec/blocek/internal/taxonomy"
)

// Cmd represents the categories command
var Cmd = &cobra.Command{
	Use:   "categories",
	Short: "List the canonical categories and their stat deltas",
	Run:   categoriesFunc,
}

func categoriesFunc(cmd *cobra.Command, args []string) {
	tax, err := taxonomy.LoadFile(root.Cfg.Taxonomy.File, root.Logger())
	if err != nil {
		root.Log.Fatalf("Failed to load taxonomy: %v", err)
	}

	for _, category := range tax.Categories() {
		health, happiness := tax.Deltas(category)
		root.Log.Infof("%-40s health %+d happiness %+d", category, health, happiness)
	}
}
