// Package parse runs one receipt through the extraction pipeline.
package parse

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"msvec/blocek/cmd/root"
	"msvec/blocek/internal/service"
)

var (
	inputFile string
	save      bool
)

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a receipt's text into categorized items",
	Long: `Send receipt text (from a file, or stdin when no file is given) through
the text-generation endpoint and the extraction parser, printing the
recovered items and their stat deltas. With --save the items are also
persisted and applied to the ledger.`,
	Run: parseFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "File holding the receipt text (default: stdin)")
	Cmd.Flags().BoolVarP(&save, "save", "s", false, "Persist the items and update the ledger")
}

func parseFunc(cmd *cobra.Command, args []string) {
	text, err := readInput()
	if err != nil {
		root.Log.Fatalf("Failed to read receipt text: %v", err)
	}

	ctx := context.Background()
	svc, err := service.Build(ctx, root.Cfg, root.Logger())
	if err != nil {
		root.Log.Fatalf("Failed to build pipeline: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			root.Log.Warnf("Failed to close store: %v", err)
		}
	}()

	items, health, happiness := svc.ParseReceipt(ctx, text)
	if len(items) == 0 {
		root.Log.Error("No items could be parsed from the receipt")
		return
	}

	for _, item := range items {
		root.Log.Infof("%s  %s  [%s]", item.Product, item.Price.String(), item.Category)
	}
	root.Log.Infof("Stat changes: health %+d, happiness %+d", health, happiness)

	if !save {
		return
	}

	result, err := svc.SaveReceipt(ctx, items, text, time.Now())
	if err != nil {
		root.Log.Fatalf("Failed to save receipt: %v", err)
	}
	root.Log.Infof("Saved %d items (tier: %s); zdravie=%d stastie=%d",
		result.ItemsSaved, svc.StoreTier(), result.State.Health, result.State.Happiness)
}

func readInput() (string, error) {
	if inputFile == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(inputFile)
	return string(data), err
}
