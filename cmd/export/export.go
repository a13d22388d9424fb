// Package export writes stored purchase records to CSV.
package export

import (
	"context"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"msvec/blocek/cmd/root"
	"msvec/blocek/internal/service"
)

var (
	outputFile string
	limit      int
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored purchase records to a CSV file",
	Run:   exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file path")
	Cmd.Flags().IntVarP(&limit, "limit", "l", 500, "Maximum number of records to export")
	if err := Cmd.MarkFlagRequired("output"); err != nil {
		root.Log.Warnf("Failed to mark output flag required: %v", err)
	}
}

func exportFunc(cmd *cobra.Command, args []string) {
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

	records, err := svc.Records(ctx, limit)
	if err != nil {
		root.Log.Fatalf("Failed to query records: %v", err)
	}
	if len(records) == 0 {
		root.Log.Warn("No records to export")
		return
	}

	if err := writeCSV(&records, outputFile); err != nil {
		root.Log.Fatalf("Failed to write CSV: %v", err)
	}
	root.Log.WithField("count", len(records)).WithField("file", outputFile).Info("Exported records")
}

func writeCSV(records interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			root.Log.Warnf("Failed to close file: %v", err)
		}
	}()

	if err := gocsv.MarshalFile(records, file); err != nil {
		return fmt.Errorf("error writing CSV file: %w", err)
	}
	return nil
}
