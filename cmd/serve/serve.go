// Package serve runs the HTTP API.
package serve

import (
	"context"

	"github.com/spf13/cobra"

	"msvec/blocek/cmd/root"
	"msvec/blocek/internal/server"
	"msvec/blocek/internal/service"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the receipt API server",
	Long: `Resolve a storage backend, wire up the receipt pipeline and serve the
JSON API used by the frontend.`,
	Run: serveFunc,
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides configuration)")
}

func serveFunc(cmd *cobra.Command, args []string) {
	log := root.Logger()

	svc, err := service.Build(context.Background(), root.Cfg, log)
	if err != nil {
		root.Log.Fatalf("Failed to build pipeline: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			root.Log.Warnf("Failed to close store: %v", err)
		}
	}()

	listen := root.Cfg.Server.Addr
	if addr != "" {
		listen = addr
	}

	root.Log.WithField("tier", svc.StoreTier()).Info("Storage backend resolved")
	if err := server.New(svc, log).ListenAndServe(listen); err != nil {
		root.Log.Fatalf("Server failed: %v", err)
	}
}
