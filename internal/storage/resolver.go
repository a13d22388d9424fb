package storage

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"msvec/blocek/internal/config"
	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/taxonomy"
)

// Default remote location. The gRPC channel shares the resolved HTTP host
// unless configured separately.
const (
	defaultRemoteHTTPHost = "172.20.10.7"
	defaultRemoteHTTPPort = 8080
	defaultRemoteGRPCPort = 50051
)

// RemoteConfig holds the fully resolved connection parameters for the remote
// tier. It is derived from configuration at resolve time and never persisted.
type RemoteConfig struct {
	HTTPHost   string
	HTTPPort   int
	HTTPSecure bool
	GRPCHost   string
	GRPCPort   int
	GRPCSecure bool
	APIKey     string
}

// Resolve selects a storage backend. Resolution order: remote (unless
// disabled), then embedded, then the flat-file store. Each failed tier is
// logged with its reason and fallen through; the final tier always yields a
// usable store, so Resolve never returns an error.
func Resolve(ctx context.Context, cfg *config.Config, tax *taxonomy.Set, log logging.Logger) Store {
	if rc := ResolveRemoteConfig(cfg); rc != nil {
		store, err := openRemote(ctx, rc, tax, log)
		if err == nil {
			log.WithField("host", rc.HTTPHost).WithField("port", rc.HTTPPort).Info("Using remote store")
			return store
		}
		log.WithError(err).Warn("Remote store unavailable, falling back to embedded store")
	} else {
		log.Info("Remote store disabled by configuration")
	}

	store, err := openEmbedded(ctx, cfg.Store.DataDir, tax, log)
	if err == nil {
		log.WithField("dir", cfg.Store.DataDir).Info("Using embedded store")
		return store
	}
	log.WithError(err).Warn("Embedded store unavailable, switching to file store")

	dir := cfg.Store.FallbackDir
	if dir == "" {
		dir = cfg.Store.DataDir
	}
	log.WithField("dir", dir).Info("Using file fallback store")
	return openFallback(dir, tax, log)
}

// ResolveRemoteConfig derives remote connection parameters from
// configuration, or returns nil when remote access is disabled.
//
// Precedence: a full URL supplies scheme, host and port; explicit host/port
// overrides win over the URL; the secure flag defaults from the URL scheme
// but an explicit flag wins. The gRPC channel defaults to the resolved HTTP
// host and a fixed default port. Numeric values that fail to parse fall back
// to their defaults rather than erroring.
func ResolveRemoteConfig(cfg *config.Config) *RemoteConfig {
	if strToBool(cfg.Store.RemoteDisabled, false) {
		return nil
	}

	host := defaultRemoteHTTPHost
	port := defaultRemoteHTTPPort
	secure := false

	if base := cfg.Store.URL; base != "" {
		if !strings.Contains(base, "://") {
			base = "http://" + base
		}
		if parsed, err := url.Parse(base); err == nil {
			if parsed.Hostname() != "" {
				host = parsed.Hostname()
			}
			secure = parsed.Scheme == "https"
			if p := parsed.Port(); p != "" {
				port = parsePort(p, port)
			} else if secure {
				port = 443
			}
		}
	}

	if cfg.Store.HTTPHost != "" {
		host = cfg.Store.HTTPHost
	}
	if cfg.Store.HTTPPort != "" {
		port = parsePort(cfg.Store.HTTPPort, port)
	}
	secure = strToBool(cfg.Store.HTTPSecure, secure)

	grpcHost := host
	if cfg.Store.GRPCHost != "" {
		grpcHost = cfg.Store.GRPCHost
	}

	return &RemoteConfig{
		HTTPHost:   host,
		HTTPPort:   port,
		HTTPSecure: secure,
		GRPCHost:   grpcHost,
		GRPCPort:   parsePort(cfg.Store.GRPCPort, defaultRemoteGRPCPort),
		GRPCSecure: strToBool(cfg.Store.GRPCSecure, false),
		APIKey:     cfg.Store.APIKey,
	}
}

// strToBool interprets the usual truthy spellings; empty input keeps the
// default so unset flags can inherit derived values.
func strToBool(value string, fallback bool) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// parsePort parses a port string, silently falling back on garbage.
func parsePort(value string, fallback int) int {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > 65535 {
		return fallback
	}
	return port
}
