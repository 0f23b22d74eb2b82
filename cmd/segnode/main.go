package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"segnode/config"
	"segnode/pkg/cluster"
	"segnode/pkg/discovery"
	"segnode/pkg/node"
	"segnode/pkg/segment"
	"segnode/pkg/server"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	role       = flag.String("role", "", "Node role (historical, broker, indexer, router)")
	host       = flag.String("host", "", "Advertised host")
	port       = flag.Int("port", 0, "HTTP port")
	cacheDirs  = flag.String("cache-dirs", "", "Comma-separated segment cache locations")
	nodeID     = flag.String("node-id", "", "Node ID for clustering")
	bootstrap  = flag.Bool("bootstrap", false, "Bootstrap cluster")
	clustered  = flag.Bool("cluster", false, "Enable clustering")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// Override config with command line flags
	if *role != "" {
		cfg.Node.Role = *role
		if _, err := node.ParseRole(*role); err != nil {
			slog.Error("invalid role flag", "err", err)
			os.Exit(1)
		}
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *cacheDirs != "" {
		cfg.SegmentCache.Locations = nil
		for _, dir := range strings.Split(*cacheDirs, ",") {
			cfg.SegmentCache.Locations = append(cfg.SegmentCache.Locations,
				config.LocationConfig{Path: strings.TrimSpace(dir)})
		}
	}
	if *clustered {
		cfg.Cluster.Enabled = true
		if *nodeID != "" {
			cfg.Cluster.NodeID = *nodeID
		}
		if *bootstrap {
			cfg.Cluster.Bootstrap = true
		}
	}

	log := newLogger(cfg.Logging)
	slog.SetDefault(log)

	// Resolve the node's capability descriptor and identity record. Both are
	// lazy singletons; a failure here is startup-fatal and the error message
	// is the diagnostic surface.
	resolver := node.NewCapabilityResolver(cfg.Role(), cfg.SegmentCache.StorageLocations(), cfg.Processing.Capacity())
	desc, err := resolver.Resolve()
	if err != nil {
		log.Error("failed to resolve node capability", "err", err)
		os.Exit(1)
	}

	registry := node.NewIdentityRegistry(cfg.Role(), cfg.Address())
	rec, err := registry.Identity()
	if err != nil {
		log.Error("failed to build node identity", "err", err)
		os.Exit(1)
	}

	// Open the segment inventory only when the node actually holds a cache.
	var inv *segment.Inventory
	if desc.Discoverable {
		dir := cfg.SegmentCache.Locations[0].Path
		inv, err = segment.Open(dir)
		if err != nil {
			log.Error("failed to open segment inventory", "dir", dir, "err", err)
			os.Exit(1)
		}
		defer inv.Close()
	}

	// Cluster membership
	mgr := cluster.NewManager(cluster.Config{
		NodeID:  rec.ID,
		Address: rec.HostPort(),
	})
	defer mgr.Close()
	if cfg.Cluster.Enabled {
		err := mgr.StartRaft(cluster.RaftConfig{
			NodeID:    cfg.Cluster.NodeID,
			BindAddr:  cfg.Cluster.BindAddr,
			DataDir:   cfg.Cluster.DataDir,
			Bootstrap: cfg.Cluster.Bootstrap,
		})
		if err != nil {
			log.Error("failed to start raft", "err", err)
			os.Exit(1)
		}
	}

	srv := server.New(cfg, desc, rec, inv, mgr, log)
	publisher := discovery.NewPublisher(desc, rec, mgr, log)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	// Announce once the serving endpoints are up.
	go func() {
		if err := publisher.Publish(ctx); err != nil {
			log.Error("failed to publish node", "err", err)
			cancel()
		}
	}()

	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}

	log.Info("segnode stopped")
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
