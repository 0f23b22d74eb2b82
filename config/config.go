package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"segnode/pkg/node"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Node         NodeConfig         `mapstructure:"node"`
	SegmentCache SegmentCacheConfig `mapstructure:"segment_cache"`
	Processing   ProcessingConfig   `mapstructure:"processing"`
	Cluster      ClusterConfig      `mapstructure:"cluster"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// ServerConfig contains the node's advertised address and serving ports
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	TLSPort     int    `mapstructure:"tls_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	ServiceName string `mapstructure:"service_name"`
}

// NodeConfig contains the node's declared role. There is no default role;
// leaving it empty surfaces as a fatal error from whichever consumer needs
// it first.
type NodeConfig struct {
	Role     string `mapstructure:"role"`
	Priority int    `mapstructure:"priority"`
}

// LocationConfig describes one segment-cache location on disk
type LocationConfig struct {
	Path             string  `mapstructure:"path"`
	MaxSize          int64   `mapstructure:"max_size"`
	FreeSpacePercent float64 `mapstructure:"free_space_percent"`
}

// SegmentCacheConfig contains the configured segment-cache locations
type SegmentCacheConfig struct {
	Locations []LocationConfig `mapstructure:"locations"`
}

// StorageLocations converts the configured locations to their resolution-core form.
func (c SegmentCacheConfig) StorageLocations() []node.StorageLocation {
	out := make([]node.StorageLocation, 0, len(c.Locations))
	for _, l := range c.Locations {
		out = append(out, node.StorageLocation{
			Path:             l.Path,
			MaxSize:          l.MaxSize,
			FreeSpacePercent: l.FreeSpacePercent,
		})
	}
	return out
}

// ProcessingConfig contains processing capacity, passed through to the
// service descriptor untouched
type ProcessingConfig struct {
	NumThreads      int `mapstructure:"num_threads"`
	NumMergeBuffers int `mapstructure:"num_merge_buffers"`
	BufferSize      int `mapstructure:"buffer_size"`
}

// Capacity converts the processing section to its resolution-core form.
func (c ProcessingConfig) Capacity() node.ProcessingCapacity {
	return node.ProcessingCapacity{
		NumThreads:      c.NumThreads,
		NumMergeBuffers: c.NumMergeBuffers,
		BufferSize:      c.BufferSize,
	}
}

// ClusterConfig contains clustering configuration
type ClusterConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	NodeID        string   `mapstructure:"node_id"`
	BindAddr      string   `mapstructure:"bind_addr"`
	Bootstrap     bool     `mapstructure:"bootstrap"`
	JoinAddresses []string `mapstructure:"join_addresses"`
	DataDir       string   `mapstructure:"data_dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/segnode")
	}

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SEGNODE")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate and set computed values
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8083)
	viper.SetDefault("server.tls_port", -1)
	viper.SetDefault("server.grpc_port", 9095)
	viper.SetDefault("server.service_name", "segnode")

	// Node defaults. No default role on purpose.
	viper.SetDefault("node.role", "")
	viper.SetDefault("node.priority", 0)

	// Processing defaults
	viper.SetDefault("processing.num_threads", 1)
	viper.SetDefault("processing.num_merge_buffers", 2)
	viper.SetDefault("processing.buffer_size", 64<<20)

	// Cluster defaults
	viper.SetDefault("cluster.enabled", false)
	viper.SetDefault("cluster.node_id", "")
	viper.SetDefault("cluster.bind_addr", "")
	viper.SetDefault("cluster.bootstrap", false)
	viper.SetDefault("cluster.join_addresses", []string{})
	viper.SetDefault("cluster.data_dir", "./cluster")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	// The role must parse if supplied. Absence is not a config error here;
	// the resolution layer reports it against the artifact it blocks.
	if _, err := node.ParseRole(config.Node.Role); err != nil {
		return err
	}

	for i := range config.SegmentCache.Locations {
		loc := &config.SegmentCache.Locations[i]
		if loc.Path == "" {
			return fmt.Errorf("segment_cache.locations[%d].path must not be empty", i)
		}
		loc.Path = filepath.Clean(loc.Path)
		if loc.FreeSpacePercent < 0 || loc.FreeSpacePercent > 100 {
			return fmt.Errorf("segment_cache.locations[%d].free_space_percent must be between 0 and 100", i)
		}
	}

	if config.Processing.NumThreads < 1 {
		return fmt.Errorf("processing.num_threads must be at least 1")
	}

	if config.Cluster.Enabled {
		config.Cluster.DataDir = filepath.Clean(config.Cluster.DataDir)

		if config.Cluster.NodeID == "" {
			return fmt.Errorf("cluster.node_id is required when clustering is enabled")
		}

		if config.Cluster.BindAddr == "" {
			config.Cluster.BindAddr = fmt.Sprintf("localhost:%d", config.Server.Port+1000)
		}
	}

	// Validate port ranges
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if config.Server.GRPCPort < 1 || config.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port must be between 1 and 65535")
	}

	return nil
}

// Role returns the parsed node role. Validation already guaranteed it parses.
func (c *Config) Role() node.Role {
	r, _ := node.ParseRole(c.Node.Role)
	return r
}

// Address returns the advertised address metadata for identity construction.
func (c *Config) Address() node.Address {
	return node.Address{
		Host:        c.Server.Host,
		Port:        c.Server.Port,
		TLSPort:     c.Server.TLSPort,
		ServiceName: c.Server.ServiceName,
	}
}
