package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"segnode/pkg/node"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := LoadConfig(writeConfig(t, "{}"))
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.Server.Host)
	require.Equal(t, 8083, cfg.Server.Port)
	require.Equal(t, "segnode", cfg.Server.ServiceName)
	require.Empty(t, cfg.Node.Role)
	require.False(t, cfg.Role().Bound())
	require.Empty(t, cfg.SegmentCache.Locations)
	require.Equal(t, 1, cfg.Processing.NumThreads)
	require.False(t, cfg.Cluster.Enabled)
}

func TestLoadConfigHistorical(t *testing.T) {
	viper.Reset()
	cfg, err := LoadConfig(writeConfig(t, `
server:
  host: node-1.local
  port: 8083
  tls_port: 8283
node:
  role: historical
  priority: 10
segment_cache:
  locations:
    - path: /var/segnode/segments
      max_size: 10737418240
      free_space_percent: 5
processing:
  num_threads: 8
`))
	require.NoError(t, err)

	require.Equal(t, node.RoleHistorical, cfg.Role())
	require.Len(t, cfg.SegmentCache.Locations, 1)
	require.Equal(t, "/var/segnode/segments", cfg.SegmentCache.Locations[0].Path)

	locs := cfg.SegmentCache.StorageLocations()
	require.True(t, node.IsSegmentCacheConfigured(locs))
	require.Equal(t, int64(10737418240), locs[0].MaxSize)

	addr := cfg.Address()
	require.Equal(t, "node-1.local:8083", addr.HostPort())
	require.Equal(t, 8, cfg.Processing.Capacity().NumThreads)
}

func TestLoadConfigRejectsUnknownRole(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(writeConfig(t, "node:\n  role: overlord9\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlord9")
}

func TestLoadConfigRejectsEmptyLocationPath(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(writeConfig(t, `
segment_cache:
  locations:
    - max_size: 1024
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "path must not be empty")
}

func TestLoadConfigClusterRequiresNodeID(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(writeConfig(t, "cluster:\n  enabled: true\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "cluster.node_id")
}

func TestLoadConfigClusterBindAddrDefault(t *testing.T) {
	viper.Reset()
	cfg, err := LoadConfig(writeConfig(t, `
cluster:
  enabled: true
  node_id: node-1
`))
	require.NoError(t, err)
	require.Equal(t, "localhost:9083", cfg.Cluster.BindAddr)
}
