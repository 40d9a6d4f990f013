package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
http:
  address: ":8080"
bus:
  brokers: ["localhost:9092"]
topology:
  snapshot_topic: "snaps"
  customer_inbox: "reqs"
  agent_prefix: "a."
  building_prefix: "b."
  customer_prefix: "c."
building:
  rooms: 5
customer:
  request_timeout_seconds: 10
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Bus.Brokers)
	assert.Equal(t, "snaps", cfg.Topology.SnapshotTopic)
	assert.Equal(t, "a.x1", cfg.Topology.AgentInbox("x1"))
	assert.Equal(t, "b.x1", cfg.Topology.BuildingInbox("x1"))
	assert.Equal(t, "c.x1", cfg.Topology.CustomerInboxFor("x1"))
	assert.Equal(t, 5, cfg.Building.Rooms)
	assert.Equal(t, 10*time.Second, cfg.Customer.RequestTimeout())
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
bus:
  brokers: ["localhost:9092"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopology(), cfg.Topology)
	assert.Equal(t, 3, cfg.Building.Rooms)
	assert.Equal(t, 30*time.Second, cfg.Customer.RequestTimeout())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
