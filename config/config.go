package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Bus      BusConfig      `yaml:"bus"`
	Topology TopologyConfig `yaml:"topology"`
	Redis    RedisConfig    `yaml:"redis"`
	Building BuildingConfig `yaml:"building"`
	Customer CustomerConfig `yaml:"customer"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type BusConfig struct {
	Brokers []string `yaml:"brokers"`
}

// TopologyConfig names every destination the actors use. Tests pass their
// own values here to get an isolated topology per test.
type TopologyConfig struct {
	SnapshotTopic  string `yaml:"snapshot_topic"`
	CustomerInbox  string `yaml:"customer_inbox"`
	AgentPrefix    string `yaml:"agent_prefix"`
	BuildingPrefix string `yaml:"building_prefix"`
	CustomerPrefix string `yaml:"customer_prefix"`
}

// AgentInbox is the direct destination for replies addressed to one agent.
func (t TopologyConfig) AgentInbox(agentID string) string {
	return t.AgentPrefix + agentID
}

// BuildingInbox is the direct destination for requests addressed to one building.
func (t TopologyConfig) BuildingInbox(buildingID string) string {
	return t.BuildingPrefix + buildingID
}

// CustomerInboxFor is the direct destination for replies addressed to one customer.
func (t TopologyConfig) CustomerInboxFor(customerID string) string {
	return t.CustomerPrefix + customerID
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type BuildingConfig struct {
	Rooms int `yaml:"rooms"`
}

type CustomerConfig struct {
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

func (c CustomerConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DefaultTopology matches the destination names the deployed brokers use.
func DefaultTopology() TopologyConfig {
	return TopologyConfig{
		SnapshotTopic:  "building.snapshots",
		CustomerInbox:  "customer.requests",
		AgentPrefix:    "agent.",
		BuildingPrefix: "building.",
		CustomerPrefix: "customer.",
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Topology == (TopologyConfig{}) {
		cfg.Topology = DefaultTopology()
	}
	if cfg.Building.Rooms <= 0 {
		cfg.Building.Rooms = 3
	}

	return &cfg, nil
}
