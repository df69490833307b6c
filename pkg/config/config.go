package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NodeConfig holds all configuration for a Bitcoin node
type NodeConfig struct {
	// Node Identity
	NodeID string

	// Network Configuration
	Network      string   // mainnet, testnet, regtest
	RPCPort      int      // RPC server port
	P2PPort      int      // P2P network port
	InitialPeers []string // List of initial peer addresses

	// Storage
	DataDir string // Data directory path

	// Mining Configuration
	MiningEnabled bool          // Enable mining
	MinerAddress  string        // Address to receive mining rewards
	AutoMine      bool          // Automatically mine blocks
	MineInterval  time.Duration // Interval between auto-mining attempts

	// Mempool Configuration
	MempoolMaxOrphans           int     // Max orphan transactions held
	MempoolMaxTxWeight          int64   // Per-transaction weight cap for orphans
	MempoolMaxAncestors         int     // Unconfirmed ancestor chain limit
	MempoolHardCapBytes         int64   // Pool size that triggers eviction
	MempoolSoftThresholdBytes   int64   // Pool size eviction shrinks back to
	MempoolExpiryHours          int     // Entry age before unconditional expiry
	MempoolRejectFilterCapacity uint64  // Reject bloom filter item capacity
	MempoolRejectFilterFPRate   float64 // Reject bloom filter false-positive rate
	MempoolMinRelayFeeRate      int64   // Relay fee floor, satoshis per vbyte
	MempoolAbsurdFeeMultiplier  int64   // Fee ceiling as a multiple of the floor
	MempoolRequireStandard      bool    // Enforce standardness policy

	// Logging
	LogLevel string // debug, info, warn, error
	LogFile  string // Optional rotating log file path

	// Monitoring
	EnableMonitoring bool // Enable monitoring/metrics
}

// DefaultConfig returns the default configuration
func DefaultConfig() *NodeConfig {
	return &NodeConfig{
		NodeID:           "bitcoin-node",
		Network:          "regtest",
		RPCPort:          8332,
		P2PPort:          8333,
		DataDir:          "./data/node",
		MiningEnabled:    false,
		MinerAddress:     "",
		AutoMine:         false,
		MineInterval:     10 * time.Second,
		LogLevel:         "info",
		LogFile:          "",
		InitialPeers:     []string{},
		EnableMonitoring: false,

		MempoolMaxOrphans:           100,
		MempoolMaxTxWeight:          400000,
		MempoolMaxAncestors:         25,
		MempoolHardCapBytes:         300 * 1000 * 1000,
		MempoolSoftThresholdBytes:   290 * 1000 * 1000,
		MempoolExpiryHours:          14 * 24,
		MempoolRejectFilterCapacity: 120000,
		MempoolRejectFilterFPRate:   1e-6,
		MempoolMinRelayFeeRate:      1,
		MempoolAbsurdFeeMultiplier:  10000,
		MempoolRequireStandard:      true,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *NodeConfig {
	cfg := DefaultConfig()

	// Node Identity
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		cfg.NodeID = nodeID
	}

	// Network Configuration
	if network := os.Getenv("NETWORK"); network != "" {
		cfg.Network = network
	}

	if rpcPort := os.Getenv("RPC_PORT"); rpcPort != "" {
		if port, err := strconv.Atoi(rpcPort); err == nil {
			cfg.RPCPort = port
		}
	}

	if p2pPort := os.Getenv("P2P_PORT"); p2pPort != "" {
		if port, err := strconv.Atoi(p2pPort); err == nil {
			cfg.P2PPort = port
		}
	}

	if peers := os.Getenv("INITIAL_PEERS"); peers != "" {
		cfg.InitialPeers = strings.Split(peers, ",")
	}

	// Storage
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	// Mining Configuration
	if miningEnabled := os.Getenv("MINING_ENABLED"); miningEnabled != "" {
		cfg.MiningEnabled = strings.ToLower(miningEnabled) == "true"
	}

	if minerAddr := os.Getenv("MINER_ADDRESS"); minerAddr != "" {
		cfg.MinerAddress = minerAddr
	}

	if autoMine := os.Getenv("AUTO_MINE"); autoMine != "" {
		cfg.AutoMine = strings.ToLower(autoMine) == "true"
	}

	if mineInterval := os.Getenv("MINE_INTERVAL"); mineInterval != "" {
		if interval, err := strconv.Atoi(mineInterval); err == nil {
			cfg.MineInterval = time.Duration(interval) * time.Second
		}
	}

	// Mempool Configuration
	if maxOrphans := os.Getenv("MEMPOOL_MAX_ORPHANS"); maxOrphans != "" {
		if n, err := strconv.Atoi(maxOrphans); err == nil {
			cfg.MempoolMaxOrphans = n
		}
	}

	if hardCap := os.Getenv("MEMPOOL_HARD_CAP_BYTES"); hardCap != "" {
		if n, err := strconv.ParseInt(hardCap, 10, 64); err == nil {
			cfg.MempoolHardCapBytes = n
		}
	}

	if softThreshold := os.Getenv("MEMPOOL_SOFT_THRESHOLD_BYTES"); softThreshold != "" {
		if n, err := strconv.ParseInt(softThreshold, 10, 64); err == nil {
			cfg.MempoolSoftThresholdBytes = n
		}
	}

	if expiry := os.Getenv("MEMPOOL_EXPIRY_HOURS"); expiry != "" {
		if n, err := strconv.Atoi(expiry); err == nil {
			cfg.MempoolExpiryHours = n
		}
	}

	if minRelay := os.Getenv("MEMPOOL_MIN_RELAY_FEE_RATE"); minRelay != "" {
		if n, err := strconv.ParseInt(minRelay, 10, 64); err == nil {
			cfg.MempoolMinRelayFeeRate = n
		}
	}

	if requireStandard := os.Getenv("MEMPOOL_REQUIRE_STANDARD"); requireStandard != "" {
		cfg.MempoolRequireStandard = strings.ToLower(requireStandard) == "true"
	}

	// Logging
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}

	// Monitoring
	if enableMonitoring := os.Getenv("ENABLE_MONITORING"); enableMonitoring != "" {
		cfg.EnableMonitoring = strings.ToLower(enableMonitoring) == "true"
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *NodeConfig) Validate() error {
	// Validate network
	validNetworks := map[string]bool{
		"mainnet": true,
		"testnet": true,
		"regtest": true,
	}
	if !validNetworks[c.Network] {
		return fmt.Errorf("invalid network: %s (must be mainnet, testnet, or regtest)", c.Network)
	}

	// Validate ports
	if c.RPCPort < 1 || c.RPCPort > 65535 {
		return fmt.Errorf("invalid RPC port: %d", c.RPCPort)
	}
	if c.P2PPort < 1 || c.P2PPort > 65535 {
		return fmt.Errorf("invalid P2P port: %d", c.P2PPort)
	}

	// Validate data directory
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	// Validate mining configuration
	if c.MiningEnabled && c.MinerAddress == "" {
		return fmt.Errorf("miner address required when mining is enabled")
	}

	// Validate mempool configuration
	if c.MempoolHardCapBytes <= 0 {
		return fmt.Errorf("mempool hard cap must be positive: %d", c.MempoolHardCapBytes)
	}
	if c.MempoolSoftThresholdBytes <= 0 || c.MempoolSoftThresholdBytes > c.MempoolHardCapBytes {
		return fmt.Errorf("mempool soft threshold %d must be positive and at most the hard cap %d",
			c.MempoolSoftThresholdBytes, c.MempoolHardCapBytes)
	}
	if c.MempoolMaxOrphans < 0 {
		return fmt.Errorf("mempool max orphans cannot be negative: %d", c.MempoolMaxOrphans)
	}
	if c.MempoolMinRelayFeeRate < 0 {
		return fmt.Errorf("mempool min relay fee rate cannot be negative: %d", c.MempoolMinRelayFeeRate)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// String returns a string representation of the configuration
func (c *NodeConfig) String() string {
	return fmt.Sprintf(`Bitcoin Node Configuration:
  Node ID:          %s
  Network:          %s
  RPC Port:         %d
  P2P Port:         %d
  Data Directory:   %s
  Mining Enabled:   %v
  Miner Address:    %s
  Auto Mine:        %v
  Mine Interval:    %v
  Log Level:        %s
  Mempool Hard Cap: %d bytes
  Min Relay Fee:    %d sat/vB
  Initial Peers:    %v
  Enable Monitoring: %v`,
		c.NodeID,
		c.Network,
		c.RPCPort,
		c.P2PPort,
		c.DataDir,
		c.MiningEnabled,
		c.MinerAddress,
		c.AutoMine,
		c.MineInterval,
		c.LogLevel,
		c.MempoolHardCapBytes,
		c.MempoolMinRelayFeeRate,
		c.InitialPeers,
		c.EnableMonitoring,
	)
}

// GetRPCAddress returns the full RPC address
func (c *NodeConfig) GetRPCAddress() string {
	return fmt.Sprintf(":%d", c.RPCPort)
}

// GetP2PAddress returns the full P2P address
func (c *NodeConfig) GetP2PAddress() string {
	return fmt.Sprintf(":%d", c.P2PPort)
}
