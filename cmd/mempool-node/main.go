package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/config"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/consensus"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/mempool"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/monitoring"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/network"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/storage"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/validation"
)

// options is the command line surface. Anything not given here falls back
// to the environment-loaded NodeConfig defaults.
type options struct {
	DataDir  string `short:"d" long:"datadir" description:"Data directory for chain and mempool state"`
	Network  string `short:"n" long:"network" description:"Network to run on (mainnet, testnet, regtest)"`
	P2PPort  int    `long:"p2pport" description:"P2P listen port"`
	LogLevel string `long:"loglevel" description:"Log level (debug, info, warn, error)"`
	LogFile  string `long:"logfile" description:"Rotating log file path (stdout if unset)"`

	MaxOrphans   int   `long:"maxorphans" description:"Maximum orphan transactions held"`
	HardCapBytes int64 `long:"maxmempool" description:"Mempool hard cap in bytes"`
	MinRelayFee  int64 `long:"minrelayfee" description:"Relay fee floor in sat/vB"`
	AcceptNonStd bool  `long:"acceptnonstd" description:"Relax standardness policy"`
	NoJournal    bool  `long:"nojournal" description:"Disable mempool persistence across restarts"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mempool-node: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	cfg := config.LoadFromEnv()
	applyOptions(cfg, &opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := monitoring.NewLogger(parseLogLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		logRotator, err := rotator.New(cfg.LogFile, 10*1024, false, 3)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logRotator.Close()
		logger.SetOutput(logRotator)
	}

	logger.Infof("starting mempool node on %s", cfg.Network)

	chain, err := storage.NewBlockchainStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open blockchain storage: %w", err)
	}
	defer chain.Close()

	utxoSet := utxo.NewUTXOSet()
	rules := rulesFor(cfg.Network)
	chainView := validation.NewMempoolChain(chain, utxoSet, rules)

	mp := mempool.New(
		mempoolConfig(cfg),
		mempool.DefaultPolicy(),
		chainView,
		mempool.NetParams{
			RequireStandard: cfg.MempoolRequireStandard,
			MinRelayFeeRate: cfg.MempoolMinRelayFeeRate,
		},
		nil,
		logger,
		nil,
	)

	var journal *storage.MempoolJournal
	if !opts.NoJournal {
		journal, err = storage.OpenMempoolJournal(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open mempool journal: %w", err)
		}
		defer journal.Close()
		restoreMempool(mp, journal, logger)
	}

	node := network.NewNode(network.NodeConfig{
		ListenAddr: cfg.GetP2PAddress(),
		SeedNodes:  cfg.InitialPeers,
		UserAgent:  "mempool-node/1.0",
	}, chain, mp)

	if err := node.Start(); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	node.Stop()

	if journal != nil {
		persistMempool(mp, journal, logger)
	}

	logger.Info("node stopped")
	return nil
}

// applyOptions overlays explicitly-set flags on top of the environment
// configuration.
func applyOptions(cfg *config.NodeConfig, opts *options) {
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Network != "" {
		cfg.Network = opts.Network
	}
	if opts.P2PPort != 0 {
		cfg.P2PPort = opts.P2PPort
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if opts.MaxOrphans != 0 {
		cfg.MempoolMaxOrphans = opts.MaxOrphans
	}
	if opts.HardCapBytes != 0 {
		cfg.MempoolHardCapBytes = opts.HardCapBytes
		if cfg.MempoolSoftThresholdBytes > opts.HardCapBytes {
			cfg.MempoolSoftThresholdBytes = opts.HardCapBytes * 29 / 30
		}
	}
	if opts.MinRelayFee != 0 {
		cfg.MempoolMinRelayFeeRate = opts.MinRelayFee
	}
	if opts.AcceptNonStd {
		cfg.MempoolRequireStandard = false
	}
}

// mempoolConfig maps the node configuration onto the pool's tuning knobs.
func mempoolConfig(cfg *config.NodeConfig) mempool.Config {
	mc := mempool.DefaultConfig()
	mc.MaxOrphans = cfg.MempoolMaxOrphans
	mc.MaxTxWeight = cfg.MempoolMaxTxWeight
	mc.MaxAncestors = cfg.MempoolMaxAncestors
	mc.HardCapBytes = cfg.MempoolHardCapBytes
	mc.SoftThresholdBytes = cfg.MempoolSoftThresholdBytes
	mc.ExpiryHorizon = time.Duration(cfg.MempoolExpiryHours) * time.Hour
	mc.RejectFilterCapacity = cfg.MempoolRejectFilterCapacity
	mc.RejectFilterFPRate = cfg.MempoolRejectFilterFPRate
	mc.AbsurdFeeMultiplier = cfg.MempoolAbsurdFeeMultiplier
	return mc
}

func rulesFor(network string) *consensus.ConsensusRules {
	switch network {
	case "mainnet":
		return consensus.NewMainnetRules()
	case "testnet":
		return consensus.NewTestnetRules()
	default:
		return consensus.NewRegtestRules()
	}
}

func parseLogLevel(level string) monitoring.LogLevel {
	switch level {
	case "debug":
		return monitoring.DEBUG
	case "warn":
		return monitoring.WARN
	case "error":
		return monitoring.ERROR
	default:
		return monitoring.INFO
	}
}

// restoreMempool replays journaled transactions through the admission
// pipeline. Entries the current chain context no longer accepts are
// silently dropped — the journal is best-effort by design.
func restoreMempool(mp *mempool.Mempool, journal *storage.MempoolJournal, logger *monitoring.Logger) {
	records, err := journal.Load()
	if err != nil {
		logger.Warnf("failed to load mempool journal: %v", err)
		return
	}

	restored := 0
	for _, rec := range records {
		if entry, err := mp.Add(rec.Tx, -1); err == nil && entry != nil {
			restored++
		}
	}
	if len(records) > 0 {
		logger.Infof("restored %d of %d journaled mempool transactions", restored, len(records))
	}
}

// persistMempool writes the pool's current contents back to the journal.
func persistMempool(mp *mempool.Mempool, journal *storage.MempoolJournal, logger *monitoring.Logger) {
	entries := mp.Entries()
	records := make([]storage.JournalRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, storage.JournalRecord{Tx: e.Tx, Time: e.Time})
	}
	if err := journal.Save(records); err != nil {
		logger.Warnf("failed to persist mempool journal: %v", err)
		return
	}
	logger.Infof("persisted %d mempool transactions", len(records))
}
