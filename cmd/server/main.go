package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tradeScope/internal/chain"
	"tradeScope/internal/config"
	"tradeScope/internal/dex"
	"tradeScope/internal/eth"
	"tradeScope/internal/mcp"
	"tradeScope/internal/storage"
	"tradeScope/internal/storage/postgres"
	"tradeScope/internal/tools"
	"tradeScope/internal/wallet"
)

func main() {
	root := &cobra.Command{
		Use:          "tradescope",
		Short:        "Ethereum swap quoting and tool-calling server",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over stdio",
		RunE:  runServe,
	}

	serveCmd.Flags().String("rpc", "", "Ethereum RPC URL, auto-selected from public endpoints when empty")
	serveCmd.Flags().String("private-key", "", "hex-encoded signing key")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for the audit log")
	serveCmd.Flags().String("audit-out", "./data/tool_log.jsonl", "audit JSONL path")
	serveCmd.Flags().Bool("audit-enabled", true, "record tool invocations")
	serveCmd.Flags().String("v2-router", config.DefaultV2Router, "UniswapV2 router address")
	serveCmd.Flags().String("v2-factory", config.DefaultV2Factory, "UniswapV2 factory address")
	serveCmd.Flags().String("v3-quoter", config.DefaultV3Quoter, "UniswapV3 quoter address")
	serveCmd.Flags().String("v3-router", config.DefaultV3Router, "UniswapV3 router address")
	serveCmd.Flags().String("wrapped-native", config.DefaultWrappedNative, "wrapped native token address")
	serveCmd.Flags().String("stable", config.DefaultStable, "stable token address for USD pricing")
	serveCmd.Flags().Uint("stable-decimals", 6, "stable token decimals")
	serveCmd.Flags().IntSlice("fee-tiers", []int{500, 3000, 10000}, "UniswapV3 fee tiers to quote")
	serveCmd.Flags().Int64("impact-divisor", 100, "price impact reference trade divisor")
	serveCmd.Flags().Uint64("deadline-secs", 900, "swap deadline in seconds")
	serveCmd.Flags().Duration("probe-timeout", 5*time.Second, "endpoint probe timeout")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe public RPC endpoints and print the first healthy one",
		RunE:  runProbe,
	}

	probeCmd.Flags().Duration("probe-timeout", 5*time.Second, "endpoint probe timeout")
	probeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(probeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		selected, err := chain.SelectEndpoint(ctx, chain.DefaultEndpoints, cfg.ProbeTimeout, chain.ProbeEndpoint, logger)
		if err != nil {
			return err
		}
		rpcURL = selected
	}

	client, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	logger.Info("connected", zap.String("rpc", rpcURL), zap.String("chain_id", chainID.String()))

	signer, err := wallet.New(cfg.PrivateKey, chainID)
	if err != nil {
		return err
	}

	ethCfg, err := buildEthConfig(cfg)
	if err != nil {
		return err
	}
	ethClient := eth.NewClient(client, signer, ethCfg, logger)

	store, closeStore, err := newAuditStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	server := mcp.NewServer(tools.New(ethClient, logger), store, logger)
	logger.Info("serving tools over stdio", zap.String("wallet", signer.Address().Hex()))

	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selected, err := chain.SelectEndpoint(ctx, chain.DefaultEndpoints, cfg.ProbeTimeout, chain.ProbeEndpoint, logger)
	if err != nil {
		return err
	}
	fmt.Println(selected)
	return nil
}

func buildEthConfig(cfg config.Config) (eth.Config, error) {
	addresses := map[string]common.Address{}
	for name, value := range map[string]string{
		"v2-router":      cfg.V2Router,
		"v2-factory":     cfg.V2Factory,
		"v3-quoter":      cfg.V3Quoter,
		"v3-router":      cfg.V3Router,
		"wrapped-native": cfg.WrappedNative,
		"stable":         cfg.Stable,
	} {
		if !common.IsHexAddress(value) {
			return eth.Config{}, fmt.Errorf("invalid %s address: %q", name, value)
		}
		addresses[name] = common.HexToAddress(value)
	}

	registry := make(map[string]common.Address, len(cfg.Tokens))
	for symbol, value := range cfg.Tokens {
		if !common.IsHexAddress(value) {
			return eth.Config{}, fmt.Errorf("invalid address for token %s: %q", symbol, value)
		}
		registry[symbol] = common.HexToAddress(value)
	}

	return eth.Config{
		Dex: dex.Config{
			V2Router:      addresses["v2-router"],
			V2Factory:     addresses["v2-factory"],
			V3Quoter:      addresses["v3-quoter"],
			V3Router:      addresses["v3-router"],
			WrappedNative: addresses["wrapped-native"],
			FeeTiers:      cfg.FeeTiers,
			ImpactDivisor: cfg.ImpactDivisor,
		},
		Stable:         addresses["stable"],
		StableDecimals: cfg.StableDecimals,
		Registry:       registry,
		DeadlineSecs:   cfg.DeadlineSecs,
	}, nil
}

func newAuditStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Storage, func(), error) {
	if !cfg.AuditEnabled {
		return storage.Discard{}, func() {}, nil
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit store: %w", err)
		}
		logger.Info("audit log to postgres")
		return store, store.Close, nil
	}
	logger.Info("audit log to jsonl", zap.String("path", cfg.AuditOut))
	return storage.NewJsonlStorage(cfg.AuditOut), func() {}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
