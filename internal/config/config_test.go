package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.V2Router != DefaultV2Router || cfg.WrappedNative != DefaultWrappedNative {
		t.Fatalf("address defaults missing: %+v", cfg)
	}
	if cfg.StableDecimals != 6 || cfg.DeadlineSecs != 900 || cfg.ImpactDivisor != 100 {
		t.Fatalf("tunable defaults missing: %+v", cfg)
	}
	if len(cfg.FeeTiers) != 3 || cfg.FeeTiers[0] != 500 {
		t.Fatalf("fee tier defaults missing: %v", cfg.FeeTiers)
	}
	if cfg.Tokens["usdc"] != DefaultStable && cfg.Tokens["USDC"] != DefaultStable {
		t.Fatalf("token registry default missing: %v", cfg.Tokens)
	}
	if cfg.ProbeTimeout != 5*time.Second {
		t.Fatalf("probe timeout default missing: %v", cfg.ProbeTimeout)
	}
	if !cfg.AuditEnabled {
		t.Fatalf("audit not enabled by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRADESCOPE_RPC", "https://example.invalid/rpc")
	t.Setenv("TRADESCOPE_DEADLINE_SECS", "1200")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://example.invalid/rpc" {
		t.Fatalf("rpc env override ignored: %q", cfg.RPCURL)
	}
	if cfg.DeadlineSecs != 1200 {
		t.Fatalf("deadline env override ignored: %d", cfg.DeadlineSecs)
	}
}

func TestLoadFlagOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--rpc=wss://node.example", "--log-level=debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "wss://node.example" {
		t.Fatalf("rpc flag override ignored: %q", cfg.RPCURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level flag override ignored: %q", cfg.LogLevel)
	}
}
