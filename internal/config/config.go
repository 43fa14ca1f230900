package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mainnet contract addresses used as defaults.
const (
	DefaultV2Router      = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"
	DefaultV2Factory     = "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"
	DefaultV3Quoter      = "0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6"
	DefaultV3Router      = "0xE592427A0AEce92De3Edee1F18E0157C05861564"
	DefaultWrappedNative = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	DefaultStable        = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	PrivateKey string

	PGDSN        string
	AuditOut     string
	AuditEnabled bool

	V2Router      string
	V2Factory     string
	V3Quoter      string
	V3Router      string
	WrappedNative string
	Stable        string

	StableDecimals uint8
	FeeTiers       []uint32
	ImpactDivisor  int64
	DeadlineSecs   uint64
	Tokens         map[string]string

	ProbeTimeout time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRADESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("audit-out", "./data/tool_log.jsonl")
	v.SetDefault("audit-enabled", true)
	v.SetDefault("v2-router", DefaultV2Router)
	v.SetDefault("v2-factory", DefaultV2Factory)
	v.SetDefault("v3-quoter", DefaultV3Quoter)
	v.SetDefault("v3-router", DefaultV3Router)
	v.SetDefault("wrapped-native", DefaultWrappedNative)
	v.SetDefault("stable", DefaultStable)
	v.SetDefault("stable-decimals", 6)
	v.SetDefault("fee-tiers", []uint32{500, 3000, 10000})
	v.SetDefault("impact-divisor", int64(100))
	v.SetDefault("deadline-secs", uint64(900))
	v.SetDefault("tokens", map[string]string{
		"WETH": DefaultWrappedNative,
		"USDC": DefaultStable,
		"USDT": "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		"DAI":  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"WBTC": "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599",
	})
	v.SetDefault("probe-timeout", 5*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		PrivateKey:     v.GetString("private-key"),
		PGDSN:          v.GetString("pg-dsn"),
		AuditOut:       v.GetString("audit-out"),
		AuditEnabled:   v.GetBool("audit-enabled"),
		V2Router:       v.GetString("v2-router"),
		V2Factory:      v.GetString("v2-factory"),
		V3Quoter:       v.GetString("v3-quoter"),
		V3Router:       v.GetString("v3-router"),
		WrappedNative:  v.GetString("wrapped-native"),
		Stable:         v.GetString("stable"),
		StableDecimals: uint8(v.GetUint("stable-decimals")),
		FeeTiers:       getFeeTiers(v, "fee-tiers"),
		ImpactDivisor:  v.GetInt64("impact-divisor"),
		DeadlineSecs:   v.GetUint64("deadline-secs"),
		Tokens:         v.GetStringMapString("tokens"),
		ProbeTimeout:   v.GetDuration("probe-timeout"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

func getFeeTiers(v *viper.Viper, key string) []uint32 {
	raw := v.GetIntSlice(key)
	if len(raw) == 0 {
		return nil
	}
	tiers := make([]uint32, 0, len(raw))
	for _, tier := range raw {
		if tier <= 0 {
			continue
		}
		tiers = append(tiers, uint32(tier))
	}
	return tiers
}
