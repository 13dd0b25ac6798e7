// Package config loads the chain engine's configuration: scalar knobs
// from the environment and dictionary-shaped knobs from a JSON file,
// validated as a closed set so a typo'd top-level key fails loudly at
// startup instead of silently defaulting. Keys nested inside a
// top-level object are not checked.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/paaavkata/chainengine/internal/chainerr"
	"github.com/paaavkata/chainengine/internal/model"
)

// RiskTier holds the loss caps for one balance tier.
type RiskTier struct {
	DailyLossLimit float64 `json:"daily_loss_limit"`
	MaxTotalLoss   float64 `json:"max_total_loss"`
}

// SymbolConfig holds the pip geometry and volatility class for one symbol.
type SymbolConfig struct {
	PipSize           float64         `json:"pip_size"`
	PipValuePerStdLot float64         `json:"pip_value_per_std_lot"`
	Volatility        model.Volatility `json:"volatility"`
}

// DualOrderConfig gates the 2x-cohort risk check.
type DualOrderConfig struct {
	Enabled bool `json:"enabled"`
}

// jsonConfig is the closed set of dictionary-shaped keys loaded from the
// config file. Fields use pointers where "was it present" matters for
// the defaulting logic in loadJSONFile.
type jsonConfig struct {
	ProfitBookingConfig *struct {
		Enabled       *bool      `json:"enabled"`
		ProfitTargets []float64  `json:"profit_targets"`
		Multipliers   []int      `json:"multipliers"`
		SLReductions  []float64  `json:"sl_reductions"`
		MaxLevel      *int       `json:"max_level"`
	} `json:"profit_booking_config"`
	RRRatio            *float64                `json:"rr_ratio"`
	SimulateOrders     *bool                   `json:"simulate_orders"`
	SymbolConfig       map[string]SymbolConfig `json:"symbol_config"`
	RiskTiers          map[string]RiskTier     `json:"risk_tiers"`
	FixedLotSizes      map[string]float64      `json:"fixed_lot_sizes"`
	ManualLotOverrides map[string]float64      `json:"manual_lot_overrides"`
	DualOrderConfig    *DualOrderConfig        `json:"dual_order_config"`
}

// Config is the fully loaded, validated configuration for one chain
// engine instance.
type Config struct {
	Enabled            bool
	Schedule           model.Schedule
	RRRatio            float64
	SimulateOrders     bool
	SymbolConfig       map[string]SymbolConfig
	RiskTiers          map[string]RiskTier
	FixedLotSizes      map[string]float64
	ManualLotOverrides map[string]float64
	DualOrderConfig    DualOrderConfig

	TickInterval  int // seconds, env TICK_INTERVAL_SECONDS
	LedgerPath    string
	ConfigFile    string
	DatabaseURI   string
	WebhookURL    string
	BrokerBaseURL string
}

var defaultProfitTargets = []float64{10, 20, 40, 80, 160}
var defaultMultipliers = []int{1, 2, 4, 8, 16}
var defaultSLReductions = []float64{0, 10, 25, 40, 50}

var defaultRiskTiers = map[string]RiskTier{
	"5000":   {DailyLossLimit: 250, MaxTotalLoss: 1000},
	"10000":  {DailyLossLimit: 500, MaxTotalLoss: 2000},
	"25000":  {DailyLossLimit: 1250, MaxTotalLoss: 5000},
	"50000":  {DailyLossLimit: 2500, MaxTotalLoss: 10000},
	"100000": {DailyLossLimit: 5000, MaxTotalLoss: 20000},
}

var defaultFixedLotSizes = map[string]float64{
	"5000":   0.05,
	"10000":  0.1,
	"25000":  0.25,
	"50000":  0.5,
	"100000": 1.0,
}

// knownTopLevelKeys is the closed key set; an unrecognised key in the
// JSON config file is a load-time validation error, not a silent no-op.
var knownTopLevelKeys = map[string]bool{
	"profit_booking_config": true,
	"rr_ratio":              true,
	"simulate_orders":       true,
	"symbol_config":         true,
	"risk_tiers":            true,
	"fixed_lot_sizes":       true,
	"manual_lot_overrides":  true,
	"dual_order_config":     true,
}

// Load builds a Config from environment scalars plus the JSON file named
// by CHAIN_ENGINE_CONFIG_FILE (default config/chainengine.json). A
// missing config file is not an error: the dictionary-shaped defaults
// apply.
func Load() (*Config, error) {
	cfg := &Config{
		Enabled: getEnvBool("PROFIT_BOOKING_ENABLED", true),
		Schedule: model.Schedule{
			ProfitTargets: append([]float64(nil), defaultProfitTargets...),
			Multipliers:   append([]int(nil), defaultMultipliers...),
			SLReductions:  append([]float64(nil), defaultSLReductions...),
		},
		RRRatio:            getEnvFloat("RR_RATIO", 1.0),
		SimulateOrders:     getEnvBool("SIMULATE_ORDERS", false),
		SymbolConfig:       map[string]SymbolConfig{},
		RiskTiers:          cloneRiskTiers(defaultRiskTiers),
		FixedLotSizes:      cloneFloatMap(defaultFixedLotSizes),
		ManualLotOverrides: map[string]float64{},
		DualOrderConfig:    DualOrderConfig{Enabled: getEnvBool("DUAL_ORDER_CONFIG_ENABLED", true)},
		TickInterval:       getEnvInt("TICK_INTERVAL_SECONDS", 30),
		LedgerPath:         getEnv("LEDGER_STATS_FILE", "data/stats.json"),
		ConfigFile:         getEnv("CHAIN_ENGINE_CONFIG_FILE", "config/chainengine.json"),
		DatabaseURI:        getEnv("DB_URI", "localhost"),
		WebhookURL:         getEnv("NOTIFIER_WEBHOOK_URL", ""),
		BrokerBaseURL:      getEnv("BROKER_BASE_URL", ""),
	}

	if err := cfg.loadJSONFile(cfg.ConfigFile); err != nil {
		return nil, err
	}

	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return chainerr.Wrap(chainerr.ConfigInvalid, err, "config file %s is not valid JSON", path)
	}
	for key := range raw {
		if !knownTopLevelKeys[key] {
			return chainerr.New(chainerr.ConfigInvalid, "unknown config key %q in %s", key, path)
		}
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return chainerr.Wrap(chainerr.ConfigInvalid, err, "decoding config file %s", path)
	}

	if jc.ProfitBookingConfig != nil {
		pb := jc.ProfitBookingConfig
		if pb.Enabled != nil {
			c.Enabled = *pb.Enabled
		}
		if len(pb.ProfitTargets) > 0 {
			c.Schedule.ProfitTargets = pb.ProfitTargets
		}
		if len(pb.Multipliers) > 0 {
			c.Schedule.Multipliers = pb.Multipliers
		}
		if len(pb.SLReductions) > 0 {
			c.Schedule.SLReductions = pb.SLReductions
		}
		if pb.MaxLevel != nil {
			want := *pb.MaxLevel + 1
			if len(c.Schedule.ProfitTargets) != want {
				return chainerr.New(chainerr.ConfigInvalid,
					"max_level=%d implies %d schedule entries, got %d", *pb.MaxLevel, want, len(c.Schedule.ProfitTargets))
			}
		}
	}
	if jc.RRRatio != nil {
		c.RRRatio = *jc.RRRatio
	}
	if jc.SimulateOrders != nil {
		c.SimulateOrders = *jc.SimulateOrders
	}
	if jc.SymbolConfig != nil {
		c.SymbolConfig = jc.SymbolConfig
	}
	if jc.RiskTiers != nil {
		c.RiskTiers = jc.RiskTiers
	}
	if jc.FixedLotSizes != nil {
		c.FixedLotSizes = jc.FixedLotSizes
	}
	if jc.ManualLotOverrides != nil {
		c.ManualLotOverrides = jc.ManualLotOverrides
	}
	if jc.DualOrderConfig != nil {
		c.DualOrderConfig = *jc.DualOrderConfig
	}
	return nil
}

func cloneRiskTiers(m map[string]RiskTier) map[string]RiskTier {
	out := make(map[string]RiskTier, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
