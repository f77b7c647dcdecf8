package application

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"fleet-waybill/internal/season"
	waybill "fleet-waybill/internal/waybill/domain"
)

// SeasonDefaults is the fallback season policy applied when an org has no
// policy configured.
type SeasonDefaults struct {
	Mode        string `yaml:"mode"`
	SummerMonth int    `yaml:"summer_month"`
	SummerDay   int    `yaml:"summer_day"`
	WinterMonth int    `yaml:"winter_month"`
	WinterDay   int    `yaml:"winter_day"`
	WinterStart string `yaml:"winter_start"`
	WinterEnd   string `yaml:"winter_end"`
}

// Config defines posting-policy configuration.
type Config struct {
	// OverageThreshold is the tolerated excess of actual over planned
	// consumption as a fraction (0.10 = +10%).
	OverageThreshold float64 `yaml:"overage_threshold"`
	// BalanceTolerance absorbs rounding drift in fuel balance checks.
	BalanceTolerance float64        `yaml:"balance_tolerance"`
	Season           SeasonDefaults `yaml:"season"`
}

// LoadConfig loads config from yaml or env. The file path comes from
// WAYBILL_CONFIG; env vars override nothing set in the file.
func LoadConfig() (Config, error) {
	cfg := Config{
		OverageThreshold: getenvFloatDefault("WAYBILL_OVERAGE_THRESHOLD", 0.10),
		BalanceTolerance: getenvFloatDefault("WAYBILL_BALANCE_TOLERANCE", waybill.BalanceTolerance),
	}

	if path := os.Getenv("WAYBILL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.OverageThreshold <= 0 {
		cfg.OverageThreshold = 0.10
	}
	if cfg.BalanceTolerance <= 0 {
		cfg.BalanceTolerance = waybill.BalanceTolerance
	}
	return cfg, nil
}

// DefaultSeasonPolicy converts the configured defaults into a season policy,
// or nil when none is configured or the values are unusable.
func (c Config) DefaultSeasonPolicy() *season.Policy {
	switch season.PolicyKind(c.Season.Mode) {
	case season.PolicyRecurring:
		return &season.Policy{
			Kind:        season.PolicyRecurring,
			SummerMonth: time.Month(c.Season.SummerMonth),
			SummerDay:   c.Season.SummerDay,
			WinterMonth: time.Month(c.Season.WinterMonth),
			WinterDay:   c.Season.WinterDay,
		}
	case season.PolicyManual:
		start, errStart := time.Parse("2006-01-02", c.Season.WinterStart)
		end, errEnd := time.Parse("2006-01-02", c.Season.WinterEnd)
		if errStart != nil || errEnd != nil {
			return nil
		}
		return &season.Policy{Kind: season.PolicyManual, WinterStart: start, WinterEnd: end}
	default:
		return nil
	}
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
