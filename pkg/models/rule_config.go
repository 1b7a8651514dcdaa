package models

// Rule config keys. A key absent from the store falls back to
// DefaultRuleValue.
const (
	ConfigKeyBasePoints       = "base_points"
	ConfigKeyLongBonus        = "long_bonus"
	ConfigKeyRegionBonus      = "region_bonus"
	ConfigKeyCountryBonus     = "country_bonus"
	ConfigKeyUltraUniqueBonus = "ultraunique_bonus"
)

// DefaultRuleValue is the weight used for any key missing from the store.
const DefaultRuleValue = 1.0

// RuleConfigKeys lists every recognized rule weight key.
var RuleConfigKeys = []string{
	ConfigKeyBasePoints,
	ConfigKeyLongBonus,
	ConfigKeyRegionBonus,
	ConfigKeyCountryBonus,
	ConfigKeyUltraUniqueBonus,
}

// IsValidRuleConfigKey reports whether key is a recognized rule weight.
func IsValidRuleConfigKey(key string) bool {
	for _, k := range RuleConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

// RuleConfig is one stored rule weight.
type RuleConfig struct {
	Key         string  `json:"key"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// RuleWeights is the resolved weight set used for one recalculation.
// It is read fresh from the store at the start of every recompute so
// admin changes apply to the next recalculation, never retroactively.
type RuleWeights struct {
	BasePoints       float64
	LongBonus        float64
	RegionBonus      float64
	CountryBonus     float64
	UltraUniqueBonus float64
}

// DefaultRuleWeights returns the hardcoded fallback weights.
func DefaultRuleWeights() RuleWeights {
	return RuleWeights{
		BasePoints:       DefaultRuleValue,
		LongBonus:        DefaultRuleValue,
		RegionBonus:      DefaultRuleValue,
		CountryBonus:     DefaultRuleValue,
		UltraUniqueBonus: DefaultRuleValue,
	}
}
