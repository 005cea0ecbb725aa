package pricing

import (
	"fmt"
	"os"
	"path/filepath"

	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// ContentConfig describes one purchasable content type.
type ContentConfig struct {
	Coins          int64  `yaml:"coins"`
	SubscriberTier string `yaml:"subscriber_tier"` // optional; empty means coins only
}

// SplitConfig holds integer writer/platform percentages for one
// distribution type. They must sum to exactly 100.
type SplitConfig struct {
	Writer   int64 `yaml:"writer"`
	Platform int64 `yaml:"platform"`
}

// Config is the yaml catalog config: coin prices per content type,
// the revenue split table, the subscription tier order, and the fiat value
// of one coin.
type Config struct {
	Currency     string                   `yaml:"currency"`
	CoinValue    string                   `yaml:"coin_value"` // fiat value of one coin, e.g. "0.01"
	Content      map[string]ContentConfig `yaml:"content"`
	Tiers        []string                 `yaml:"tiers"`
	Splits       map[string]SplitConfig   `yaml:"splits"`
	DefaultSplit *SplitConfig             `yaml:"default_split"`

	coinValue decimal.Decimal // parsed during Validate
}

func Load(pricingFile string) (*Config, error) {
	var pricingPath string
	if filepath.IsAbs(pricingFile) {
		pricingPath = pricingFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		pricingPath = filepath.Join(wd, pricingFile)
	}

	data, err := os.ReadFile(pricingPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", pricingFile, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", pricingFile, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing config %s: %w", pricingFile, err)
	}

	return &config, nil
}

// Validate checks structural invariants of the catalog config.
func (c *Config) Validate() error {
	if c.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	coinValue, err := decimal.NewFromString(c.CoinValue)
	if err != nil {
		return fmt.Errorf("coin_value %q is not a valid decimal: %w", c.CoinValue, err)
	}
	if coinValue.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("coin_value must be positive, got %s", coinValue.String())
	}
	c.coinValue = coinValue
	if len(c.Content) == 0 {
		return fmt.Errorf("at least one content type is required")
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one subscription tier is required")
	}

	ranks := c.tierRanks()
	for contentType, content := range c.Content {
		if content.Coins <= 0 {
			return fmt.Errorf("content type %q needs a positive coin price, got %d", contentType, content.Coins)
		}
		if content.SubscriberTier != "" {
			if _, ok := ranks[content.SubscriberTier]; !ok {
				return fmt.Errorf("content type %q references unknown tier %q", contentType, content.SubscriberTier)
			}
		}
	}

	for distributionType, split := range c.Splits {
		if err := validateSplit(distributionType, split); err != nil {
			return err
		}
	}
	if c.DefaultSplit != nil {
		if err := validateSplit("default_split", *c.DefaultSplit); err != nil {
			return err
		}
	}

	return nil
}

func validateSplit(name string, split SplitConfig) error {
	if split.Writer < 0 || split.Platform < 0 {
		return fmt.Errorf("split %q has negative percentage", name)
	}
	if split.Writer+split.Platform != 100 {
		return fmt.Errorf("split %q must sum to 100, got %d", name, split.Writer+split.Platform)
	}
	return nil
}

func (c *Config) tierRanks() map[string]int {
	ranks := make(map[string]int, len(c.Tiers))
	for i, tier := range c.Tiers {
		ranks[tier] = i
	}
	return ranks
}

// PriceFor returns the coin price for a content type.
func (c *Config) PriceFor(contentType string) (int64, error) {
	content, ok := c.Content[contentType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", store.ErrInvalidContentType, contentType)
	}
	return content.Coins, nil
}

// SubscriberTierFor returns the minimum tier that unlocks a content type
// without spending coins, or "" if the type is coins-only.
func (c *Config) SubscriberTierFor(contentType string) (string, error) {
	content, ok := c.Content[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", store.ErrInvalidContentType, contentType)
	}
	return content.SubscriberTier, nil
}

// TierRank returns the position of a tier in the configured hierarchy.
// Tiers are totally ordered: higher rank covers lower requirements.
func (c *Config) TierRank(tier string) (int, bool) {
	rank, ok := c.tierRanks()[tier]
	return rank, ok
}

// FiatValue converts a coin amount to its fiat value at the configured coin
// value, rounded to 2 decimal places.
func (c *Config) FiatValue(coins int64) decimal.Decimal {
	return decimal.NewFromInt(coins).Mul(c.coinValue).Round(2)
}
