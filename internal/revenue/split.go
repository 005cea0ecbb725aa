package revenue

import (
	"fmt"

	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// Distribution types known to the default split table.
const (
	DistributionContentPurchase = "content_purchase"
	DistributionSubscription    = "subscription"
)

// Split holds the writer/platform percentages for one distribution type.
type Split struct {
	WriterPercentage   int64
	PlatformPercentage int64
}

// SplitTable maps distribution types to their configured split. Default, if
// set, is applied to unknown types; otherwise unknown types are rejected.
type SplitTable struct {
	Splits  map[string]Split
	Default *Split
}

// SplitResult is the outcome of splitting a gross amount.
type SplitResult struct {
	GrossAmount        decimal.Decimal
	WriterShare        decimal.Decimal
	PlatformShare      decimal.Decimal
	WriterPercentage   decimal.Decimal
	PlatformPercentage decimal.Decimal
}

// Calculator computes writer/platform revenue splits. It is pure: callers
// persist the result as a RevenueDistribution record.
type Calculator struct {
	table SplitTable
}

func NewCalculator(table SplitTable) *Calculator {
	return &Calculator{table: table}
}

var oneHundred = decimal.NewFromInt(100)

// Split divides gross between writer and platform for the given distribution
// type. The writer share is rounded to the currency's minimum unit and the
// platform share is derived by subtraction, so the two always sum to gross
// exactly.
func (c *Calculator) Split(distributionType string, gross decimal.Decimal) (SplitResult, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return SplitResult{}, fmt.Errorf("%w: gross %s", store.ErrInvalidAmount, gross.String())
	}

	split, ok := c.table.Splits[distributionType]
	if !ok {
		if c.table.Default == nil {
			return SplitResult{}, fmt.Errorf("%w: %s", store.ErrUnknownTransactionType, distributionType)
		}
		split = *c.table.Default
	}

	writerPct := decimal.NewFromInt(split.WriterPercentage)
	platformPct := decimal.NewFromInt(split.PlatformPercentage)

	writerShare := gross.Mul(writerPct).Div(oneHundred).Round(2)
	platformShare := gross.Sub(writerShare)

	return SplitResult{
		GrossAmount:        gross,
		WriterShare:        writerShare,
		PlatformShare:      platformShare,
		WriterPercentage:   writerPct,
		PlatformPercentage: platformPct,
	}, nil
}

// SplitFor reports whether the table has an explicit entry for a type.
func (c *Calculator) SplitFor(distributionType string) (Split, bool) {
	split, ok := c.table.Splits[distributionType]
	return split, ok
}
