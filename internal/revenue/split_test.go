package revenue

import (
	"errors"
	"testing"

	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalculator() *Calculator {
	return NewCalculator(SplitTable{
		Splits: map[string]Split{
			DistributionContentPurchase: {WriterPercentage: 80, PlatformPercentage: 20},
			DistributionSubscription:    {WriterPercentage: 85, PlatformPercentage: 15},
		},
	})
}

func TestSplit_ContentPurchase(t *testing.T) {
	calc := testCalculator()

	result, err := calc.Split(DistributionContentPurchase, decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	assert.True(t, result.WriterShare.Equal(decimal.RequireFromString("8.00")),
		"writer share: %s", result.WriterShare)
	assert.True(t, result.PlatformShare.Equal(decimal.RequireFromString("2.00")),
		"platform share: %s", result.PlatformShare)
}

func TestSplit_SharesAlwaysSumToGross(t *testing.T) {
	calc := testCalculator()

	grosses := []string{"0.01", "0.03", "0.10", "0.99", "1.00", "33.33", "123.45"}
	for _, g := range grosses {
		gross := decimal.RequireFromString(g)
		result, err := calc.Split(DistributionContentPurchase, gross)
		require.NoError(t, err, "gross %s", g)
		assert.True(t, result.WriterShare.Add(result.PlatformShare).Equal(gross),
			"gross %s: %s + %s", g, result.WriterShare, result.PlatformShare)
	}
}

func TestSplit_OneCentAtThirtyThreePercent(t *testing.T) {
	calc := NewCalculator(SplitTable{
		Splits: map[string]Split{
			DistributionContentPurchase: {WriterPercentage: 33, PlatformPercentage: 67},
		},
	})

	// 33% of $0.01 rounds to $0.00; the platform keeps the full cent and
	// nothing is lost to rounding.
	result, err := calc.Split(DistributionContentPurchase, decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	assert.True(t, result.WriterShare.Equal(decimal.RequireFromString("0.00")),
		"writer share: %s", result.WriterShare)
	assert.True(t, result.PlatformShare.Equal(decimal.RequireFromString("0.01")),
		"platform share: %s", result.PlatformShare)
}

func TestSplit_RoundsHalfUp(t *testing.T) {
	calc := testCalculator()

	// 80% of 0.03 is 0.024, rounds to 0.02 leaving 0.01 for the platform
	result, err := calc.Split(DistributionContentPurchase, decimal.RequireFromString("0.03"))
	require.NoError(t, err)
	assert.True(t, result.WriterShare.Equal(decimal.RequireFromString("0.02")),
		"writer share: %s", result.WriterShare)
}

func TestSplit_RejectsNonPositiveGross(t *testing.T) {
	calc := testCalculator()

	_, err := calc.Split(DistributionContentPurchase, decimal.Zero)
	assert.True(t, errors.Is(err, store.ErrInvalidAmount))

	_, err = calc.Split(DistributionContentPurchase, decimal.RequireFromString("-1.00"))
	assert.True(t, errors.Is(err, store.ErrInvalidAmount))
}

func TestSplit_UnknownTypeWithoutDefault(t *testing.T) {
	calc := testCalculator()

	_, err := calc.Split("merchandise", decimal.RequireFromString("5.00"))
	assert.True(t, errors.Is(err, store.ErrUnknownTransactionType))
}

func TestSplit_UnknownTypeFallsBackToDefault(t *testing.T) {
	calc := NewCalculator(SplitTable{
		Splits:  map[string]Split{},
		Default: &Split{WriterPercentage: 70, PlatformPercentage: 30},
	})

	result, err := calc.Split("merchandise", decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.True(t, result.WriterShare.Equal(decimal.RequireFromString("7.00")),
		"writer share: %s", result.WriterShare)
}

func TestSplitFor(t *testing.T) {
	calc := testCalculator()

	split, ok := calc.SplitFor(DistributionSubscription)
	require.True(t, ok)
	assert.Equal(t, int64(85), split.WriterPercentage)

	_, ok = calc.SplitFor("merchandise")
	assert.False(t, ok)
}
