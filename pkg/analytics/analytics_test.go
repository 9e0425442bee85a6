package analytics

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestImpliedProbability(t *testing.T) {
	prob, err := ImpliedProbability(45)
	require.NoError(t, err)
	assert.Zero(t, prob.Cmp(dec(t, "0.45")))
	assert.Equal(t, "0.45", prob.Text('f'))

	prob, err = ImpliedProbability(7)
	require.NoError(t, err)
	assert.Equal(t, "0.07", prob.Text('f'))

	_, err = ImpliedProbability(0)
	assert.Error(t, err)
	_, err = ImpliedProbability(100)
	assert.Error(t, err)
}

func TestExpectedValue(t *testing.T) {
	// Fair price: no edge.
	ev, err := ExpectedValue(dec(t, "0.45"), 45)
	require.NoError(t, err)
	assert.True(t, ev.IsZero())

	// True probability 60% at a 45c price: EV = 60 - 45 = 15 cents.
	ev, err = ExpectedValue(dec(t, "0.6"), 45)
	require.NoError(t, err)
	assert.Zero(t, ev.Cmp(dec(t, "15")))

	// Overpriced contract has negative EV.
	ev, err = ExpectedValue(dec(t, "0.3"), 45)
	require.NoError(t, err)
	assert.True(t, ev.Negative)
}

func TestExpectedValueRejectsBadInputs(t *testing.T) {
	_, err := ExpectedValue(dec(t, "1.5"), 45)
	assert.Error(t, err)

	_, err = ExpectedValue(dec(t, "-0.1"), 45)
	assert.Error(t, err)

	_, err = ExpectedValue(dec(t, "0.5"), 0)
	assert.Error(t, err)
}

func TestKellyFraction(t *testing.T) {
	// q=0.6, p=0.5: f* = (0.6-0.5)/(1-0.5) = 0.2
	f, err := KellyFraction(dec(t, "0.6"), 50)
	require.NoError(t, err)
	assert.Zero(t, f.Cmp(dec(t, "0.2")))

	// No edge at the fair price.
	f, err = KellyFraction(dec(t, "0.5"), 50)
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	// Negative edge gives a negative fraction.
	f, err = KellyFraction(dec(t, "0.4"), 50)
	require.NoError(t, err)
	assert.True(t, f.Negative)
}

func TestContractsForStake(t *testing.T) {
	// 20% of a $1000 bankroll at 50c buys 400 contracts.
	n, err := ContractsForStake(100000, dec(t, "0.2"), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(400), n)

	// Fractional contracts are floored.
	n, err = ContractsForStake(1000, dec(t, "0.1"), 33)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Non-positive fraction stakes nothing.
	n, err = ContractsForStake(100000, dec(t, "-0.5"), 50)
	require.NoError(t, err)
	assert.Zero(t, n)
}
