// Package analytics provides decimal position-sizing math for binary
// markets. All arithmetic uses exact decimals; float rounding on money is
// not acceptable at the sizing layer.
package analytics

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// decCtx carries the precision every division in this package runs under.
// apd.BaseContext has zero precision and rejects Quo outright.
var decCtx = apd.BaseContext.WithPrecision(16)

var hundred = apd.New(100, 0)

// ImpliedProbability converts a contract price in cents to the probability
// the price implies.
func ImpliedProbability(priceCents int) (*apd.Decimal, error) {
	if priceCents < 1 || priceCents > 99 {
		return nil, fmt.Errorf("price %d out of range [1, 99]", priceCents)
	}
	prob := new(apd.Decimal)
	_, err := decCtx.Quo(prob, apd.New(int64(priceCents), 0), hundred)
	if err != nil {
		return nil, err
	}
	return prob, nil
}

// ExpectedValue returns the per-contract expected profit in cents of buying
// at priceCents when the true probability of a yes settlement is prob.
// A settled yes contract pays 100 cents.
//
//	EV = prob * (100 - price) - (1 - prob) * price
//	   = prob * 100 - price
func ExpectedValue(prob *apd.Decimal, priceCents int) (*apd.Decimal, error) {
	if err := checkProbability(prob); err != nil {
		return nil, err
	}
	if priceCents < 1 || priceCents > 99 {
		return nil, fmt.Errorf("price %d out of range [1, 99]", priceCents)
	}

	ev := new(apd.Decimal)
	if _, err := decCtx.Mul(ev, prob, hundred); err != nil {
		return nil, err
	}
	if _, err := decCtx.Sub(ev, ev, apd.New(int64(priceCents), 0)); err != nil {
		return nil, err
	}
	return ev, nil
}

// KellyFraction returns the fraction of bankroll to stake on a contract
// priced at priceCents given true probability prob. For a binary contract
// bought at price p with win probability q:
//
//	f* = (q - p/100) / (1 - p/100)
//
// A non-positive result means the price offers no edge; callers should stake
// nothing. Full Kelly is aggressive; most sizing uses a fraction of it.
func KellyFraction(prob *apd.Decimal, priceCents int) (*apd.Decimal, error) {
	if err := checkProbability(prob); err != nil {
		return nil, err
	}
	if priceCents < 1 || priceCents > 99 {
		return nil, fmt.Errorf("price %d out of range [1, 99]", priceCents)
	}

	price := new(apd.Decimal)
	if _, err := decCtx.Quo(price, apd.New(int64(priceCents), 0), hundred); err != nil {
		return nil, err
	}

	num := new(apd.Decimal)
	if _, err := decCtx.Sub(num, prob, price); err != nil {
		return nil, err
	}

	den := new(apd.Decimal)
	if _, err := decCtx.Sub(den, apd.New(1, 0), price); err != nil {
		return nil, err
	}

	f := new(apd.Decimal)
	if _, err := decCtx.Quo(f, num, den); err != nil {
		return nil, err
	}
	return f, nil
}

// ContractsForStake converts a bankroll fraction into a whole contract count
// at the given price.
func ContractsForStake(bankrollCents int64, fraction *apd.Decimal, priceCents int) (int64, error) {
	if priceCents < 1 || priceCents > 99 {
		return 0, fmt.Errorf("price %d out of range [1, 99]", priceCents)
	}
	if fraction.Negative || fraction.IsZero() {
		return 0, nil
	}

	stake := new(apd.Decimal)
	if _, err := decCtx.Mul(stake, apd.New(bankrollCents, 0), fraction); err != nil {
		return 0, err
	}

	contracts := new(apd.Decimal)
	if _, err := decCtx.Quo(contracts, stake, apd.New(int64(priceCents), 0)); err != nil {
		return 0, err
	}

	floored := new(apd.Decimal)
	if _, err := decCtx.Floor(floored, contracts); err != nil {
		return 0, err
	}
	n, err := floored.Int64()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func checkProbability(prob *apd.Decimal) error {
	zero := apd.New(0, 0)
	one := apd.New(1, 0)
	if prob.Cmp(zero) < 0 || prob.Cmp(one) > 0 {
		return fmt.Errorf("probability %s out of range [0, 1]", prob.String())
	}
	return nil
}
