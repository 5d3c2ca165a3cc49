// Package venue models the external exchange a launch graduates into. The
// engine consumes it through the narrow Liquidity interface; the in-process
// implementation is a constant-product AMM.
package venue

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bnbfun/launchpad/internal/token"
)

// PoolReceipt is the pool-share receipt returned by a liquidity deposit.
type PoolReceipt struct {
	PoolID string
	Shares *uint256.Int
}

// Liquidity is the graduation target: given a token amount and a base
// currency amount, atomically create a trading pool and return a pool-share
// receipt. It is called exactly once per launch.
type Liquidity interface {
	CreatePool(ctx context.Context, depositor string, asset *token.Ledger, baseAmount, tokenAmount *uint256.Int) (*PoolReceipt, error)
}
