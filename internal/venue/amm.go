package venue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/token"
)

var (
	ErrPoolExists       = errors.New("venue: pool already exists for asset")
	ErrPoolNotFound     = errors.New("venue: pool not found")
	ErrZeroDeposit      = errors.New("venue: deposit amounts must be greater than zero")
	ErrBelowMinimum     = errors.New("venue: deposit below minimum liquidity")
	ErrEmptyReserves    = errors.New("venue: pool has empty reserves")
	ErrZeroSwapAmount   = errors.New("venue: swap amount must be greater than zero")
	ErrUnknownDirection = errors.New("venue: unknown swap direction")
)

// minimumLiquidity is permanently locked on pool creation so a pool can never
// be fully drained of shares.
var minimumLiquidity = uint256.NewInt(1000)

// swap fee: 0.3% => multiplier 997/1000
var (
	feeMul = uint256.NewInt(997)
	feeDen = uint256.NewInt(1000)
)

// Direction selects which side of a pool a swap sells into.
type Direction int

const (
	BaseForToken Direction = iota
	TokenForBase
)

// Pool holds the live reserves of one trading pair against the base
// currency.
type Pool struct {
	ID           string
	Asset        *token.Ledger
	account      string
	reserveBase  *uint256.Int
	reserveToken *uint256.Int
	totalShares  *uint256.Int
}

// AMM is an in-process constant-product liquidity venue. One pool per asset
// ledger; the base side of every pool is the shared bank ledger.
type AMM struct {
	mu     sync.Mutex
	bank   *token.Ledger
	pools  map[*token.Ledger]*Pool
	byID   map[string]*Pool
	logger *zap.Logger
}

// NewAMM constructs an empty venue settling against the given base ledger.
func NewAMM(bank *token.Ledger, logger *zap.Logger) *AMM {
	return &AMM{
		bank:   bank,
		pools:  make(map[*token.Ledger]*Pool),
		byID:   make(map[string]*Pool),
		logger: logger,
	}
}

// CreatePool seeds a new pool with the depositor's base and token amounts and
// returns the share receipt. Initial shares follow the constant-product
// convention sqrt(base*token) with minimumLiquidity locked forever.
func (a *AMM) CreatePool(ctx context.Context, depositor string, asset *token.Ledger, baseAmount, tokenAmount *uint256.Int) (*PoolReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if baseAmount.IsZero() || tokenAmount.IsZero() {
		return nil, ErrZeroDeposit
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.pools[asset]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, asset.Symbol())
	}

	k, overflow := new(uint256.Int).MulOverflow(baseAmount, tokenAmount)
	if overflow {
		return nil, fmt.Errorf("venue: reserve product overflow for %s", asset.Symbol())
	}
	shares := new(uint256.Int).Sqrt(k)
	if !shares.Gt(minimumLiquidity) {
		return nil, ErrBelowMinimum
	}
	shares.Sub(shares, minimumLiquidity)

	poolID := uuid.NewString()
	account := "amm:" + poolID

	if err := a.bank.Transfer(depositor, account, baseAmount); err != nil {
		return nil, fmt.Errorf("venue: base deposit: %w", err)
	}
	if err := asset.Transfer(depositor, account, tokenAmount); err != nil {
		// Keep the deposit all-or-nothing: hand the base leg back before
		// reporting failure.
		if refundErr := a.bank.Transfer(account, depositor, baseAmount); refundErr != nil {
			a.logger.Error("base refund failed after partial deposit",
				zap.String("pool_id", poolID),
				zap.Error(refundErr))
		}
		return nil, fmt.Errorf("venue: token deposit: %w", err)
	}

	pool := &Pool{
		ID:           poolID,
		Asset:        asset,
		account:      account,
		reserveBase:  baseAmount.Clone(),
		reserveToken: tokenAmount.Clone(),
		totalShares:  new(uint256.Int).Add(shares, minimumLiquidity),
	}
	a.pools[asset] = pool
	a.byID[poolID] = pool

	a.logger.Info("liquidity pool created",
		zap.String("pool_id", poolID),
		zap.String("asset", asset.Symbol()),
		zap.String("reserve_base", baseAmount.Dec()),
		zap.String("reserve_token", tokenAmount.Dec()),
		zap.String("shares", shares.Dec()))

	return &PoolReceipt{PoolID: poolID, Shares: shares}, nil
}

// GetAmountOut quotes a swap against the pool's current reserves using the
// constant-product formula with the 0.3% fee applied to the input side.
func (a *AMM) GetAmountOut(poolID string, amountIn *uint256.Int, dir Direction) (*uint256.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pool, ok := a.byID[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return amountOut(pool, amountIn, dir)
}

// Swap executes a quoted swap, moving both legs through the ledgers and
// updating reserves.
func (a *AMM) Swap(ctx context.Context, caller, poolID string, amountIn *uint256.Int, dir Direction) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pool, ok := a.byID[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	out, err := amountOut(pool, amountIn, dir)
	if err != nil {
		return nil, err
	}

	switch dir {
	case BaseForToken:
		if err := a.bank.Transfer(caller, pool.account, amountIn); err != nil {
			return nil, fmt.Errorf("venue: swap input: %w", err)
		}
		if err := pool.Asset.Transfer(pool.account, caller, out); err != nil {
			return nil, fmt.Errorf("venue: swap output: %w", err)
		}
		pool.reserveBase.Add(pool.reserveBase, amountIn)
		pool.reserveToken.Sub(pool.reserveToken, out)
	case TokenForBase:
		if err := pool.Asset.Transfer(caller, pool.account, amountIn); err != nil {
			return nil, fmt.Errorf("venue: swap input: %w", err)
		}
		if err := a.bank.Transfer(pool.account, caller, out); err != nil {
			return nil, fmt.Errorf("venue: swap output: %w", err)
		}
		pool.reserveToken.Add(pool.reserveToken, amountIn)
		pool.reserveBase.Sub(pool.reserveBase, out)
	}

	a.logger.Debug("swap executed",
		zap.String("pool_id", poolID),
		zap.String("caller", caller),
		zap.String("amount_in", amountIn.Dec()),
		zap.String("amount_out", out.Dec()))

	return out, nil
}

// Reserves reports the pool's current base and token reserves.
func (a *AMM) Reserves(poolID string) (base, tok *uint256.Int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pool, ok := a.byID[poolID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return pool.reserveBase.Clone(), pool.reserveToken.Clone(), nil
}

func amountOut(pool *Pool, amountIn *uint256.Int, dir Direction) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, ErrZeroSwapAmount
	}

	var reserveIn, reserveOut *uint256.Int
	switch dir {
	case BaseForToken:
		reserveIn, reserveOut = pool.reserveBase, pool.reserveToken
	case TokenForBase:
		reserveIn, reserveOut = pool.reserveToken, pool.reserveBase
	default:
		return nil, ErrUnknownDirection
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrEmptyReserves
	}

	// out = (in*997*reserveOut) / (reserveIn*1000 + in*997)
	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, feeMul)
	if overflow {
		return nil, fmt.Errorf("venue: swap amount overflow")
	}
	denominator, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDen)
	if overflow {
		return nil, fmt.Errorf("venue: reserve overflow")
	}
	denominator, overflow = denominator.AddOverflow(denominator, inWithFee)
	if overflow {
		return nil, fmt.Errorf("venue: denominator overflow")
	}
	out, overflow := new(uint256.Int).MulDivOverflow(inWithFee, reserveOut, denominator)
	if overflow {
		return nil, fmt.Errorf("venue: swap output overflow")
	}
	return out, nil
}
