// Package launch implements the per-sale state machine: the buy/sell
// operations against the bonding curve, the per-account curve-eligible
// ledger, and the one-time graduation that migrates pooled liquidity to the
// external venue.
//
// Every operation on one Launch executes under its exclusive lock, so two
// trades against the same launch never interleave. Operations on different
// launches are independent.
package launch

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/curve"
	"github.com/bnbfun/launchpad/internal/token"
	"github.com/bnbfun/launchpad/internal/venue"
)

// Config carries everything a template instance needs to become a live
// launch. It is fixed at initialization and never mutated.
type Config struct {
	ID                string
	Creator           string
	Params            *curve.Params
	PlatformRecipient string
}

// BuyResult reports the outcome of a successful buy.
type BuyResult struct {
	TokensOut  *uint256.Int
	FeeAmount  *uint256.Int
	NetPayment *uint256.Int
	Graduated  bool
}

// SellResult reports the outcome of a successful sell.
type SellResult struct {
	GrossPayment *uint256.Int
	FeeAmount    *uint256.Int
	NetPayout    *uint256.Int
}

// Snapshot is a consistent read of the launch state for display surfaces.
type Snapshot struct {
	ID          string
	Creator     string
	TokenName   string
	TokenSymbol string
	Params      *curve.Params
	TokensSold  *uint256.Int
	BNBRaised   *uint256.Int
	Price       *uint256.Int
	MarketCap   *uint256.Int
	Graduated   bool
	PoolID      string
}

// Launch is one token sale. The zero value is an uninitialized template;
// Initialize must be called exactly once before trading.
type Launch struct {
	mu sync.Mutex

	initialized bool
	cfg         Config

	asset  *token.Ledger
	bank   *token.Ledger
	pool   venue.Liquidity
	logger *zap.Logger

	tokensSold    *uint256.Int
	bnbRaised     *uint256.Int
	graduated     bool
	curveBalances map[string]*uint256.Int
	receipt       *venue.PoolReceipt
}

// New returns a bare template instance.
func New() *Launch {
	return &Launch{}
}

// Initialize binds the template to its sale configuration and collaborators.
// A second call fails with ErrAlreadyInitialized.
func (l *Launch) Initialize(cfg Config, asset, bank *token.Ledger, pool venue.Liquidity, logger *zap.Logger) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return ErrAlreadyInitialized
	}
	if err := cfg.Params.Validate(); err != nil {
		return fmt.Errorf("launch %s: %w", cfg.ID, err)
	}

	l.cfg = cfg
	l.asset = asset
	l.bank = bank
	l.pool = pool
	l.logger = logger
	l.tokensSold = uint256.NewInt(0)
	l.bnbRaised = uint256.NewInt(0)
	l.curveBalances = make(map[string]*uint256.Int)
	l.initialized = true
	return nil
}

// ID returns the launch identifier assigned by the factory.
func (l *Launch) ID() string { return l.cfg.ID }

// Creator returns the account that created the launch and receives the
// creator fee split.
func (l *Launch) Creator() string { return l.cfg.Creator }

// Token returns the ledger of the launched asset.
func (l *Launch) Token() *token.Ledger { return l.asset }

// custodyAccount is where the curve supply and the raised payment sit until
// trades or graduation move them.
func (l *Launch) custodyAccount() string { return l.cfg.ID }

// Buy purchases tokens from the curve with paymentAmount of base currency.
// minTokensOut protects the caller against intervening trades; the quote is
// rejected, not partially filled, when it cannot be met.
func (l *Launch) Buy(ctx context.Context, caller string, paymentAmount, minTokensOut *uint256.Int) (*BuyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, ErrNotInitialized
	}
	if l.graduated {
		return nil, ErrNotOpen
	}
	if caller == "" {
		return nil, ErrEmptyCaller
	}
	if paymentAmount == nil || paymentAmount.IsZero() {
		return nil, ErrZeroAmount
	}

	tokensOut, feeAmount, err := curve.TokensForPayment(paymentAmount, l.tokensSold, l.cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("launch %s: buy quote: %w", l.cfg.ID, err)
	}
	if minTokensOut != nil && tokensOut.Lt(minTokensOut) {
		return nil, fmt.Errorf("%w: quoted %s, minimum %s", ErrSlippageExceeded, tokensOut.Dec(), minTokensOut.Dec())
	}
	netPayment := new(uint256.Int).Sub(paymentAmount, feeAmount)
	creatorFee, platformFee, err := l.cfg.Params.SplitFee(paymentAmount, feeAmount)
	if err != nil {
		return nil, fmt.Errorf("launch %s: fee split: %w", l.cfg.ID, err)
	}

	// Pull the gross payment into custody before touching counters, so a
	// caller who cannot pay changes nothing.
	if err := l.bank.Transfer(caller, l.custodyAccount(), paymentAmount); err != nil {
		return nil, fmt.Errorf("launch %s: payment: %w", l.cfg.ID, err)
	}

	// Commit all internal counters before any value leaves custody.
	l.tokensSold.Add(l.tokensSold, tokensOut)
	l.bnbRaised.Add(l.bnbRaised, netPayment)
	l.creditCurveBalance(caller, tokensOut)

	undo, err := l.settleBuy(caller, tokensOut, creatorFee, platformFee)
	if err != nil {
		undo()
		l.revertBuyCounters(caller, tokensOut, netPayment, paymentAmount)
		return nil, fmt.Errorf("launch %s: settlement: %w", l.cfg.ID, err)
	}

	graduatedNow, err := l.maybeGraduate(ctx)
	if err != nil {
		// All-or-nothing: the buy that tripped a failing graduation is
		// unwound entirely, counters and transfers both.
		undo()
		l.revertBuyCounters(caller, tokensOut, netPayment, paymentAmount)
		return nil, fmt.Errorf("%w: %v", ErrGraduationFailure, err)
	}

	l.logger.Info("buy executed",
		zap.String("launch_id", l.cfg.ID),
		zap.String("caller", caller),
		zap.String("payment", paymentAmount.Dec()),
		zap.String("tokens_out", tokensOut.Dec()),
		zap.String("fee", feeAmount.Dec()),
		zap.Bool("graduated", graduatedNow))

	return &BuyResult{
		TokensOut:  tokensOut.Clone(),
		FeeAmount:  feeAmount,
		NetPayment: netPayment,
		Graduated:  graduatedNow,
	}, nil
}

// settleBuy moves the purchased tokens to the caller and routes the fee
// split. It returns an undo closure reversing whatever subset of transfers
// completed.
func (l *Launch) settleBuy(caller string, tokensOut, creatorFee, platformFee *uint256.Int) (func(), error) {
	var done []func()
	undo := func() {
		for i := len(done) - 1; i >= 0; i-- {
			done[i]()
		}
	}

	if err := l.asset.Transfer(l.custodyAccount(), caller, tokensOut); err != nil {
		return undo, fmt.Errorf("token transfer: %w", err)
	}
	done = append(done, func() {
		if err := l.asset.Transfer(caller, l.custodyAccount(), tokensOut); err != nil {
			l.logger.Error("rollback: token return failed", zap.String("launch_id", l.cfg.ID), zap.Error(err))
		}
	})

	if !creatorFee.IsZero() {
		if err := l.bank.Transfer(l.custodyAccount(), l.cfg.Creator, creatorFee); err != nil {
			return undo, fmt.Errorf("creator fee: %w", err)
		}
		done = append(done, func() {
			if err := l.bank.Transfer(l.cfg.Creator, l.custodyAccount(), creatorFee); err != nil {
				l.logger.Error("rollback: creator fee return failed", zap.String("launch_id", l.cfg.ID), zap.Error(err))
			}
		})
	}
	if !platformFee.IsZero() {
		if err := l.bank.Transfer(l.custodyAccount(), l.cfg.PlatformRecipient, platformFee); err != nil {
			return undo, fmt.Errorf("platform fee: %w", err)
		}
		done = append(done, func() {
			if err := l.bank.Transfer(l.cfg.PlatformRecipient, l.custodyAccount(), platformFee); err != nil {
				l.logger.Error("rollback: platform fee return failed", zap.String("launch_id", l.cfg.ID), zap.Error(err))
			}
		})
	}
	return undo, nil
}

func (l *Launch) revertBuyCounters(caller string, tokensOut, netPayment, paymentAmount *uint256.Int) {
	l.tokensSold.Sub(l.tokensSold, tokensOut)
	l.bnbRaised.Sub(l.bnbRaised, netPayment)
	l.debitCurveBalance(caller, tokensOut)
	if err := l.bank.Transfer(l.custodyAccount(), caller, paymentAmount); err != nil {
		l.logger.Error("rollback: payment refund failed",
			zap.String("launch_id", l.cfg.ID),
			zap.String("caller", caller),
			zap.Error(err))
	}
}

// maybeGraduate performs the terminal transition when the market value
// crosses the threshold: remaining curve supply plus the accumulated raise
// are deposited into the liquidity venue, strictly after all internal
// counters are final.
func (l *Launch) maybeGraduate(ctx context.Context) (bool, error) {
	cap, err := curve.MarketCap(l.tokensSold, l.cfg.Params)
	if err != nil {
		return false, err
	}
	if cap.Lt(l.cfg.Params.GraduationThreshold) {
		return false, nil
	}

	remaining := new(uint256.Int).Sub(l.cfg.Params.TotalSupply, l.tokensSold)
	deposit := l.bnbRaised.Clone()

	receipt, err := l.pool.CreatePool(ctx, l.custodyAccount(), l.asset, deposit, remaining)
	if err != nil {
		return false, err
	}

	l.graduated = true
	l.receipt = receipt

	l.logger.Info("launch graduated",
		zap.String("launch_id", l.cfg.ID),
		zap.String("pool_id", receipt.PoolID),
		zap.String("liquidity_bnb", deposit.Dec()),
		zap.String("liquidity_tokens", remaining.Dec()),
		zap.String("market_cap", cap.Dec()))
	return true, nil
}

// Sell returns tokenAmount of curve-acquired tokens for base currency.
func (l *Launch) Sell(ctx context.Context, caller string, tokenAmount, minPaymentOut *uint256.Int) (*SellResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, ErrNotInitialized
	}
	if !l.cfg.Params.EnableSell {
		return nil, ErrSellDisabled
	}
	if l.graduated {
		return nil, ErrNotOpen
	}
	if caller == "" {
		return nil, ErrEmptyCaller
	}
	if tokenAmount == nil || tokenAmount.IsZero() {
		return nil, ErrZeroAmount
	}
	if l.curveBalanceOf(caller).Lt(tokenAmount) {
		return nil, fmt.Errorf("%w: account %s holds %s curve tokens, selling %s",
			ErrInsufficientCurveBalance, caller, l.curveBalanceOf(caller).Dec(), tokenAmount.Dec())
	}

	gross, feeAmount, err := curve.PaymentForTokens(tokenAmount, l.tokensSold, l.cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("launch %s: sell quote: %w", l.cfg.ID, err)
	}
	netPayout := new(uint256.Int).Sub(gross, feeAmount)
	if minPaymentOut != nil && netPayout.Lt(minPaymentOut) {
		return nil, fmt.Errorf("%w: quoted %s, minimum %s", ErrSlippageExceeded, netPayout.Dec(), minPaymentOut.Dec())
	}
	if l.bnbRaised.Lt(gross) {
		// Cannot happen while buy rounding favors the reserve; refuse rather
		// than underflow if it ever does.
		return nil, fmt.Errorf("launch %s: reserve %s below gross payout %s", l.cfg.ID, l.bnbRaised.Dec(), gross.Dec())
	}
	creatorFee, platformFee, err := l.cfg.Params.SplitFee(gross, feeAmount)
	if err != nil {
		return nil, fmt.Errorf("launch %s: fee split: %w", l.cfg.ID, err)
	}

	// Tokens come back to custody first; a caller who no longer holds them
	// changes nothing.
	if err := l.asset.Transfer(caller, l.custodyAccount(), tokenAmount); err != nil {
		return nil, fmt.Errorf("launch %s: token return: %w", l.cfg.ID, err)
	}

	l.tokensSold.Sub(l.tokensSold, tokenAmount)
	l.bnbRaised.Sub(l.bnbRaised, gross)
	l.debitCurveBalance(caller, tokenAmount)

	if err := l.bank.Transfer(l.custodyAccount(), caller, netPayout); err != nil {
		// Custody is funded by the reserve accounting above, so this is a
		// hard internal fault worth surfacing loudly.
		l.logger.Error("sell payout failed", zap.String("launch_id", l.cfg.ID), zap.Error(err))
		return nil, fmt.Errorf("launch %s: payout: %w", l.cfg.ID, err)
	}
	if !creatorFee.IsZero() {
		if err := l.bank.Transfer(l.custodyAccount(), l.cfg.Creator, creatorFee); err != nil {
			return nil, fmt.Errorf("launch %s: creator fee: %w", l.cfg.ID, err)
		}
	}
	if !platformFee.IsZero() {
		if err := l.bank.Transfer(l.custodyAccount(), l.cfg.PlatformRecipient, platformFee); err != nil {
			return nil, fmt.Errorf("launch %s: platform fee: %w", l.cfg.ID, err)
		}
	}

	l.logger.Info("sell executed",
		zap.String("launch_id", l.cfg.ID),
		zap.String("caller", caller),
		zap.String("tokens_in", tokenAmount.Dec()),
		zap.String("gross", gross.Dec()),
		zap.String("payout", netPayout.Dec()))

	return &SellResult{
		GrossPayment: gross,
		FeeAmount:    feeAmount,
		NetPayout:    netPayout,
	}, nil
}

// QuoteBuy previews TokensForPayment against the current supply.
func (l *Launch) QuoteBuy(paymentAmount *uint256.Int) (tokensOut, feeAmount *uint256.Int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil, nil, ErrNotInitialized
	}
	return curve.TokensForPayment(paymentAmount, l.tokensSold, l.cfg.Params)
}

// QuoteSell previews PaymentForTokens against the current supply.
func (l *Launch) QuoteSell(tokenAmount *uint256.Int) (grossPayment, feeAmount *uint256.Int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil, nil, ErrNotInitialized
	}
	return curve.PaymentForTokens(tokenAmount, l.tokensSold, l.cfg.Params)
}

// CurrentPrice returns price(tokensSold).
func (l *Launch) CurrentPrice() (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil, ErrNotInitialized
	}
	return curve.CurrentPrice(l.tokensSold, l.cfg.Params)
}

// MarketCap returns price(tokensSold)*totalSupply/P.
func (l *Launch) MarketCap() (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil, ErrNotInitialized
	}
	return curve.MarketCap(l.tokensSold, l.cfg.Params)
}

// TokensSold returns the cumulative tokens issued by the curve.
func (l *Launch) TokensSold() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokensSold.Clone()
}

// Raised returns the accumulated net payment held for graduation.
func (l *Launch) Raised() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bnbRaised.Clone()
}

// Graduated reports whether the terminal transition has happened.
func (l *Launch) Graduated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.graduated
}

// CurveBalanceOf returns the caller's curve-eligible holdings.
func (l *Launch) CurveBalanceOf(account string) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.curveBalanceOf(account).Clone()
}

// PoolReceipt returns the venue receipt, nil before graduation.
func (l *Launch) PoolReceipt() *venue.PoolReceipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.receipt
}

// Snapshot assembles a consistent view of the launch for read surfaces.
func (l *Launch) Snapshot() (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil, ErrNotInitialized
	}

	price, err := curve.CurrentPrice(l.tokensSold, l.cfg.Params)
	if err != nil {
		return nil, err
	}
	cap, err := curve.MarketCap(l.tokensSold, l.cfg.Params)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:          l.cfg.ID,
		Creator:     l.cfg.Creator,
		TokenName:   l.asset.Name(),
		TokenSymbol: l.asset.Symbol(),
		Params:      l.cfg.Params,
		TokensSold:  l.tokensSold.Clone(),
		BNBRaised:   l.bnbRaised.Clone(),
		Price:       price,
		MarketCap:   cap,
		Graduated:   l.graduated,
	}
	if l.receipt != nil {
		snap.PoolID = l.receipt.PoolID
	}
	return snap, nil
}

func (l *Launch) curveBalanceOf(account string) *uint256.Int {
	if bal, ok := l.curveBalances[account]; ok {
		return bal
	}
	return uint256.NewInt(0)
}

func (l *Launch) creditCurveBalance(account string, amount *uint256.Int) {
	if bal, ok := l.curveBalances[account]; ok {
		bal.Add(bal, amount)
		return
	}
	l.curveBalances[account] = amount.Clone()
}

func (l *Launch) debitCurveBalance(account string, amount *uint256.Int) {
	if bal, ok := l.curveBalances[account]; ok {
		bal.Sub(bal, amount)
	}
}
