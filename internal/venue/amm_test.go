package venue

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/token"
)

func newTestAMM(t *testing.T) (*AMM, *token.Ledger, *token.Ledger) {
	t.Helper()
	bank := token.NewLedger("Wrapped BNB", "WBNB")
	asset := token.NewLedger("Test Token", "TEST")
	return NewAMM(bank, zap.NewNop()), bank, asset
}

func fund(t *testing.T, l *token.Ledger, account string, amount uint64) {
	t.Helper()
	require.NoError(t, l.Mint(account, uint256.NewInt(amount)))
}

func TestCreatePool(t *testing.T) {
	amm, bank, asset := newTestAMM(t)
	fund(t, bank, "launch", 4_000_000)
	fund(t, asset, "launch", 9_000_000)

	receipt, err := amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(4_000_000), uint256.NewInt(9_000_000))
	require.NoError(t, err)
	require.NotNil(t, receipt)

	// sqrt(4e6 * 9e6) = 6e6, minus the locked minimum.
	assert.Equal(t, uint256.NewInt(6_000_000-1000), receipt.Shares)

	// Depositor's holdings moved into the pool account.
	assert.True(t, bank.BalanceOf("launch").IsZero())
	assert.True(t, asset.BalanceOf("launch").IsZero())

	base, tok, err := amm.Reserves(receipt.PoolID)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(4_000_000), base)
	assert.Equal(t, uint256.NewInt(9_000_000), tok)
}

func TestCreatePoolRejectsDuplicate(t *testing.T) {
	amm, bank, asset := newTestAMM(t)
	fund(t, bank, "launch", 2_000_000)
	fund(t, asset, "launch", 2_000_000)

	_, err := amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(1_000_000), uint256.NewInt(1_000_000))
	require.NoError(t, err)

	_, err = amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(1_000_000), uint256.NewInt(1_000_000))
	assert.ErrorIs(t, err, ErrPoolExists)
}

func TestCreatePoolValidation(t *testing.T) {
	amm, bank, asset := newTestAMM(t)
	fund(t, bank, "launch", 1_000_000)
	fund(t, asset, "launch", 1_000_000)

	_, err := amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(0), uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrZeroDeposit)

	_, err = amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(10), uint256.NewInt(10))
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

// A failed token leg must return the base leg to the depositor.
func TestCreatePoolRollsBackPartialDeposit(t *testing.T) {
	amm, bank, asset := newTestAMM(t)
	fund(t, bank, "launch", 2_000_000)
	// Token balance deliberately short.
	fund(t, asset, "launch", 10)

	_, err := amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(2_000_000), uint256.NewInt(2_000_000))
	require.Error(t, err)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Equal(t, uint256.NewInt(2_000_000), bank.BalanceOf("launch"))
}

func TestSwapBothDirections(t *testing.T) {
	amm, bank, asset := newTestAMM(t)
	fund(t, bank, "launch", 1_000_000_000)
	fund(t, asset, "launch", 1_000_000_000)
	fund(t, bank, "trader", 1_000_000)

	receipt, err := amm.CreatePool(context.Background(), "launch", asset, uint256.NewInt(1_000_000_000), uint256.NewInt(1_000_000_000))
	require.NoError(t, err)

	quoted, err := amm.GetAmountOut(receipt.PoolID, uint256.NewInt(1_000_000), BaseForToken)
	require.NoError(t, err)

	out, err := amm.Swap(context.Background(), "trader", receipt.PoolID, uint256.NewInt(1_000_000), BaseForToken)
	require.NoError(t, err)
	assert.Equal(t, quoted, out)
	assert.Equal(t, out, asset.BalanceOf("trader"))

	// Equal reserves, so the 0.3% fee plus slippage keeps out below in.
	assert.True(t, out.Lt(uint256.NewInt(1_000_000)))

	back, err := amm.Swap(context.Background(), "trader", receipt.PoolID, out, TokenForBase)
	require.NoError(t, err)
	// A round trip can never profit.
	assert.True(t, back.Lt(uint256.NewInt(1_000_000)))
}

func TestSwapUnknownPool(t *testing.T) {
	amm, _, _ := newTestAMM(t)

	_, err := amm.Swap(context.Background(), "trader", "missing", uint256.NewInt(1), BaseForToken)
	assert.ErrorIs(t, err, ErrPoolNotFound)
}
