package curve

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func flatParams(creatorBps, platformBps uint16) *Params {
	return &Params{
		InitialPrice:        u("100000000000000"), // 0.0001 BNB per token
		PriceIncrement:      uint256.NewInt(0),
		TotalSupply:         u("1000000000000000000000000"), // 1M tokens
		GraduationThreshold: u("50000000000000000000"),      // 50 BNB
		CreatorFeeBps:       creatorBps,
		PlatformFeeBps:      platformBps,
		EnableSell:          true,
	}
}

func linearParams(creatorBps, platformBps uint16) *Params {
	p := flatParams(creatorBps, platformBps)
	p.PriceIncrement = u("1000000000000") // 0.000001 BNB per token sold
	return p
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{name: "valid", mutate: func(*Params) {}},
		{name: "zero supply", mutate: func(p *Params) { p.TotalSupply = uint256.NewInt(0) }, wantErr: ErrZeroTotalSupply},
		{name: "zero price", mutate: func(p *Params) { p.InitialPrice = uint256.NewInt(0) }, wantErr: ErrZeroInitialPrice},
		{name: "zero threshold", mutate: func(p *Params) { p.GraduationThreshold = uint256.NewInt(0) }, wantErr: ErrZeroThreshold},
		{name: "fees over 10000", mutate: func(p *Params) { p.CreatorFeeBps = 6000; p.PlatformFeeBps = 5000 }, wantErr: ErrFeeTooHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := linearParams(50, 100)
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTokensForPaymentFlatCurve(t *testing.T) {
	p := flatParams(0, 0)

	out, fee, err := TokensForPayment(u("1000000000000000000"), uint256.NewInt(0), p)
	require.NoError(t, err)

	// 1 BNB at 0.0001 BNB/token buys exactly 10000 tokens.
	assert.Equal(t, u("10000000000000000000000"), out)
	assert.True(t, fee.IsZero())
}

func TestTokensForPaymentFees(t *testing.T) {
	p := flatParams(50, 100)

	out, fee, err := TokensForPayment(u("1000000000000000000"), uint256.NewInt(0), p)
	require.NoError(t, err)

	// 150 bps of 1 BNB.
	assert.Equal(t, u("15000000000000000"), fee)
	// Tokens priced off the 0.985 BNB net only.
	assert.Equal(t, u("9850000000000000000000"), out)
}

func TestTokensForPaymentQuadratic(t *testing.T) {
	p := linearParams(50, 100)

	out, fee, err := TokensForPayment(u("1000000000000000000"), uint256.NewInt(0), p)
	require.NoError(t, err)
	assert.Equal(t, u("15000000000000000"), fee)

	// Closed-form root of inc*Δ² + 2P*b*Δ = 2P²*net for b=1e14, inc=1e12,
	// net=0.985e18, floored.
	assert.Equal(t, u("1307124727947028866369"), out)
}

// The solver must return the floor of the true root: the exact quadratic
// evaluated at Δ stays within the net payment, and Δ+1 exceeds it.
func TestTokensForPaymentNeverOverIssues(t *testing.T) {
	p := linearParams(0, 0)

	payments := []string{
		"1",
		"1000000",
		"123456789123456789",
		"1000000000000000000",
		"7000000000000000000000",
	}
	supplies := []string{"0", "1000000000000000000", "55000000000000000000000"}

	for _, ps := range payments {
		for _, ss := range supplies {
			net := u(ps)
			supply := u(ss)
			out, _, err := TokensForPayment(net, supply, p)
			require.NoError(t, err, "payment=%s supply=%s", ps, ss)

			pb := new(uint256.Int).Mul(Precision, mustPrice(t, supply, p))
			lhs := quadraticCost(p.PriceIncrement, pb, out)
			rhs := new(uint256.Int).Mul(new(uint256.Int).Mul(Precision, Precision), net)
			rhs.Mul(rhs, two)
			assert.True(t, !lhs.Gt(rhs), "Δ overshoots: payment=%s supply=%s", ps, ss)

			next := new(uint256.Int).AddUint64(out, 1)
			lhsNext := quadraticCost(p.PriceIncrement, pb, next)
			assert.True(t, lhsNext.Gt(rhs), "Δ+1 still affordable: payment=%s supply=%s", ps, ss)
		}
	}
}

func quadraticCost(inc, pb, delta *uint256.Int) *uint256.Int {
	sq := new(uint256.Int).Mul(delta, delta)
	sq.Mul(sq, inc)
	lin := new(uint256.Int).Mul(pb, delta)
	lin.Mul(lin, uint256.NewInt(2))
	return new(uint256.Int).Add(sq, lin)
}

func mustPrice(t *testing.T, supply *uint256.Int, p *Params) *uint256.Int {
	t.Helper()
	price, err := CurrentPrice(supply, p)
	require.NoError(t, err)
	return price
}

func TestTokensForPaymentCapExceeded(t *testing.T) {
	p := flatParams(0, 0)

	// 1M tokens at 0.0001 BNB cost 100 BNB; 101 BNB oversells the curve.
	_, _, err := TokensForPayment(u("101000000000000000000"), uint256.NewInt(0), p)
	assert.ErrorIs(t, err, ErrCapExceeded)

	// Exactly the full supply is still a fill.
	out, _, err := TokensForPayment(u("100000000000000000000"), uint256.NewInt(0), p)
	require.NoError(t, err)
	assert.Equal(t, p.TotalSupply, out)
}

func TestPaymentForTokensTrapezoid(t *testing.T) {
	p := linearParams(0, 0)

	// Buy with 0.985 BNB, then sell the whole position back at the new
	// supply: the trapezoid is symmetric, so gross comes back within
	// rounding, never above.
	payment := u("985000000000000000")
	out, _, err := TokensForPayment(payment, uint256.NewInt(0), p)
	require.NoError(t, err)

	gross, fee, err := PaymentForTokens(out, out, p)
	require.NoError(t, err)
	assert.True(t, fee.IsZero())
	assert.True(t, !gross.Gt(payment), "sell returned more than was paid")

	diff := new(uint256.Int).Sub(payment, gross)
	assert.True(t, diff.Lt(uint256.NewInt(1000)), "rounding loss too large: %s", diff.Dec())
}

func TestPaymentForTokensFlat(t *testing.T) {
	p := flatParams(0, 0)

	gross, fee, err := PaymentForTokens(u("10000000000000000000000"), u("10000000000000000000000"), p)
	require.NoError(t, err)
	assert.Equal(t, u("1000000000000000000"), gross)
	assert.True(t, fee.IsZero())
}

func TestPaymentForTokensRejectsOversell(t *testing.T) {
	p := linearParams(0, 0)

	_, _, err := PaymentForTokens(uint256.NewInt(2), uint256.NewInt(1), p)
	assert.ErrorIs(t, err, ErrAmountExceedsSupply)
}

func TestCurrentPriceMonotonic(t *testing.T) {
	p := linearParams(0, 0)

	supplies := []string{
		"0",
		"1000000000000000000",
		"500000000000000000000",
		"10000000000000000000000",
		"1000000000000000000000000",
	}
	prev := uint256.NewInt(0)
	for _, s := range supplies {
		price := mustPrice(t, u(s), p)
		assert.True(t, !price.Lt(prev), "price decreased at supply %s", s)
		prev = price
	}
}

func TestMarketCap(t *testing.T) {
	p := linearParams(0, 0)

	// At supply Δ=1307124727947028866369, price is 1407124727947028 and the
	// cap scales it by the 1M token total supply.
	cap, err := MarketCap(u("1307124727947028866369"), p)
	require.NoError(t, err)
	assert.Equal(t, u("1407124727947028000000"), cap)
}

func TestSplitFee(t *testing.T) {
	p := flatParams(50, 100)

	gross := u("1000000000000000000")
	total, err := p.FeeOn(gross)
	require.NoError(t, err)

	creatorFee, platformFee, err := p.SplitFee(gross, total)
	require.NoError(t, err)
	assert.Equal(t, u("5000000000000000"), creatorFee)
	assert.Equal(t, u("10000000000000000"), platformFee)
	assert.Equal(t, total, new(uint256.Int).Add(creatorFee, platformFee))
}
