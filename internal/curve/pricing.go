// Package curve implements the bonding curve pricing engine: the linear
// price function, its exact integral, and the integer quadratic solver that
// inverts the integral for buys. Everything here is pure; state lives in the
// launch package.
//
// All monetary and token quantities are unsigned fixed-point integers scaled
// by Precision (1e18), matching the wire format of the launchpad. Every
// division floors, and the integer square root floors, so rounding always
// favors the curve reserve over the buyer.
package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

// Precision is the fixed-point scale shared by prices, payments and token
// amounts.
var Precision = uint256.NewInt(1_000_000_000_000_000_000)

// MaxBasisPoints is the fee denominator: fees are expressed in 1/10000 units.
const MaxBasisPoints = 10_000

var (
	bpsDenominator = uint256.NewInt(MaxBasisPoints)
	one            = uint256.NewInt(1)
	two            = uint256.NewInt(2)
)

var (
	ErrZeroTotalSupply     = errors.New("curve: total supply must be greater than zero")
	ErrZeroInitialPrice    = errors.New("curve: initial price must be greater than zero")
	ErrZeroThreshold       = errors.New("curve: graduation threshold must be greater than zero")
	ErrFeeTooHigh          = errors.New("curve: combined fees exceed 10000 bps")
	ErrCapExceeded         = errors.New("curve: purchase exceeds remaining curve supply")
	ErrAmountExceedsSupply = errors.New("curve: token amount exceeds current supply")
	ErrSupplyExceedsTotal  = errors.New("curve: current supply exceeds total supply")
)

// Params describes one launch's immutable curve configuration.
type Params struct {
	// InitialPrice is the payment price per whole token at zero supply,
	// scaled by Precision.
	InitialPrice *uint256.Int
	// PriceIncrement is the price increase per whole token sold, scaled by
	// Precision. Zero yields a flat (fixed price) curve.
	PriceIncrement *uint256.Int
	// TotalSupply is the token amount available to the curve.
	TotalSupply *uint256.Int
	// GraduationThreshold is the market value at which the sale ends and
	// liquidity migrates to the external venue.
	GraduationThreshold *uint256.Int
	CreatorFeeBps       uint16
	PlatformFeeBps      uint16
	EnableSell          bool
}

// Validate rejects parameter sets the engine cannot price safely.
func (p *Params) Validate() error {
	if p.TotalSupply == nil || p.TotalSupply.IsZero() {
		return ErrZeroTotalSupply
	}
	if p.InitialPrice == nil || p.InitialPrice.IsZero() {
		return ErrZeroInitialPrice
	}
	if p.GraduationThreshold == nil || p.GraduationThreshold.IsZero() {
		return ErrZeroThreshold
	}
	if int(p.CreatorFeeBps)+int(p.PlatformFeeBps) > MaxBasisPoints {
		return ErrFeeTooHigh
	}
	return nil
}

func (p *Params) totalFeeBps() *uint256.Int {
	return uint256.NewInt(uint64(p.CreatorFeeBps) + uint64(p.PlatformFeeBps))
}

// FeeOn returns the combined creator+platform fee on a gross payment,
// floored.
func (p *Params) FeeOn(gross *uint256.Int) (*uint256.Int, error) {
	return mulDiv(gross, p.totalFeeBps(), bpsDenominator, RoundingDown)
}

// SplitFee divides a total fee between the creator and the platform,
// proportionally to their bps shares. The platform takes the rounding dust so
// the two parts always sum to the input.
func (p *Params) SplitFee(gross, totalFee *uint256.Int) (creatorFee, platformFee *uint256.Int, err error) {
	creatorFee, err = mulDiv(gross, uint256.NewInt(uint64(p.CreatorFeeBps)), bpsDenominator, RoundingDown)
	if err != nil {
		return nil, nil, err
	}
	if creatorFee.Gt(totalFee) {
		creatorFee = totalFee.Clone()
	}
	platformFee, err = sub(totalFee, creatorFee)
	if err != nil {
		return nil, nil, err
	}
	return creatorFee, platformFee, nil
}

// CurrentPrice evaluates price(supply) = initialPrice + increment*supply/P.
func CurrentPrice(currentSupply *uint256.Int, p *Params) (*uint256.Int, error) {
	slope, err := mulDiv(p.PriceIncrement, currentSupply, Precision, RoundingDown)
	if err != nil {
		return nil, err
	}
	return add(p.InitialPrice, slope)
}

// MarketCap evaluates price(supply)*totalSupply/P, the quantity checked
// against the graduation threshold.
func MarketCap(currentSupply *uint256.Int, p *Params) (*uint256.Int, error) {
	price, err := CurrentPrice(currentSupply, p)
	if err != nil {
		return nil, err
	}
	return mulDiv(price, p.TotalSupply, Precision, RoundingDown)
}

// TokensForPayment computes how many tokens a gross payment buys at the
// current supply, together with the fee skimmed off the payment.
//
// The exact integral of the linear price over [s, s+Δ] satisfies
// net*P = b*Δ + inc*Δ²/(2P) with b = price(s). Multiplying through by 2P
// gives an integer quadratic inc*Δ² + 2P*b*Δ - 2P²*net = 0 whose positive
// root is
//
//	Δ = (sqrt((P*b)² + 2*inc*net*P²) - P*b) / inc
//
// computed entirely in checked 256-bit arithmetic with a flooring square
// root, so Δ never exceeds the true solution.
func TokensForPayment(grossPayment, currentSupply *uint256.Int, p *Params) (tokensOut, feeAmount *uint256.Int, err error) {
	if currentSupply.Gt(p.TotalSupply) {
		return nil, nil, ErrSupplyExceedsTotal
	}
	feeAmount, err = p.FeeOn(grossPayment)
	if err != nil {
		return nil, nil, err
	}
	net, err := sub(grossPayment, feeAmount)
	if err != nil {
		return nil, nil, err
	}

	if p.PriceIncrement.IsZero() {
		// Flat curve degenerates the quadratic; price is constant.
		tokensOut, err = mulDiv(net, Precision, p.InitialPrice, RoundingDown)
		if err != nil {
			return nil, nil, err
		}
	} else {
		tokensOut, err = solvePurchase(net, currentSupply, p)
		if err != nil {
			return nil, nil, err
		}
	}

	endSupply, err := add(currentSupply, tokensOut)
	if err != nil {
		return nil, nil, err
	}
	if endSupply.Gt(p.TotalSupply) {
		// No partial fills: the caller must resubmit a smaller payment.
		return nil, nil, ErrCapExceeded
	}
	return tokensOut, feeAmount, nil
}

func solvePurchase(netPayment, currentSupply *uint256.Int, p *Params) (*uint256.Int, error) {
	b, err := CurrentPrice(currentSupply, p)
	if err != nil {
		return nil, err
	}
	pb, err := mul(Precision, b)
	if err != nil {
		return nil, err
	}
	pbSquared, err := mul(pb, pb)
	if err != nil {
		return nil, err
	}
	pSquared, err := mul(Precision, Precision)
	if err != nil {
		return nil, err
	}
	linearTerm, err := mul(two, p.PriceIncrement)
	if err != nil {
		return nil, err
	}
	linearTerm, err = mul(linearTerm, netPayment)
	if err != nil {
		return nil, err
	}
	linearTerm, err = mul(linearTerm, pSquared)
	if err != nil {
		return nil, err
	}
	discriminant, err := add(pbSquared, linearTerm)
	if err != nil {
		return nil, err
	}

	root := sqrt(discriminant)
	// root >= pb always holds since discriminant >= pb².
	numerator, err := sub(root, pb)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(numerator, p.PriceIncrement), nil
}

// PaymentForTokens computes the gross payment returned for selling
// tokenAmount back to the curve at the current supply, plus the fee deducted
// from the seller's payout. It is the forward direction of the integral, so
// the exact trapezoidal closed form applies:
//
//	gross = (price(s) + price(s-Δ)) * Δ / (2P)
//
// floored, which can only underpay the seller relative to the continuous
// integral, never overpay.
func PaymentForTokens(tokenAmount, currentSupply *uint256.Int, p *Params) (grossPayment, feeAmount *uint256.Int, err error) {
	if tokenAmount.Gt(currentSupply) {
		return nil, nil, ErrAmountExceedsSupply
	}
	upper, err := CurrentPrice(currentSupply, p)
	if err != nil {
		return nil, nil, err
	}
	lowerSupply, err := sub(currentSupply, tokenAmount)
	if err != nil {
		return nil, nil, err
	}
	lower, err := CurrentPrice(lowerSupply, p)
	if err != nil {
		return nil, nil, err
	}
	priceSum, err := add(upper, lower)
	if err != nil {
		return nil, nil, err
	}
	twoP, err := mul(two, Precision)
	if err != nil {
		return nil, nil, err
	}
	grossPayment, err = mulDiv(priceSum, tokenAmount, twoP, RoundingDown)
	if err != nil {
		return nil, nil, err
	}
	feeAmount, err = p.FeeOn(grossPayment)
	if err != nil {
		return nil, nil, err
	}
	return grossPayment, feeAmount, nil
}
