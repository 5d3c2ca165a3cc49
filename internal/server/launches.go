package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/factory"
	"github.com/bnbfun/launchpad/internal/launch"
)

// LaunchView is the JSON shape of one launch. Amounts appear both as raw
// 18-decimal integer strings and as human-readable decimal fields.
type LaunchView struct {
	ID             string `json:"id"`
	Creator        string `json:"creator"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	TotalSupply    string `json:"total_supply"`
	TokensSold     string `json:"tokens_sold"`
	Raised         string `json:"raised"`
	Price          string `json:"price"`
	MarketCap      string `json:"market_cap"`
	RaisedBNB      string `json:"raised_bnb"`
	PriceBNB       string `json:"price_bnb"`
	MarketCapBNB   string `json:"market_cap_bnb"`
	CreatorFeeBps  uint16 `json:"creator_fee_bps"`
	PlatformFeeBps uint16 `json:"platform_fee_bps"`
	EnableSell     bool   `json:"enable_sell"`
	Graduated      bool   `json:"graduated"`
	PoolID         string `json:"pool_id,omitempty"`
}

// CreateLaunchRequest creates a launch. Amounts are raw 18-decimal integer
// strings, matching the on-curve representation.
type CreateLaunchRequest struct {
	Name                string `json:"name"`
	Symbol              string `json:"symbol"`
	Creator             string `json:"creator"`
	TotalSupply         string `json:"total_supply"`
	InitialPrice        string `json:"initial_price"`
	PriceIncrement      string `json:"price_increment"`
	GraduationThreshold string `json:"graduation_threshold"`
	EnableSell          bool   `json:"enable_sell"`
}

func launchView(snap *launch.Snapshot) LaunchView {
	view := LaunchView{
		ID:             snap.ID,
		Creator:        snap.Creator,
		Name:           snap.TokenName,
		Symbol:         snap.TokenSymbol,
		TotalSupply:    snap.Params.TotalSupply.Dec(),
		TokensSold:     snap.TokensSold.Dec(),
		Raised:         snap.BNBRaised.Dec(),
		Price:          snap.Price.Dec(),
		MarketCap:      snap.MarketCap.Dec(),
		RaisedBNB:      toDisplay(snap.BNBRaised),
		PriceBNB:       toDisplay(snap.Price),
		MarketCapBNB:   toDisplay(snap.MarketCap),
		CreatorFeeBps:  snap.Params.CreatorFeeBps,
		PlatformFeeBps: snap.Params.PlatformFeeBps,
		EnableSell:     snap.Params.EnableSell,
		Graduated:      snap.Graduated,
		PoolID:         snap.PoolID,
	}
	return view
}

// toDisplay renders an 18-decimal fixed-point amount as a decimal string.
func toDisplay(v *uint256.Int) string {
	return decimal.NewFromBigInt(v.ToBig(), -18).String()
}

// parseAmount parses a raw 18-decimal integer string.
func parseAmount(field, s string) (*uint256.Int, error) {
	if s == "" {
		return nil, ErrAmountRequired
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, NewInvalidAmount(field, err)
	}
	return v, nil
}

func (s *Server) handleListLaunches(c fiber.Ctx) error {
	launches := s.factory.GetAllLaunches()
	views := make([]LaunchView, 0, len(launches))
	for _, l := range launches {
		snap, err := l.Snapshot()
		if err != nil {
			return s.mapEngineError(err)
		}
		views = append(views, launchView(snap))
	}
	return c.JSON(views)
}

func (s *Server) handleGetLaunch(c fiber.Ctx) error {
	l, err := s.factory.GetLaunch(c.Params("id"))
	if err != nil {
		return s.mapEngineError(err)
	}
	snap, err := l.Snapshot()
	if err != nil {
		return s.mapEngineError(err)
	}
	return c.JSON(launchView(snap))
}

func (s *Server) handleCreateLaunch(c fiber.Ctx) error {
	var req CreateLaunchRequest
	if err := c.Bind().Body(&req); err != nil {
		s.logger.Debug("failed to bind create request", zap.Error(err))
		return ErrInvalidBody
	}

	supply, err := parseAmount("total_supply", req.TotalSupply)
	if err != nil {
		return err
	}
	initialPrice, err := parseAmount("initial_price", req.InitialPrice)
	if err != nil {
		return err
	}
	increment := uint256.NewInt(0)
	if req.PriceIncrement != "" {
		increment, err = parseAmount("price_increment", req.PriceIncrement)
		if err != nil {
			return err
		}
	}
	threshold, err := parseAmount("graduation_threshold", req.GraduationThreshold)
	if err != nil {
		return err
	}

	id, err := s.factory.CreateLaunch(context.Background(), factory.LaunchSpec{
		Name:                req.Name,
		Symbol:              req.Symbol,
		Creator:             req.Creator,
		TotalSupply:         supply,
		InitialPrice:        initialPrice,
		PriceIncrement:      increment,
		GraduationThreshold: threshold,
		EnableSell:          req.EnableSell,
	})
	if err != nil {
		return s.mapEngineError(err)
	}

	l, err := s.factory.GetLaunch(id)
	if err != nil {
		return s.mapEngineError(err)
	}
	snap, err := l.Snapshot()
	if err != nil {
		return s.mapEngineError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(launchView(snap))
}

// QuoteView is the JSON shape of a buy or sell quote.
type QuoteView struct {
	TokensOut string `json:"tokens_out,omitempty"`
	Payout    string `json:"payout,omitempty"`
	Fee       string `json:"fee"`
	FeeBNB    string `json:"fee_bnb"`
}

func (s *Server) handleQuoteBuy(c fiber.Ctx) error {
	l, err := s.factory.GetLaunch(c.Params("id"))
	if err != nil {
		return s.mapEngineError(err)
	}
	payment, err := parseAmount("payment", c.Query("payment"))
	if err != nil {
		return err
	}

	tokensOut, fee, err := l.QuoteBuy(payment)
	if err != nil {
		return s.mapEngineError(err)
	}
	return c.JSON(QuoteView{
		TokensOut: tokensOut.Dec(),
		Fee:       fee.Dec(),
		FeeBNB:    toDisplay(fee),
	})
}

func (s *Server) handleQuoteSell(c fiber.Ctx) error {
	l, err := s.factory.GetLaunch(c.Params("id"))
	if err != nil {
		return s.mapEngineError(err)
	}
	amount, err := parseAmount("amount", c.Query("amount"))
	if err != nil {
		return err
	}

	gross, fee, err := l.QuoteSell(amount)
	if err != nil {
		return s.mapEngineError(err)
	}
	payout := new(uint256.Int).Sub(gross, fee)
	return c.JSON(QuoteView{
		Payout: payout.Dec(),
		Fee:    fee.Dec(),
		FeeBNB: toDisplay(fee),
	})
}
