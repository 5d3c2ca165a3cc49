package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// TradeRequest is the body of buy and sell calls. Amount is the payment in
// base currency for buys and the token amount for sells; the limit field is
// the caller's slippage bound and may be omitted.
type TradeRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
	Limit  string `json:"limit"`
}

// BuyResponse reports an executed buy.
type BuyResponse struct {
	TokensOut  string `json:"tokens_out"`
	Fee        string `json:"fee"`
	NetPayment string `json:"net_payment"`
	Graduated  bool   `json:"graduated"`
}

// SellResponse reports an executed sell.
type SellResponse struct {
	GrossPayment string `json:"gross_payment"`
	Fee          string `json:"fee"`
	NetPayout    string `json:"net_payout"`
	NetPayoutBNB string `json:"net_payout_bnb"`
}

func (s *Server) parseTradeRequest(c fiber.Ctx) (*TradeRequest, *uint256.Int, *uint256.Int, error) {
	var req TradeRequest
	if err := c.Bind().Body(&req); err != nil {
		s.logger.Debug("failed to bind trade request", zap.Error(err))
		return nil, nil, nil, ErrInvalidBody
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, nil, nil, err
	}
	limit := uint256.NewInt(0)
	if req.Limit != "" {
		limit, err = parseAmount("limit", req.Limit)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return &req, amount, limit, nil
}

func (s *Server) handleBuy(c fiber.Ctx) error {
	l, err := s.factory.GetLaunch(c.Params("id"))
	if err != nil {
		return s.mapEngineError(err)
	}
	req, payment, minTokensOut, err := s.parseTradeRequest(c)
	if err != nil {
		return err
	}

	res, err := l.Buy(context.Background(), req.Caller, payment, minTokensOut)
	if err != nil {
		return s.mapEngineError(err)
	}
	return c.JSON(BuyResponse{
		TokensOut:  res.TokensOut.Dec(),
		Fee:        res.FeeAmount.Dec(),
		NetPayment: res.NetPayment.Dec(),
		Graduated:  res.Graduated,
	})
}

func (s *Server) handleSell(c fiber.Ctx) error {
	l, err := s.factory.GetLaunch(c.Params("id"))
	if err != nil {
		return s.mapEngineError(err)
	}
	req, amount, minPayout, err := s.parseTradeRequest(c)
	if err != nil {
		return err
	}

	res, err := l.Sell(context.Background(), req.Caller, amount, minPayout)
	if err != nil {
		return s.mapEngineError(err)
	}
	return c.JSON(SellResponse{
		GrossPayment: res.GrossPayment.Dec(),
		Fee:          res.FeeAmount.Dec(),
		NetPayout:    res.NetPayout.Dec(),
		NetPayoutBNB: toDisplay(res.NetPayout),
	})
}
