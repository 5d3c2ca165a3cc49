package server

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// TokenHolding is one launch-token position of an account.
type TokenHolding struct {
	LaunchID string `json:"launch_id"`
	Symbol   string `json:"symbol"`
	Balance  string `json:"balance"`
}

// AccountView reports an account's base balance and token holdings.
type AccountView struct {
	Address    string         `json:"address"`
	Balance    string         `json:"balance"`
	BalanceBNB string         `json:"balance_bnb"`
	Holdings   []TokenHolding `json:"holdings"`
}

func (s *Server) handleGetAccount(c fiber.Ctx) error {
	address := c.Params("address")
	balance := s.bank.BalanceOf(address)

	holdings := make([]TokenHolding, 0)
	for _, l := range s.factory.GetAllLaunches() {
		held := l.CurveBalanceOf(address)
		if held.IsZero() {
			continue
		}
		snap, err := l.Snapshot()
		if err != nil {
			return s.mapEngineError(err)
		}
		holdings = append(holdings, TokenHolding{
			LaunchID: snap.ID,
			Symbol:   snap.TokenSymbol,
			Balance:  held.Dec(),
		})
	}

	return c.JSON(AccountView{
		Address:    address,
		Balance:    balance.Dec(),
		BalanceBNB: toDisplay(balance),
		Holdings:   holdings,
	})
}

func (s *Server) handleFaucet(c fiber.Ctx) error {
	if !s.faucetEnabled {
		return ErrFaucetDisabled
	}
	address := c.Params("address")

	if err := s.bank.Mint(address, s.faucetAmount); err != nil {
		return s.mapEngineError(err)
	}
	s.logger.Info("faucet grant",
		zap.String("address", address),
		zap.String("amount", s.faucetAmount.Dec()))

	balance := s.bank.BalanceOf(address)
	return c.JSON(AccountView{
		Address:    address,
		Balance:    balance.Dec(),
		BalanceBNB: toDisplay(balance),
		Holdings:   make([]TokenHolding, 0),
	})
}

// SetFeesRequest updates the factory's default fees for future launches.
type SetFeesRequest struct {
	Caller         string `json:"caller"`
	CreatorFeeBps  uint16 `json:"creator_fee_bps"`
	PlatformFeeBps uint16 `json:"platform_fee_bps"`
}

func (s *Server) handleSetDefaultFees(c fiber.Ctx) error {
	var req SetFeesRequest
	if err := c.Bind().Body(&req); err != nil {
		s.logger.Debug("failed to bind fee request", zap.Error(err))
		return ErrInvalidBody
	}

	if err := s.factory.SetDefaultFees(req.Caller, req.CreatorFeeBps, req.PlatformFeeBps); err != nil {
		return s.mapEngineError(err)
	}

	defaults := s.factory.DefaultFees()
	return c.JSON(fiber.Map{
		"creator_fee_bps":  defaults.CreatorFeeBps,
		"platform_fee_bps": defaults.PlatformFeeBps,
	})
}
