package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/curve"
	"github.com/bnbfun/launchpad/internal/factory"
	"github.com/bnbfun/launchpad/internal/launch"
	"github.com/bnbfun/launchpad/internal/token"
)

// ErrInvalidBody indicates the request body could not be parsed into the
// expected structure.
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// ErrAmountRequired is returned when a required amount parameter is missing.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "amount is required")

// ErrFaucetDisabled is returned when the faucet endpoint is hit without the
// faucet being enabled in configuration.
var ErrFaucetDisabled = fiber.NewError(fiber.StatusForbidden, "faucet is disabled")

// NewInvalidAmount wraps an amount parsing error into a 400 Bad Request.
func NewInvalidAmount(field string, err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+": "+err.Error())
}

// mapEngineError translates engine sentinels into fiber errors with
// appropriate HTTP statuses. Unknown errors are logged and surfaced as 500.
func (s *Server) mapEngineError(err error) error {
	switch {
	case errors.Is(err, factory.ErrLaunchNotFound):
		return fiber.NewError(fiber.StatusNotFound, "launch not found")
	case errors.Is(err, factory.ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, "caller is not the owner")
	case errors.Is(err, factory.ErrFeeOutOfRange),
		errors.Is(err, curve.ErrFeeTooHigh):
		return fiber.NewError(fiber.StatusBadRequest, "fee configuration out of range")
	case errors.Is(err, factory.ErrEmptyName),
		errors.Is(err, factory.ErrEmptySymbol),
		errors.Is(err, factory.ErrEmptyCreator),
		errors.Is(err, curve.ErrZeroTotalSupply),
		errors.Is(err, curve.ErrZeroInitialPrice),
		errors.Is(err, curve.ErrZeroThreshold),
		errors.Is(err, launch.ErrZeroAmount),
		errors.Is(err, launch.ErrEmptyCaller):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, launch.ErrNotOpen):
		return fiber.NewError(fiber.StatusConflict, "launch has graduated; trade on the pool")
	case errors.Is(err, launch.ErrSellDisabled):
		return fiber.NewError(fiber.StatusConflict, "selling is disabled for this launch")
	case errors.Is(err, launch.ErrSlippageExceeded):
		return fiber.NewError(fiber.StatusConflict, "quote moved beyond the slippage bound")
	case errors.Is(err, curve.ErrCapExceeded):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "purchase exceeds remaining curve supply")
	case errors.Is(err, curve.ErrAmountExceedsSupply):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "sell amount exceeds tokens sold")
	case errors.Is(err, launch.ErrInsufficientCurveBalance),
		errors.Is(err, token.ErrInsufficientBalance):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, launch.ErrGraduationFailure):
		return fiber.NewError(fiber.StatusBadGateway, "liquidity migration failed; trade rolled back")
	default:
		s.logger.Error("unhandled engine error", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
