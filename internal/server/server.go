// Package server exposes the launch engine over HTTP.
package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/factory"
	"github.com/bnbfun/launchpad/internal/token"
)

// Options carries the server's collaborators and feature flags.
type Options struct {
	Factory       *factory.Factory
	Bank          *token.Ledger
	Logger        *zap.Logger
	FaucetEnabled bool
	FaucetAmount  *uint256.Int
}

// Server wires the HTTP routes onto a fiber app.
type Server struct {
	app           *fiber.App
	factory       *factory.Factory
	bank          *token.Ledger
	logger        *zap.Logger
	faucetEnabled bool
	faucetAmount  *uint256.Int
}

// New builds the app and registers all routes.
func New(opts Options) *Server {
	s := &Server{
		app:           fiber.New(),
		factory:       opts.Factory,
		bank:          opts.Bank,
		logger:        opts.Logger,
		faucetEnabled: opts.FaucetEnabled,
		faucetAmount:  opts.FaucetAmount,
	}

	s.app.Get("/launches", s.handleListLaunches)
	s.app.Post("/launches", s.handleCreateLaunch)
	s.app.Get("/launches/:id", s.handleGetLaunch)
	s.app.Get("/launches/:id/quote/buy", s.handleQuoteBuy)
	s.app.Get("/launches/:id/quote/sell", s.handleQuoteSell)
	s.app.Post("/launches/:id/buy", s.handleBuy)
	s.app.Post("/launches/:id/sell", s.handleSell)
	s.app.Get("/accounts/:address", s.handleGetAccount)
	s.app.Post("/accounts/:address/fund", s.handleFaucet)
	s.app.Post("/admin/fees", s.handleSetDefaultFees)

	return s
}

// App returns the underlying fiber app, used by tests to issue requests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }
