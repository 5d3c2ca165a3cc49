package launch

import "errors"

var (
	// ErrNotOpen rejects trades against a graduated launch; the condition is
	// permanent.
	ErrNotOpen = errors.New("launch: not open for trading")
	// ErrSellDisabled rejects sells on launches created without sell-back.
	ErrSellDisabled = errors.New("launch: selling is disabled")
	// ErrSlippageExceeded means the quoted minimum was not met; the caller
	// should re-quote and retry.
	ErrSlippageExceeded = errors.New("launch: slippage tolerance exceeded")
	// ErrInsufficientCurveBalance bounds sell-back volume to tokens acquired
	// through this curve.
	ErrInsufficientCurveBalance = errors.New("launch: insufficient curve balance")
	// ErrAlreadyInitialized guards the clone-template initializer.
	ErrAlreadyInitialized = errors.New("launch: already initialized")
	// ErrNotInitialized rejects operations on a bare template instance.
	ErrNotInitialized = errors.New("launch: not initialized")
	// ErrGraduationFailure wraps a failed liquidity deposit; the triggering
	// buy is rolled back in full.
	ErrGraduationFailure = errors.New("launch: graduation liquidity deposit failed")
	// ErrZeroAmount rejects zero-value trades.
	ErrZeroAmount = errors.New("launch: amount must be greater than zero")
	// ErrEmptyCaller rejects trades without an account address.
	ErrEmptyCaller = errors.New("launch: caller address is empty")
)
