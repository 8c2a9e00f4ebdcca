package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/wagerledger/internal/repos/balances"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/repos/games"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidBetAmount is the InvalidInput raised for stakes outside a
	// game's limits.
	ErrInvalidBetAmount = fmt.Errorf("%w: bet amount outside game limits", ErrInvalidInput)
	// ErrAmountOutOfRange is the InvalidInput raised when an amount or the
	// resulting balance does not fit the money column.
	ErrAmountOutOfRange  = fmt.Errorf("%w: amount out of range", ErrInvalidInput)
	ErrInsufficientFunds = balances.ErrInsufficientFunds
	ErrAlreadySettled    = errors.New("bet already settled")
	ErrStorage           = errors.New("storage failure")
)

// Kind names the error class of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrAlreadySettled):
		return "already_settled"
	default:
		return "storage"
	}
}

// classify attaches a ledger error kind to errors coming out of a unit of
// work. Repo sentinels stay in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, games.ErrGameNotFound),
		errors.Is(err, bets.ErrBetNotFound),
		errors.Is(err, balances.ErrAccountNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, bets.ErrNotPending):
		return fmt.Errorf("%w: %w", ErrAlreadySettled, err)
	case isDataException(err):
		return fmt.Errorf("%w: %w", ErrAmountOutOfRange, err)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrAlreadySettled),
		errors.Is(err, ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

// isDataException reports a PostgreSQL class 22 error, such as a NUMERIC
// overflow on an amount or a balance counter.
func isDataException(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "22")
}
