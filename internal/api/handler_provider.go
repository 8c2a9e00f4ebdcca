package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/wagerledger/internal/repos/activity"
	"github.com/fastprodman/wagerledger/internal/repos/balances"
	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/repos/games"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
	"github.com/fastprodman/wagerledger/internal/services/ledger"
)

const maxBodyBytes = 1 << 20

// LedgerService is the part of ledger.Service the handlers use.
type LedgerService interface {
	PlaceBet(ctx context.Context, req ledger.PlaceBetRequest) (ledger.BetPlacement, error)
	SettleBet(ctx context.Context, req ledger.SettleBetRequest) (ledger.Settlement, error)
	AdjustBalance(ctx context.Context, req ledger.AdjustmentRequest) (ledger.Adjustment, error)
	GetBalance(ctx context.Context, userID uint64) (balances.Account, error)
	ListTransactions(ctx context.Context, userID uint64, limit int) ([]transactions.Transaction, error)
	ListBets(ctx context.Context, userID uint64, limit int) ([]bets.Bet, error)
	ListActivity(ctx context.Context, userID uint64, limit int) ([]activity.Record, error)
}

// HandlerProvider wraps a LedgerService and exposes HTTP handlers.
type HandlerProvider struct {
	svc LedgerService
}

// NewHandler returns a new Handler provider.
func NewHandler(svc LedgerService) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps ledger error kinds to status codes. Storage
// failures are logged and never leak their cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, r, http.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, r, http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, ledger.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, invalidInputMessage(err))
	case errors.Is(err, ledger.ErrAlreadySettled):
		writeError(w, r, http.StatusConflict, "bet already settled")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("ledger request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, games.ErrGameNotFound):
		return "game not found or inactive"
	case errors.Is(err, bets.ErrBetNotFound):
		return "bet not found"
	case errors.Is(err, balances.ErrAccountNotFound):
		return "balance not found"
	default:
		return "not found"
	}
}

// invalidInputMessage keeps the text after the error kind, which names
// the offending field or limit.
func invalidInputMessage(err error) string {
	if errors.Is(err, ledger.ErrAmountOutOfRange) {
		return "amount out of range"
	}

	msg := err.Error()
	prefix := ledger.ErrInvalidInput.Error() + ": "

	idx := strings.Index(msg, prefix)
	if idx < 0 {
		return "invalid input"
	}

	return msg[idx+len(prefix):]
}

// decodeJSONBody reads a size-capped body into dest, rejecting unknown
// fields, then runs struct validation.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dest)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	err = validate.Struct(dest)
	if err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validation failed: %w", err)
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" "+validationMessage(fe))
	}

	return errors.New(strings.Join(parts, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

// parseAmount converts a decimal string or JSON number with up to 2
// fractional digits. Zero is accepted only when allowZero is set.
func parseAmount(raw json.Number, allowZero bool) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		if allowZero {
			return decimal.Zero, nil
		}
		return decimal.Zero, errors.New("amount required")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("invalid amount")
	}
	if !d.Equal(d.Round(ledger.MoneyPlaces)) {
		return decimal.Zero, errors.New("amount supports up to 2 decimals")
	}
	if d.IsNegative() || (d.IsZero() && !allowZero) {
		return decimal.Zero, errors.New("amount must be > 0")
	}

	return d, nil
}

func parseIDParam(r *http.Request, name string) (uint64, error) {
	idStr := chi.URLParam(r, name)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	id, err := strconv.ParseUint(idStr, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}

	return id, nil
}

// parseLimit reads ?limit=; absent means the repository default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}

	return n, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(ledger.MoneyPlaces)
}
