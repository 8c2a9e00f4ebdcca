package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fastprodman/wagerledger/internal/repos/bets"
	"github.com/fastprodman/wagerledger/internal/repos/transactions"
	"github.com/fastprodman/wagerledger/internal/services/ledger"
)

type placeBetRequest struct {
	GameID    uint64          `json:"game_id" validate:"required,gt=0"`
	BetAmount json.Number     `json:"bet_amount" validate:"required"`
	GameData  json.RawMessage `json:"game_data,omitempty"`
}

type settleBetRequest struct {
	Outcome    string          `json:"outcome" validate:"required,oneof=win lose"`
	WinAmount  json.Number     `json:"win_amount,omitempty"`
	GameResult json.RawMessage `json:"game_result,omitempty"`
}

type adjustBalanceRequest struct {
	Type      string      `json:"type" validate:"required,oneof=deposit withdrawal adjustment"`
	Direction string      `json:"direction,omitempty" validate:"omitempty,oneof=credit debit"`
	Amount    json.Number `json:"amount" validate:"required"`
	Reason    string      `json:"reason,omitempty" validate:"max=255"`
}

type balanceResponse struct {
	UserID         uint64 `json:"user_id"`
	Balance        string `json:"balance"`
	TotalWagered   string `json:"total_wagered"`
	TotalWon       string `json:"total_won"`
	TotalDeposited string `json:"total_deposited"`
	TotalWithdrawn string `json:"total_withdrawn"`
}

type transactionResponse struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	Status        string    `json:"status"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type betResponse struct {
	ID               int64           `json:"id"`
	GameID           uint64          `json:"game_id"`
	TransactionID    int64           `json:"transaction_id"`
	WinTransactionID *int64          `json:"win_transaction_id,omitempty"`
	BetAmount        string          `json:"bet_amount"`
	Outcome          string          `json:"outcome"`
	WinAmount        string          `json:"win_amount"`
	GameData         json.RawMessage `json:"game_data,omitempty"`
	GameResult       json.RawMessage `json:"game_result,omitempty"`
	PlacedAt         time.Time       `json:"placed_at"`
	ResultAt         *time.Time      `json:"result_at,omitempty"`
}

type activityResponse struct {
	ID          int64           `json:"id"`
	Action      string          `json:"action"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type placeBetResponse struct {
	BetID          int64  `json:"bet_id"`
	TransactionID  int64  `json:"transaction_id"`
	TransactionRef string `json:"transaction_ref"`
	GameID         uint64 `json:"game_id"`
	BetAmount      string `json:"bet_amount"`
	BalanceBefore  string `json:"balance_before"`
	NewBalance     string `json:"new_balance"`
}

type settleBetResponse struct {
	BetID         int64     `json:"bet_id"`
	UserID        uint64    `json:"user_id"`
	Outcome       string    `json:"outcome"`
	WinAmount     string    `json:"win_amount"`
	TransactionID *int64    `json:"transaction_id,omitempty"`
	NewBalance    *string   `json:"new_balance,omitempty"`
	ResultAt      time.Time `json:"result_at"`
	Replayed      bool      `json:"replayed"`
}

type adjustmentResponse struct {
	TransactionID  int64  `json:"transaction_id"`
	TransactionRef string `json:"transaction_ref"`
	UserID         uint64 `json:"user_id"`
	Type           string `json:"type"`
	Direction      string `json:"direction"`
	Amount         string `json:"amount"`
	BalanceBefore  string `json:"balance_before"`
	NewBalance     string `json:"new_balance"`
}

// --- Handlers ---

// GetBalanceHandler handles GET /api/v1/me/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	claims := mustClaims(r)

	acc, err := h.svc.GetBalance(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, balanceResponse{
		UserID:         acc.UserID,
		Balance:        money(acc.Balance),
		TotalWagered:   money(acc.TotalWagered),
		TotalWon:       money(acc.TotalWon),
		TotalDeposited: money(acc.TotalDeposited),
		TotalWithdrawn: money(acc.TotalWithdrawn),
	})
}

// ListTransactionsHandler handles GET /api/v1/me/transactions?limit=
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.svc.ListTransactions(r.Context(), mustClaims(r).UserID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"transactions": out})
}

// ListBetsHandler handles GET /api/v1/me/bets?limit=
func (h *HandlerProvider) ListBetsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.svc.ListBets(r.Context(), mustClaims(r).UserID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]betResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBetResponse(b))
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"bets": out})
}

// ListActivityHandler handles GET /api/v1/me/activity?limit=
func (h *HandlerProvider) ListActivityHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.svc.ListActivity(r.Context(), mustClaims(r).UserID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]activityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, activityResponse{
			ID:          a.ID,
			Action:      string(a.Action),
			Category:    string(a.Category),
			Description: a.Description,
			Metadata:    a.Metadata,
			CreatedAt:   a.CreatedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"activity": out})
}

// PlaceBetHandler handles POST /api/v1/bets
func (h *HandlerProvider) PlaceBetHandler(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest

	err := decodeJSONBody(w, r, &req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.BetAmount, false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	placed, err := h.svc.PlaceBet(r.Context(), ledger.PlaceBetRequest{
		UserID:   mustClaims(r).UserID,
		GameID:   req.GameID,
		Amount:   amount,
		GameData: req.GameData,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, placeBetResponse{
		BetID:          placed.BetID,
		TransactionID:  placed.TransactionID,
		TransactionRef: placed.TransactionRef,
		GameID:         placed.GameID,
		BetAmount:      money(placed.BetAmount),
		BalanceBefore:  money(placed.BalanceBefore),
		NewBalance:     money(placed.NewBalance),
	})
}

// SettleBetHandler handles POST /api/v1/bets/{betId}/result
func (h *HandlerProvider) SettleBetHandler(w http.ResponseWriter, r *http.Request) {
	betID, err := parseIDParam(r, "betId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid betId in path")
		return
	}

	var req settleBetRequest

	err = decodeJSONBody(w, r, &req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	winAmount, err := parseAmount(req.WinAmount, true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	settled, err := h.svc.SettleBet(r.Context(), ledger.SettleBetRequest{
		BetID:      int64(betID),
		Outcome:    bets.Outcome(req.Outcome),
		WinAmount:  winAmount,
		GameResult: req.GameResult,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := settleBetResponse{
		BetID:         settled.BetID,
		UserID:        settled.UserID,
		Outcome:       string(settled.Outcome),
		WinAmount:     money(settled.WinAmount),
		TransactionID: settled.TransactionID,
		ResultAt:      settled.ResultAt,
		Replayed:      settled.Replayed,
	}
	if settled.NewBalance != nil {
		nb := money(*settled.NewBalance)
		resp.NewBalance = &nb
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// AdjustBalanceHandler handles POST /api/v1/admin/users/{userId}/balance
func (h *HandlerProvider) AdjustBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req adjustBalanceRequest

	err = decodeJSONBody(w, r, &req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	adj, err := h.svc.AdjustBalance(r.Context(), ledger.AdjustmentRequest{
		UserID:    userID,
		Type:      transactions.Type(req.Type),
		Direction: ledger.Direction(req.Direction),
		Amount:    amount,
		Reason:    req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, adjustmentResponse{
		TransactionID:  adj.TransactionID,
		TransactionRef: adj.TransactionRef,
		UserID:         adj.UserID,
		Type:           string(adj.Type),
		Direction:      string(adj.Direction),
		Amount:         money(adj.Amount),
		BalanceBefore:  money(adj.BalanceBefore),
		NewBalance:     money(adj.NewBalance),
	})
}

func toTransactionResponse(t transactions.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Reference:     t.Reference,
		Type:          string(t.Type),
		Amount:        money(t.Amount),
		BalanceBefore: money(t.BalanceBefore),
		BalanceAfter:  money(t.BalanceAfter),
		Status:        string(t.Status),
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
	}
}

func toBetResponse(b bets.Bet) betResponse {
	return betResponse{
		ID:               b.ID,
		GameID:           b.GameID,
		TransactionID:    b.TransactionID,
		WinTransactionID: b.WinTransactionID,
		BetAmount:        money(b.BetAmount),
		Outcome:          string(b.Outcome),
		WinAmount:        money(b.WinAmount),
		GameData:         b.GameData,
		GameResult:       b.GameResult,
		PlacedAt:         b.PlacedAt,
		ResultAt:         b.ResultAt,
	}
}
