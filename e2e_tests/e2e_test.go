//go:build e2e

package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/wagerledger/internal/api"
	"github.com/fastprodman/wagerledger/internal/config"
)

// The suite runs against a live API started with the dev seed applied:
// user 1 (alice) holds funds, game 1 accepts stakes of 1.00 to 50.00,
// game 99 is inactive.
const (
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second

	aliceID = 1
	carolID = 3
	adminID = 100
)

var httpClient = &http.Client{Timeout: timeout}

func baseURL() string {
	if u := os.Getenv("E2E_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func authConfig() config.AuthConfig {
	secret := os.Getenv("JWT_ACCESS_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}
	return config.AuthConfig{AccessSecret: secret, Issuer: os.Getenv("JWT_ISSUER")}
}

func TestE2E_BetLifecycle(t *testing.T) {
	waitUntilReady(t)

	player := token(t, aliceID, api.RolePlayer)
	admin := token(t, adminID, api.RoleAdmin)

	start := balanceOf(t, player)

	var placed struct {
		BetID         int64  `json:"bet_id"`
		BalanceBefore string `json:"balance_before"`
		NewBalance    string `json:"new_balance"`
	}

	t.Run("place_bet_debits_stake", func(t *testing.T) {
		code, body := call(t, http.MethodPost, "/api/v1/bets", player,
			`{"game_id":1,"bet_amount":"5.00","game_data":{"hand":"A,K"}}`, nil)
		require.Equal(t, http.StatusCreated, code, body)
		require.NoError(t, json.Unmarshal([]byte(body), &placed))

		assert.Equal(t, money(start), placed.BalanceBefore)
		assert.Equal(t, money(start.Sub(decimal.NewFromInt(5))), placed.NewBalance)
		assert.Equal(t, placed.NewBalance, money(balanceOf(t, player)))
	})

	t.Run("player_cannot_settle", func(t *testing.T) {
		code, body := call(t, http.MethodPost, fmt.Sprintf("/api/v1/bets/%d/result", placed.BetID), player,
			`{"outcome":"win","win_amount":"10.00"}`, nil)
		assert.Equal(t, http.StatusForbidden, code, body)
	})

	t.Run("settle_win_credits_once", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/bets/%d/result", placed.BetID)
		payload := `{"outcome":"win","win_amount":"12.50","game_result":{"dealer":"bust"}}`

		code, body := call(t, http.MethodPost, path, admin, payload, nil)
		require.Equal(t, http.StatusOK, code, body)

		want := start.Sub(decimal.NewFromInt(5)).Add(decimal.RequireFromString("12.50"))
		assert.Equal(t, money(want), money(balanceOf(t, player)))

		code, body = call(t, http.MethodPost, path, admin, payload, nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, `"replayed":true`)
		assert.Equal(t, money(want), money(balanceOf(t, player)))

		code, body = call(t, http.MethodPost, path, admin, `{"outcome":"lose"}`, nil)
		assert.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("history_lists_bet_and_transactions", func(t *testing.T) {
		code, body := call(t, http.MethodGet, "/api/v1/me/bets?limit=5", player, "", nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, fmt.Sprintf(`"id":%d`, placed.BetID))
		assert.Contains(t, body, `"outcome":"win"`)

		code, body = call(t, http.MethodGet, "/api/v1/me/transactions?limit=5", player, "", nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, `"type":"win"`)
		assert.Contains(t, body, `"type":"bet"`)

		code, body = call(t, http.MethodGet, "/api/v1/me/activity?limit=5", player, "", nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, `"action":"bet_win"`)
	})
}

func TestE2E_Rejections(t *testing.T) {
	waitUntilReady(t)

	carol := token(t, carolID, api.RolePlayer)
	alice := token(t, aliceID, api.RolePlayer)

	t.Run("missing_token", func(t *testing.T) {
		code, _ := call(t, http.MethodGet, "/api/v1/me/balance", "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("insufficient_funds_leaves_balance", func(t *testing.T) {
		before := balanceOf(t, carol)
		if before.GreaterThanOrEqual(decimal.NewFromInt(50)) {
			t.Skip("carol was funded by an earlier run")
		}

		code, body := call(t, http.MethodPost, "/api/v1/bets", carol, `{"game_id":1,"bet_amount":"50.00"}`, nil)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Contains(t, body, "insufficient funds")
		assert.Equal(t, money(before), money(balanceOf(t, carol)))
	})

	t.Run("stake_outside_limits", func(t *testing.T) {
		code, body := call(t, http.MethodPost, "/api/v1/bets", alice, `{"game_id":1,"bet_amount":"50.01"}`, nil)
		assert.Equal(t, http.StatusBadRequest, code, body)
	})

	t.Run("inactive_game", func(t *testing.T) {
		code, body := call(t, http.MethodPost, "/api/v1/bets", alice, `{"game_id":99,"bet_amount":"2.00"}`, nil)
		assert.Equal(t, http.StatusNotFound, code, body)
	})

	t.Run("amount_precision", func(t *testing.T) {
		code, _ := call(t, http.MethodPost, "/api/v1/bets", alice, `{"game_id":1,"bet_amount":"1.234"}`, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestE2E_IdempotentPlacement(t *testing.T) {
	if os.Getenv("REDIS_URL") == "" {
		t.Skip("REDIS_URL not set; the API runs without idempotency keys")
	}
	waitUntilReady(t)

	alice := token(t, aliceID, api.RolePlayer)
	key := map[string]string{"Idempotency-Key": fmt.Sprintf("e2e-%d", time.Now().UnixNano())}
	payload := `{"game_id":2,"bet_amount":"1.00"}`

	code, first := call(t, http.MethodPost, "/api/v1/bets", alice, payload, key)
	require.Equal(t, http.StatusCreated, code, first)
	after := balanceOf(t, alice)

	code, second := call(t, http.MethodPost, "/api/v1/bets", alice, payload, key)
	require.Equal(t, http.StatusCreated, code, second)
	assert.JSONEq(t, first, second)
	assert.Equal(t, money(after), money(balanceOf(t, alice)))
}

/* -------------------- helpers -------------------- */

func token(t *testing.T, userID uint64, role string) string {
	t.Helper()

	tok, err := api.MintAccessToken(authConfig(), api.Claims{UserID: userID, Username: "e2e", Role: role}, time.Now(), time.Hour)
	require.NoError(t, err)

	return tok
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func balanceOf(t *testing.T, tok string) decimal.Decimal {
	t.Helper()

	code, body := call(t, http.MethodGet, "/api/v1/me/balance", tok, "", nil)
	require.Equal(t, http.StatusOK, code, body)

	var payload struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))

	d, err := decimal.NewFromString(payload.Balance)
	require.NoError(t, err, "balance %q", payload.Balance)

	return d
}

func call(t *testing.T, method, path, tok, body string, headers map[string]string) (int, string) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, baseURL()+path, rdr)
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

// waitUntilReady polls /healthz until the API answers or waitReady passes.
func waitUntilReady(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", baseURL(), waitReady)
		case <-tick.C:
			resp, err := httpClient.Get(baseURL() + "/healthz")
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}
