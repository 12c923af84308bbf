package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vlossom/internal/amount"
)

// HandleDeposit deposits into a pool and mints shares.
// POST /api/v1/pools/{id}/deposits {"user_id": "...", "amount": "100.000000"}
func (c *Controller) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeBadRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		c.writeBadRequest(w, "user_id is required")
		return
	}
	depositAmount, err := amount.Parse(req.Amount)
	if err != nil {
		c.writeBadRequest(w, "invalid amount: "+req.Amount)
		return
	}
	if depositAmount == 0 {
		c.writeBadRequest(w, "amount must be positive")
		return
	}

	res, err := c.Ledger.Deposit(r.Context(), req.UserID, mux.Vars(r)["id"], depositAmount)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusCreated, map[string]any{
		"minted_shares":        formatAmount(res.MintedShares),
		"settlement_reference": string(res.Reference),
	})
}

// HandleWithdraw burns shares and returns the proportional amount.
// POST /api/v1/pools/{id}/withdrawals {"user_id": "...", "shares": "50.000000"}
func (c *Controller) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Shares string `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeBadRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		c.writeBadRequest(w, "user_id is required")
		return
	}
	shares, err := amount.Parse(req.Shares)
	if err != nil {
		c.writeBadRequest(w, "invalid shares: "+req.Shares)
		return
	}
	if shares == 0 {
		c.writeBadRequest(w, "shares must be positive")
		return
	}

	res, err := c.Ledger.Withdraw(r.Context(), req.UserID, mux.Vars(r)["id"], shares)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]any{
		"amount_returned":      formatAmount(res.AmountReturned),
		"settlement_reference": string(res.Reference),
	})
}

// HandleGetUserDeposits lists a user's positions with pending yield.
// GET /api/v1/users/{id}/deposits
func (c *Controller) HandleGetUserDeposits(w http.ResponseWriter, r *http.Request) {
	positions, err := c.Ledger.GetUserDeposits(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}

	type positionResponse struct {
		PoolID        string `json:"pool_id"`
		PoolName      string `json:"pool_name"`
		PoolStatus    string `json:"pool_status"`
		Shares        string `json:"shares"`
		DepositAmount string `json:"deposit_amount"`
		PendingYield  string `json:"pending_yield"`
		LastClaimAt   string `json:"last_claim_at"`
		CreatedAt     string `json:"created_at"`
	}
	items := make([]positionResponse, 0, len(positions))
	for _, pos := range positions {
		items = append(items, positionResponse{
			PoolID:        pos.Deposit.PoolID,
			PoolName:      pos.PoolName,
			PoolStatus:    string(pos.PoolStatus),
			Shares:        formatAmount(pos.Deposit.Shares),
			DepositAmount: formatAmount(pos.Deposit.DepositAmount),
			PendingYield:  formatAmount(pos.PendingYield),
			LastClaimAt:   pos.Deposit.LastClaimAt.UTC().Format(time.RFC3339),
			CreatedAt:     pos.Deposit.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.writeJSON(w, http.StatusOK, map[string]any{"deposits": items})
}
