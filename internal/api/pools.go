package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"vlossom/internal/amount"
	"vlossom/internal/model"
	"vlossom/internal/pool"
	"vlossom/internal/storage"
)

func formatAmount(v int64) string {
	return amount.Format(v)
}

type poolResponse struct {
	ID                    string  `json:"id"`
	SettlementAddress     string  `json:"settlement_address"`
	Name                  string  `json:"name"`
	Tier                  string  `json:"tier"`
	Status                string  `json:"status"`
	CreatorID             *string `json:"creator_id"`
	IsGenesis             bool    `json:"is_genesis"`
	TotalDeposits         string  `json:"total_deposits"`
	TotalShares           string  `json:"total_shares"`
	CurrentAPY            string  `json:"current_apy"`
	Cap                   *string `json:"cap"`
	DepositorCount        int64   `json:"depositor_count"`
	TotalYieldDistributed string  `json:"total_yield_distributed"`
	CreatorFeeBps         int32   `json:"creator_fee_bps"`
	CreatedAt             string  `json:"created_at"`
}

func toPoolResponse(p *model.Pool) poolResponse {
	resp := poolResponse{
		ID:                    p.ID,
		SettlementAddress:     p.SettlementAddress,
		Name:                  p.Name,
		Tier:                  string(p.Tier),
		Status:                string(p.Status),
		CreatorID:             p.CreatorID,
		IsGenesis:             p.IsGenesis,
		TotalDeposits:         formatAmount(p.TotalDeposits),
		TotalShares:           formatAmount(p.TotalShares),
		CurrentAPY:            p.CurrentAPY,
		DepositorCount:        p.DepositorCount,
		TotalYieldDistributed: formatAmount(p.TotalYieldDistributed),
		CreatorFeeBps:         p.CreatorFeeBps,
		CreatedAt:             p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Cap != nil {
		capText := formatAmount(*p.Cap)
		resp.Cap = &capText
	}
	return resp
}

// HandleListPools lists pools, genesis-first then by total deposits.
// GET /api/v1/pools?tier=TIER_2&include_genesis=true&page=1&limit=20
func (c *Controller) HandleListPools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := storage.PoolFilter{
		IncludeGenesis: query.Get("include_genesis") == "true",
	}
	if tierText := query.Get("tier"); tierText != "" {
		t := model.Tier(tierText)
		if !t.Valid() {
			c.writeBadRequest(w, "unknown tier: "+tierText)
			return
		}
		filter.Tier = &t
	}
	if pageText := query.Get("page"); pageText != "" {
		page, err := strconv.Atoi(pageText)
		if err != nil || page < 1 {
			c.writeBadRequest(w, "invalid page: "+pageText)
			return
		}
		filter.Page = page
	}
	if limitText := query.Get("limit"); limitText != "" {
		limit, err := strconv.Atoi(limitText)
		if err != nil || limit < 1 {
			c.writeBadRequest(w, "invalid limit: "+limitText)
			return
		}
		filter.Limit = limit
	}

	pools, total, err := c.Registry.ListPools(r.Context(), filter)
	if err != nil {
		c.writeError(w, err)
		return
	}
	items := make([]poolResponse, 0, len(pools))
	for i := range pools {
		items = append(items, toPoolResponse(&pools[i]))
	}
	c.writeJSON(w, http.StatusOK, map[string]any{"pools": items, "total": total})
}

// HandleGetPool fetches one pool.
// GET /api/v1/pools/{id}
func (c *Controller) HandleGetPool(w http.ResponseWriter, r *http.Request) {
	p, err := c.Registry.GetPool(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, toPoolResponse(p))
}

// HandleGetGenesisPool fetches the single genesis pool.
// GET /api/v1/pools/genesis
func (c *Controller) HandleGetGenesisPool(w http.ResponseWriter, r *http.Request) {
	p, err := c.Registry.GetGenesisPool(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, toPoolResponse(p))
}

// HandleCreatePool creates a pool after a tier eligibility check.
// POST /api/v1/pools {"user_id": "...", "name": "...", "tier": "TIER_3"}
func (c *Controller) HandleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Tier   string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeBadRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" || req.Name == "" {
		c.writeBadRequest(w, "user_id and name are required")
		return
	}
	params := pool.CreateParams{Name: req.Name}
	if req.Tier != "" {
		t := model.Tier(req.Tier)
		if !t.Valid() {
			c.writeBadRequest(w, "unknown tier: "+req.Tier)
			return
		}
		params.Tier = &t
	}

	p, err := c.Registry.CreatePool(r.Context(), req.UserID, params)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusCreated, toPoolResponse(p))
}

// HandlePausePool pauses a pool; only the creator may do so.
// POST /api/v1/pools/{id}/pause {"user_id": "..."}
func (c *Controller) HandlePausePool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		c.writeBadRequest(w, "user_id is required")
		return
	}

	p, err := c.Registry.PausePool(r.Context(), mux.Vars(r)["id"], req.UserID)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, toPoolResponse(p))
}
