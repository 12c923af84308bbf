package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vlossom/internal/model"
)

type tierStatusResponse struct {
	UserID             string  `json:"user_id"`
	ReferralPercentile float64 `json:"referral_percentile"`
	Tier               *string `json:"tier"`
	CanCreatePool      bool    `json:"can_create_pool"`
	LastCalculatedAt   string  `json:"last_calculated_at"`
}

func toTierStatusResponse(status *model.TierStatus) tierStatusResponse {
	resp := tierStatusResponse{
		UserID:             status.UserID,
		ReferralPercentile: status.ReferralPercentile,
		CanCreatePool:      status.CanCreatePool,
		LastCalculatedAt:   status.LastCalculatedAt.UTC().Format(time.RFC3339),
	}
	if status.Tier != nil {
		text := string(*status.Tier)
		resp.Tier = &text
	}
	return resp
}

// HandleGetUserTierInfo recomputes and returns the user's tier standing.
// GET /api/v1/users/{id}/tier
func (c *Controller) HandleGetUserTierInfo(w http.ResponseWriter, r *http.Request) {
	status, err := c.Tiers.UserTierInfo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, toTierStatusResponse(status))
}

// HandleGetCachedTierStatus serves the cached standing, recomputing only
// when stale.
// GET /api/v1/users/{id}/tier/cached
func (c *Controller) HandleGetCachedTierStatus(w http.ResponseWriter, r *http.Request) {
	status, err := c.Tiers.CachedTierStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, toTierStatusResponse(status))
}

// HandleBatchUpdateTierStatus recomputes tier status for every referrer.
// POST /api/v1/tiers/batch-update
func (c *Controller) HandleBatchUpdateTierStatus(w http.ResponseWriter, r *http.Request) {
	processed, err := c.Tiers.BatchUpdateTierStatus(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]int{"processed": processed})
}
