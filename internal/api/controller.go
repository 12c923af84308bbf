// Package api exposes the engine's operations to the presentation layer
// over HTTP. Amounts cross this boundary as 6-decimal strings.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vlossom/internal/pool"
	"vlossom/internal/storage"
	"vlossom/internal/tier"
)

// Controller routes presentation-layer requests into the engine services.
type Controller struct {
	Registry *pool.Registry
	Ledger   *pool.Ledger
	Tiers    *tier.Resolver
	Logger   *zap.Logger
}

func NewController(registry *pool.Registry, ledger *pool.Ledger, tiers *tier.Resolver, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{Registry: registry, Ledger: ledger, Tiers: tiers, Logger: logger}
}

// NewRouter returns a router with all engine routes.
func (c *Controller) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/health", c.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/pools", c.HandleListPools).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/pools", c.HandleCreatePool).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/pools/genesis", c.HandleGetGenesisPool).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/pools/{id}", c.HandleGetPool).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/pools/{id}/pause", c.HandlePausePool).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/pools/{id}/deposits", c.HandleDeposit).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/pools/{id}/withdrawals", c.HandleWithdraw).Methods(http.MethodPost)

	r.HandleFunc("/api/v1/users/{id}/deposits", c.HandleGetUserDeposits).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/users/{id}/tier", c.HandleGetUserTierInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/users/{id}/tier/cached", c.HandleGetCachedTierStatus).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/tiers/batch-update", c.HandleBatchUpdateTierStatus).Methods(http.MethodPost)

	return r
}

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.Logger.Warn("encode response failed", zap.Error(err))
	}
}

func (c *Controller) writeBadRequest(w http.ResponseWriter, msg string) {
	c.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps engine errors onto HTTP statuses.
func (c *Controller) writeError(w http.ResponseWriter, err error) {
	var (
		capErr  *pool.CapacityError
		eligErr *tier.EligibilityError
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, pool.ErrUnauthorized):
		c.writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.As(err, &eligErr):
		body := map[string]any{
			"error":      eligErr.Error(),
			"percentile": eligErr.Percentile,
		}
		if eligErr.EarnedTier != nil {
			body["earned_tier"] = *eligErr.EarnedTier
		}
		if eligErr.RequestedTier != nil {
			body["requested_tier"] = *eligErr.RequestedTier
		}
		c.writeJSON(w, http.StatusForbidden, body)
	case errors.As(err, &capErr):
		c.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     capErr.Error(),
			"remaining": formatAmount(capErr.Remaining),
		})
	case errors.Is(err, pool.ErrPoolInactive),
		errors.Is(err, pool.ErrInsufficientShares):
		c.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, pool.ErrGenesisExists):
		c.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		c.Logger.Error("internal error", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
