package handler

import (
	"context"
	"net/http"

	"github.com/pausemo/api/internal/model"
)

// EfficiencyService recomputes card effectiveness on demand
type EfficiencyService interface {
	RecomputeEfficiency(ctx context.Context, cardID string) (*model.Effectiveness, error)
}

// CardHandler handles card maintenance endpoints
type CardHandler struct {
	efficiencyService EfficiencyService
}

// NewCardHandler creates a new card handler
func NewCardHandler(efficiencyService EfficiencyService) *CardHandler {
	return &CardHandler{efficiencyService: efficiencyService}
}

// RecomputeEfficiency handles POST /v1/cards/{cardId}/efficiency
func (h *CardHandler) RecomputeEfficiency(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("cardId")
	if cardID == "" {
		WriteError(w, model.NewBadRequestError("card ID required"))
		return
	}

	eff, err := h.efficiencyService.RecomputeEfficiency(r.Context(), cardID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "recompute efficiency"))
		return
	}

	WriteData(w, http.StatusOK, eff, map[string]string{
		"self": "/v1/cards/" + cardID + "/efficiency",
	})
}
