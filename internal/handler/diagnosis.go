package handler

import (
	"context"
	"net/http"

	"github.com/pausemo/api/internal/middleware"
	"github.com/pausemo/api/internal/model"
)

// DiagnosisService is the subset of the diagnosis service used over HTTP
type DiagnosisService interface {
	QuestionSet(category model.Category) (*model.QuestionSetInfo, error)
	Diagnose(ctx context.Context, userID string, req *model.DiagnosisRequest) (*model.DiagnosisProfile, error)
	GetProfile(ctx context.Context, userID string, category model.Category) (*model.DiagnosisProfile, error)
}

// DiagnosisHandler handles onboarding diagnosis endpoints
type DiagnosisHandler struct {
	diagnosisService DiagnosisService
}

// NewDiagnosisHandler creates a new diagnosis handler
func NewDiagnosisHandler(diagnosisService DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{diagnosisService: diagnosisService}
}

// GetQuestions handles GET /v1/diagnosis/questions?category= - describe the
// question set for a category
func (h *DiagnosisHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if category == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "category", Message: "category is required"}}))
		return
	}

	info, err := h.diagnosisService.QuestionSet(category)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, info, map[string]string{
		"self":     "/v1/diagnosis/questions?category=" + string(category),
		"diagnose": "/v1/diagnosis",
	})
}

// Diagnose handles POST /v1/diagnosis - classify an answer sequence and store
// the resulting profile
func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.DiagnosisRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	profile, err := h.diagnosisService.Diagnose(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "diagnose"))
		return
	}

	WriteData(w, http.StatusCreated, profile, map[string]string{
		"self": "/v1/diagnosis/profiles/" + string(profile.Category),
	})
}

// GetProfile handles GET /v1/diagnosis/profiles/{category} - get the caller's
// stored profile for a category
func (h *DiagnosisHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	category := model.Category(r.PathValue("category"))

	profile, err := h.diagnosisService.GetProfile(r.Context(), userID, category)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, profile, map[string]string{
		"self": "/v1/diagnosis/profiles/" + string(category),
	})
}
