package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/config"
	"app/internal/model"
	"app/internal/service"
	"app/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// RecommendationHandler handles the AI advisor endpoints.
type RecommendationHandler struct {
	recommendationService service.RecommendationService
	ledger                service.QuotaLedger
	cfg                   *config.Config
	validate              *validator.Validate
	logger                zerolog.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(
	recommendationService service.RecommendationService,
	ledger service.QuotaLedger,
	cfg *config.Config,
	validate *validator.Validate,
	logger zerolog.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		ledger:                ledger,
		cfg:                   cfg,
		validate:              validate,
		logger:                logger,
	}
}

// RegisterRoutes mounts recommendation routes
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/recommendations", authMw(http.HandlerFunc(h.recommend)))
	mux.Handle("/recommendations/usage", authMw(http.HandlerFunc(h.usage)))
	mux.Handle("/recommendations/reset-usage", authMw(http.HandlerFunc(h.resetUsage)))
}

func recordsToDTO(records []model.RequestRecord) []dto.RequestRecordDTO {
	out := make([]dto.RequestRecordDTO, len(records))
	for i, rec := range records {
		out[i] = dto.RequestRecordDTO{
			Timestamp: rec.Timestamp,
			UserID:    rec.UserID,
			Prompt:    rec.Prompt,
			Success:   rec.Success,
			Error:     rec.Error,
		}
	}
	return out
}

// recommend godoc
// @Summary Get course recommendations
// @Description Sends the prompt and a condensed catalog to the AI provider, metered against the global request budget.
// @Tags recommendations
// @Accept json
// @Produce json
// @Param request body dto.RecommendationRequestDTO true "Recommendation prompt"
// @Success 200 {object} dto.RecommendationResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 402 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Failure 429 {object} dto.QuotaExceededResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /recommendations [post]
func (h *RecommendationHandler) recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := requireRole(w, r, util.RoleStudent)
	if !ok {
		return
	}
	var req dto.RecommendationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Please provide a prompt for course recommendations")
		return
	}

	result, err := h.recommendationService.Recommend(r.Context(), userID, req.Prompt)
	if err != nil {
		h.writeRecommendError(w, err)
		return
	}

	courses := make([]dto.RecommendedCourseDTO, len(result.RecommendedCourses))
	for i, c := range result.RecommendedCourses {
		courses[i] = dto.RecommendedCourseDTO{CourseID: c.CourseID, Title: c.Title, Category: c.Category, Level: c.Level}
	}
	writeJSON(w, http.StatusOK, dto.RecommendationResponseDTO{
		Success:            true,
		Recommendation:     result.Recommendation,
		RecommendedCourses: courses,
		APIStats: dto.APIStatsDTO{
			RequestsUsed:      result.RequestsUsed,
			RequestsRemaining: result.RequestsRemaining,
			MaxRequests:       result.MaxRequests,
		},
	})
}

// writeRecommendError maps gateway failures onto the error taxonomy.
// Provider failures surface only their coarse classification.
func (h *RecommendationHandler) writeRecommendError(w http.ResponseWriter, err error) {
	var quotaErr *service.QuotaExceededError
	switch {
	case errors.Is(err, service.ErrPromptRequired):
		writeError(w, http.StatusBadRequest, "Please provide a prompt for course recommendations")
	case errors.Is(err, service.ErrPromptTooLong):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Prompt too long. Please keep it under %d characters for efficiency.", service.MaxPromptLength))
	case errors.As(err, &quotaErr):
		writeJSON(w, http.StatusTooManyRequests, dto.QuotaExceededResponseDTO{
			Success:           false,
			Message:           fmt.Sprintf("Recommendation API limit of %d requests exceeded.", quotaErr.MaxRequests),
			TotalRequestsUsed: quotaErr.Count,
			MaxRequests:       quotaErr.MaxRequests,
			RequestLog:        recordsToDTO(quotaErr.Recent),
		})
	case errors.Is(err, service.ErrNoCoursesAvailable):
		writeError(w, http.StatusNotFound, "No courses available.")
	case errors.Is(err, service.ErrProviderQuotaExceeded):
		writeError(w, http.StatusPaymentRequired, "Recommendation provider quota exceeded.")
	case errors.Is(err, service.ErrProviderRateLimited):
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please wait before trying again.")
	default:
		h.logger.Error().Err(err).Msg("Recommendation request failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch recommendations")
	}
}

// usage godoc
// @Summary Get recommendation API usage stats
// @Tags recommendations
// @Produce json
// @Success 200 {object} dto.UsageResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /recommendations/usage [get]
func (h *RecommendationHandler) usage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if _, ok := requireAuth(w, r); !ok {
		return
	}

	snapshot, err := h.ledger.UsageSnapshot(r.Context(), 10)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read usage snapshot")
		writeError(w, http.StatusInternalServerError, "Failed to get API usage stats")
		return
	}
	writeJSON(w, http.StatusOK, dto.UsageResponseDTO{
		Success:              true,
		APIRequestsUsed:      snapshot.Count,
		APIRequestsRemaining: snapshot.Remaining(),
		MaxRequests:          snapshot.MaxRequests,
		StartDate:            snapshot.StartDate,
		RecentRequests:       recordsToDTO(snapshot.Recent),
		WarningLevel:         snapshot.WarningLevel(),
	})
}

// resetUsage godoc
// @Summary Reset the recommendation usage ledger
// @Description Clears the counter and request log. Development environments only.
// @Tags recommendations
// @Produce json
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO
// @Router /recommendations/reset-usage [post]
func (h *RecommendationHandler) resetUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if _, ok := requireAuth(w, r); !ok {
		return
	}
	// The ledger exposes the capability; the environment gates it.
	if !h.cfg.IsDevelopment() {
		writeError(w, http.StatusForbidden, "Reset only allowed in development mode")
		return
	}

	if err := h.ledger.Reset(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to reset usage ledger")
		writeError(w, http.StatusInternalServerError, "Failed to reset API usage")
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponseDTO{Success: true, Message: "API usage counter reset successfully"})
}
