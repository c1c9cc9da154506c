package activity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/group"
	"github.com/obadran/settleup/pkg/middleware"
	"github.com/obadran/settleup/pkg/response"
)

// Handler handles HTTP requests for the activity log
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GroupRoutes returns the router mounted under /groups/{groupID}/activity
func (h *Handler) GroupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListByGroup)

	return r
}

// ListByGroup handles GET /groups/{groupID}/activity
// @Summary      List group activity
// @Tags         activity
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Param        limit query int false "Max events to return"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{groupID}/activity [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.ListByGroup(r.Context(), userID, groupID, limit)
	if err != nil {
		if errors.Is(err, group.ErrNotGroupMember) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list activity")
		return
	}

	response.JSON(w, http.StatusOK, events)
}
