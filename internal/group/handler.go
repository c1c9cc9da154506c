package group

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obadran/settleup/pkg/middleware"
	"github.com/obadran/settleup/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints. Group-scoped feature
// routers (expenses, settlements, activity) are nested under /{groupID} so
// they share one path parameter.
func (h *Handler) Routes(expenses, settlements, activity chi.Router) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Route("/{groupID}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Post("/members", h.AddMember)
		r.Mount("/expenses", expenses)
		r.Mount("/settlements", settlements)
		r.Mount("/activity", activity)
	})

	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a group; the caller becomes its owner
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "Group name is required")
		return
	}

	group, owner, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse([]*Membership{owner}))
}

// GetByID handles GET /groups/{groupID}
// @Summary      Get group by ID
// @Description  Get a group with its members (members only)
// @Tags         groups
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{groupID} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	group, members, err := h.service.GetByID(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to get group")
		}
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse(members))
}

// AddMember handles POST /groups/{groupID}/members
// @Summary      Add member to group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Param        request body AddMemberRequest true "Member to add"
// @Success      201 {object} response.APIResponse{data=MembershipResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{groupID}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
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

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		response.BadRequest(w, "user_id is required")
		return
	}

	membership, err := h.service.AddMember(r.Context(), groupID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidRole):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to add member")
		}
		return
	}

	response.JSON(w, http.StatusCreated, membership.ToResponse())
}
