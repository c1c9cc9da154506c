package expense

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/expense/split"
	"github.com/obadran/settleup/internal/group"
	"github.com/obadran/settleup/pkg/middleware"
	"github.com/obadran/settleup/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints mounted under /expenses
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)

	return r
}

// GroupRoutes returns the router for expense endpoints mounted under
// /groups/{groupID}/expenses
func (h *Handler) GroupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListByGroup)

	return r
}

// Create handles POST /groups/{groupID}/expenses
// @Summary      Create a new expense
// @Description  Create an expense with splits covering the full amount
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{groupID}/expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Title == "" {
		response.BadRequest(w, "Expense title is required")
		return
	}

	created, err := h.service.Create(r.Context(), userID, groupID, &req)
	if err != nil {
		switch {
		case errors.Is(err, group.ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrInvalidExpenseDate),
			errors.Is(err, ErrPayerNotInGroup),
			errors.Is(err, ErrParticipantNotInGroup),
			isSplitError(err):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to create expense")
		}
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse())
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	expenseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	expense, err := h.service.GetByID(r.Context(), userID, expenseID)
	if err != nil {
		switch {
		case errors.Is(err, ErrExpenseNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, group.ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to get expense")
		}
		return
	}

	response.JSON(w, http.StatusOK, expense.ToResponse())
}

// ListByGroup handles GET /groups/{groupID}/expenses
// @Summary      List group expenses
// @Tags         expenses
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{groupID}/expenses [get]
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

	expenses, err := h.service.ListByGroup(r.Context(), userID, groupID)
	if err != nil {
		if errors.Is(err, group.ErrNotGroupMember) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list expenses")
		return
	}

	resp := make([]*ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, e.ToResponse())
	}
	response.JSON(w, http.StatusOK, resp)
}

// isSplitError reports whether the error came from split validation
func isSplitError(err error) bool {
	return errors.Is(err, split.ErrNoParticipants) ||
		errors.Is(err, split.ErrNonPositiveAmount) ||
		errors.Is(err, split.ErrNegativeShare) ||
		errors.Is(err, split.ErrMissingExactAmount) ||
		errors.Is(err, split.ErrExactSumMismatch) ||
		errors.Is(err, split.ErrMissingBasisPoints) ||
		errors.Is(err, split.ErrBasisPointsSum) ||
		errors.Is(err, split.ErrDuplicateMembership)
}
