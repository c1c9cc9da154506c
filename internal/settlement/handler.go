package settlement

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/idempotency"
	"github.com/obadran/settleup/pkg/middleware"
	"github.com/obadran/settleup/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
	cache   idempotency.Cache
}

// NewHandler creates a new settlement handler. cache may be nil, which
// disables request deduplication on the compute endpoint.
func NewHandler(service *Service, cache idempotency.Cache) *Handler {
	return &Handler{service: service, cache: cache}
}

// Routes returns the router for settlement endpoints mounted under /settlements
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/batches/{id}", h.GetBatch)
	r.Patch("/{id}", h.Update)

	return r
}

// GroupRoutes returns the router for settlement endpoints mounted under
// /groups/{groupID}/settlements
func (h *Handler) GroupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/compute", h.Compute)
	r.Get("/latest", h.Latest)

	return r
}

// Compute handles POST /groups/{groupID}/settlements/compute
// @Summary      Compute a settlement batch
// @Description  Derive balances from the group's expenses, minimize them into transfers and persist a new batch
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Param        Idempotency-Key header string false "Dedup retried requests"
// @Success      201 {object} response.APIResponse{data=BatchResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{groupID}/settlements/compute [post]
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
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

	endpoint := fmt.Sprintf("POST /groups/%s/settlements/compute", groupID)

	var requestHash string
	dedup := h.cache != nil && r.Header.Get("Idempotency-Key") != ""
	if dedup {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			response.BadRequest(w, "Failed to read request body")
			return
		}
		requestHash, err = idempotency.RequestHash(body)
		if err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}

		record, err := h.cache.Lookup(r.Context(), endpoint, userID, requestHash)
		if err != nil {
			// Dedup is best-effort: compute rather than fail the request.
			slog.Warn("idempotency lookup failed", "endpoint", endpoint, "error", err)
		} else if record != nil {
			response.RawJSON(w, record.StatusCode, record.ResponseBody)
			return
		}
	}

	batch, err := h.service.Compute(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNoMemberships):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to compute settlements")
		}
		return
	}

	if !dedup {
		response.JSON(w, http.StatusCreated, batch.ToResponse())
		return
	}

	body, err := json.Marshal(response.APIResponse{Success: true, Data: batch.ToResponse()})
	if err != nil {
		response.InternalError(w, "Failed to encode settlements")
		return
	}
	if err := h.cache.Store(r.Context(), &idempotency.Record{
		Endpoint:     endpoint,
		UserID:       userID,
		RequestHash:  requestHash,
		StatusCode:   http.StatusCreated,
		ResponseBody: body,
	}); err != nil {
		slog.Warn("idempotency store failed", "endpoint", endpoint, "error", err)
	}
	response.RawJSON(w, http.StatusCreated, body)
}

// Latest handles GET /groups/{groupID}/settlements/latest
// @Summary      Get the latest settlement batch
// @Tags         settlements
// @Produce      json
// @Param        groupID path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=BatchResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{groupID}/settlements/latest [get]
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
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

	batch, err := h.service.Latest(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNoBatches):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to get latest batch")
		}
		return
	}

	response.JSON(w, http.StatusOK, batch.ToResponse())
}

// GetBatch handles GET /settlements/batches/{id}
// @Summary      Get a settlement batch by ID
// @Description  Fetch any batch, current or historical, with its settlements
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} response.APIResponse{data=BatchResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/batches/{id} [get]
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	batchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid batch ID")
		return
	}

	batch, err := h.service.GetBatch(r.Context(), batchID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBatchNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotGroupMember):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to get batch")
		}
		return
	}

	response.JSON(w, http.StatusOK, batch.ToResponse())
}

// Update handles PATCH /settlements/{id}
// @Summary      Update a settlement's status
// @Description  Mark a suggested settlement as paid. Only the debtor may do this; re-marking a paid settlement is a no-op.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Param        request body UpdateSettlementRequest true "Status update request"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /settlements/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	settlementID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}

	var req UpdateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Status != string(StatusPaid) {
		response.BadRequest(w, "Only status \"paid\" is supported")
		return
	}

	settlement, err := h.service.MarkPaid(r.Context(), settlementID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotGroupMember), errors.Is(err, ErrNotDebtor):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidStatusChange):
			response.UnprocessableEntity(w, err.Error())
		default:
			response.InternalError(w, "Failed to update settlement")
		}
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}
