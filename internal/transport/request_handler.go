package transport

import (
	"errors"
	"net/http"

	"tecniservice/internal/domain"
	"tecniservice/internal/middleware"
	"tecniservice/internal/repository"
	"tecniservice/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequestHandler handles HTTP requests for service requests
type RequestHandler struct {
	requests service.RequestService
	logger   *zap.Logger
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(requests service.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		logger:   logger,
	}
}

// RegisterRoutes registers all request routes. submitLimiter, when not
// nil, throttles the public submission endpoint.
func (h *RequestHandler) RegisterRoutes(r chi.Router, submitLimiter func(http.Handler) http.Handler) {
	r.Route("/api/solicitudes", func(r chi.Router) {
		r.Get("/", h.List)
		if submitLimiter != nil {
			r.With(submitLimiter).Post("/", h.Create)
		} else {
			r.Post("/", h.Create)
		}
		r.Get("/cliente/{email}", h.GetByCustomer)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/estado", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/solicitudes
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r, "estado", "email", "tipoEquipo", "servicio")

	requests, err := h.requests.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list requests", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch requests")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, requests, "")
}

// Get handles GET /api/solicitudes/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	request, err := h.requests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "request not found")
			return
		}
		h.logger.Error("Failed to get request", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch request")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, request, "")
}

// GetByCustomer handles GET /api/solicitudes/cliente/{email}. An unknown
// email yields an empty list, not a 404.
func (h *RequestHandler) GetByCustomer(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	requests, err := h.requests.GetByCustomer(r.Context(), email)
	if err != nil {
		h.logger.Error("Failed to list customer requests", zap.Error(err), zap.String("email", email))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch customer requests")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, requests, "")
}

// Create handles POST /api/solicitudes
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateRequestInput

	if err := middleware.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debug("Request creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.requests.Create(r.Context(), &in)
	if err != nil {
		h.logger.Error("Failed to create request", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create request")
		return
	}

	h.logger.Info("Service request created",
		zap.String("id", request.ID),
		zap.String("email", request.Email),
	)
	middleware.RespondWithSuccess(w, http.StatusCreated, request, "request created successfully")
}

// Update handles PUT /api/solicitudes/{id}
func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var in service.UpdateRequestInput

	if err := middleware.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debug("Request update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.requests.Update(r.Context(), id, &in)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "request not found")
			return
		}
		h.logger.Error("Failed to update request", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update request")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, request, "request updated successfully")
}

// UpdateStatus handles PATCH /api/solicitudes/{id}/estado, the only
// structured transition in the system. Any status can follow any other.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var in service.UpdateStatusInput

	if err := middleware.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debug("Status update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.requests.UpdateStatus(r.Context(), id, domain.Status(in.Status))
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "request not found")
			return
		}
		if errors.Is(err, service.ErrInvalidStatus) {
			middleware.RespondWithValidationErrors(w, []string{"estado: must be a valid status"})
			return
		}
		h.logger.Error("Failed to update request status", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update request status")
		return
	}

	h.logger.Info("Request status updated",
		zap.String("id", id),
		zap.String("estado", string(request.Status)),
	)
	middleware.RespondWithSuccess(w, http.StatusOK, request, "status updated to: "+in.Status)
}

// Delete handles DELETE /api/solicitudes/{id}. Requests are hard-deleted,
// unlike catalog entries.
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := h.requests.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "request not found")
			return
		}
		h.logger.Error("Failed to delete request", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete request")
		return
	}

	h.logger.Info("Service request deleted", zap.String("id", id))
	middleware.RespondWithSuccess(w, http.StatusOK, nil, "request deleted successfully")
}
