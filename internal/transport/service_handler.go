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

// ServiceHandler handles HTTP requests for the service catalog
type ServiceHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewServiceHandler creates a new ServiceHandler
func NewServiceHandler(catalog service.CatalogService, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/servicios", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// filterFromQuery picks the recognized filter keys out of the query string
func filterFromQuery(r *http.Request, keys ...string) map[string]string {
	filter := map[string]string{}
	for _, key := range keys {
		if value := r.URL.Query().Get(key); value != "" {
			filter[key] = value
		}
	}
	return filter
}

// requireID validates the path id before any store lookup, so malformed
// ids fail fast with a 400 instead of reaching the store
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !domain.ValidID(id) {
		middleware.RespondWithValidationErrors(w, []string{"id: invalid identifier format"})
		return "", false
	}
	return id, true
}

// List handles GET /api/servicios
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r, "activo", "categoria")

	services, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list services", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch services")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, services, "")
}

// Get handles GET /api/servicios/{id}
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	svc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "service not found")
			return
		}
		h.logger.Error("Failed to get service", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch service")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, svc, "")
}

// Create handles POST /api/servicios
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateServiceInput

	if err := middleware.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debug("Service creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc, err := h.catalog.Create(r.Context(), &in)
	if err != nil {
		h.logger.Error("Failed to create service", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create service")
		return
	}

	h.logger.Info("Service created", zap.String("id", svc.ID), zap.String("nombre", svc.Name))
	middleware.RespondWithSuccess(w, http.StatusCreated, svc, "service created successfully")
}

// Update handles PUT /api/servicios/{id}
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	var in service.UpdateServiceInput

	if err := middleware.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debug("Service update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc, err := h.catalog.Update(r.Context(), id, &in)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "service not found")
			return
		}
		h.logger.Error("Failed to update service", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update service")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, svc, "service updated successfully")
}

// Delete handles DELETE /api/servicios/{id}. The record is soft-deleted:
// it stays resolvable from historical requests.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	svc, err := h.catalog.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "service not found")
			return
		}
		h.logger.Error("Failed to delete service", zap.Error(err), zap.String("id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete service")
		return
	}

	h.logger.Info("Service deactivated", zap.String("id", id))
	middleware.RespondWithSuccess(w, http.StatusOK, svc, "service deleted successfully")
}
