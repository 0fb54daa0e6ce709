package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"tecniservice/internal/domain"
	"tecniservice/internal/repository"
	"tecniservice/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// memRequestRepo is an in-memory repository.RequestRepository for handler
// tests. Reads resolve the referenced service the way the SQL join does:
// a dangling reference resolves to nil.
type memRequestRepo struct {
	items    map[string]*domain.ServiceRequest
	services map[string]*domain.Service
	err      error
}

func (m *memRequestRepo) resolve(req *domain.ServiceRequest) *domain.ServiceRequest {
	copied := *req
	if svc, ok := m.services[req.ServiceID]; ok {
		svcCopy := *svc
		copied.Service = &svcCopy
	} else {
		copied.Service = nil
	}
	return &copied
}

func (m *memRequestRepo) Create(_ context.Context, req *domain.ServiceRequest) error {
	if m.err != nil {
		return m.err
	}
	copied := *req
	m.items[req.ID] = &copied
	return nil
}

func (m *memRequestRepo) Update(_ context.Context, req *domain.ServiceRequest) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[req.ID]; !ok {
		return repository.ErrRequestNotFound
	}
	copied := *req
	m.items[req.ID] = &copied
	return nil
}

func (m *memRequestRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	if m.err != nil {
		return m.err
	}
	req, ok := m.items[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRequestRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[id]; !ok {
		return repository.ErrRequestNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRequestRepo) FindByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	req, ok := m.items[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	return m.resolve(req), nil
}

func (m *memRequestRepo) FindByEmail(_ context.Context, email string) ([]*domain.ServiceRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	requests := []*domain.ServiceRequest{}
	for _, req := range m.items {
		if req.Email == email {
			requests = append(requests, m.resolve(req))
		}
	}
	return requests, nil
}

func (m *memRequestRepo) List(_ context.Context, filter map[string]string) ([]*domain.ServiceRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	requests := []*domain.ServiceRequest{}
	for _, req := range m.items {
		if estado, ok := filter["estado"]; ok && estado != string(req.Status) {
			continue
		}
		if email, ok := filter["email"]; ok && email != req.Email {
			continue
		}
		if tipo, ok := filter["tipoEquipo"]; ok && tipo != string(req.EquipmentType) {
			continue
		}
		if servicio, ok := filter["servicio"]; ok && servicio != req.ServiceID {
			continue
		}
		requests = append(requests, m.resolve(req))
	}
	return requests, nil
}

func newRequestRouter(t *testing.T) (chi.Router, *memRequestRepo, *memServiceRepo) {
	t.Helper()

	svcRepo := &memServiceRepo{items: map[string]*domain.Service{}}
	reqRepo := &memRequestRepo{
		items:    map[string]*domain.ServiceRequest{},
		services: svcRepo.items,
	}

	router := chi.NewRouter()
	NewRequestHandler(service.NewRequestService(reqRepo), zap.NewNop()).RegisterRoutes(router, nil)

	return router, reqRepo, svcRepo
}

func seedRequest(repo *memRequestRepo, email, serviceID string, status domain.Status) *domain.ServiceRequest {
	now := time.Now().UTC()
	req := &domain.ServiceRequest{
		ID:            domain.NewID(),
		CustomerName:  "Ana Torres",
		Phone:         "555-987-6543",
		Email:         email,
		EquipmentType: domain.EquipmentLaptop,
		ProblemDetail: "la batería dura menos de diez minutos",
		ServiceID:     serviceID,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	repo.items[req.ID] = req
	return req
}

func TestCreateRequestDefaultsStatus(t *testing.T) {
	router, repo, svcRepo := newRequestRouter(t)
	svc := seedService(svcRepo, "Cambio de batería", true)

	body := `{
		"nombreCliente": "Pedro Ruiz",
		"telefono": "555-321-7654",
		"email": "pedro@example.com",
		"tipoEquipo": "laptop",
		"detalleProblema": "se apaga sin previo aviso",
		"servicio": "` + svc.ID + `"
	}`
	w, response := doRequest(t, router, http.MethodPost, "/api/solicitudes", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(response.Data, &created); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}

	if created["estado"] != "pendiente" {
		t.Errorf("Expected default status pendiente, got %v", created["estado"])
	}

	// The referenced service comes back resolved inline
	resolved, ok := created["servicio"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected resolved service object, got %v", created["servicio"])
	}
	if resolved["id"] != svc.ID {
		t.Errorf("Expected service %s, got %v", svc.ID, resolved["id"])
	}

	id, _ := created["id"].(string)
	if !domain.ValidID(id) {
		t.Errorf("Expected a valid generated id, got %q", id)
	}
	if _, stored := repo.items[id]; !stored {
		t.Error("Expected request to be stored")
	}
}

func TestCreateRequestValidation(t *testing.T) {
	router, _, _ := newRequestRouter(t)

	body := `{"nombreCliente":"Al","telefono":"abc","email":"not-an-email","tipoEquipo":"servidor","detalleProblema":"corto","servicio":"xyz"}`
	w, response := doRequest(t, router, http.MethodPost, "/api/solicitudes", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if response.Message != "validation failed" {
		t.Errorf("Unexpected message %q", response.Message)
	}
	// Every violation is reported at once
	if len(response.Errors) != 6 {
		t.Errorf("Expected 6 violations, got %d: %v", len(response.Errors), response.Errors)
	}
}

func TestCreateRequestDanglingServiceReference(t *testing.T) {
	router, _, _ := newRequestRouter(t)

	body := `{
		"nombreCliente": "Marta Díaz",
		"telefono": "555-111-2222",
		"email": "marta@example.com",
		"tipoEquipo": "impresora",
		"detalleProblema": "atasco de papel constante en la bandeja",
		"servicio": "` + domain.NewID() + `"
	}`
	w, response := doRequest(t, router, http.MethodPost, "/api/solicitudes", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(response.Data, &created); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if created["servicio"] != nil {
		t.Errorf("Expected nil service for dangling reference, got %v", created["servicio"])
	}
}

func TestGetRequestsByCustomerEmpty(t *testing.T) {
	router, _, _ := newRequestRouter(t)

	w, response := doRequest(t, router, http.MethodGet, "/api/solicitudes/cliente/nadie@example.com", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unknown customer, got %d", w.Code)
	}
	if !response.Success {
		t.Error("Expected success=true")
	}
	if string(response.Data) != "[]" {
		t.Errorf("Expected empty array data, got %s", response.Data)
	}
}

func TestGetRequestsByCustomer(t *testing.T) {
	router, repo, svcRepo := newRequestRouter(t)
	svc := seedService(svcRepo, "Diagnóstico general", true)
	seedRequest(repo, "ana@example.com", svc.ID, domain.StatusPendiente)
	seedRequest(repo, "ana@example.com", svc.ID, domain.StatusCompletado)
	seedRequest(repo, "otro@example.com", svc.ID, domain.StatusPendiente)

	w, response := doRequest(t, router, http.MethodGet, "/api/solicitudes/cliente/ana@example.com", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var requests []map[string]interface{}
	if err := json.Unmarshal(response.Data, &requests); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if len(requests) != 2 {
		t.Errorf("Expected 2 requests, got %d", len(requests))
	}
}

func TestListRequestsFilterEstado(t *testing.T) {
	router, repo, _ := newRequestRouter(t)
	seedRequest(repo, "a@example.com", domain.NewID(), domain.StatusPendiente)
	seedRequest(repo, "b@example.com", domain.NewID(), domain.StatusCancelado)

	w, response := doRequest(t, router, http.MethodGet, "/api/solicitudes?estado=cancelado", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var requests []map[string]interface{}
	if err := json.Unmarshal(response.Data, &requests); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(requests))
	}
	if requests[0]["estado"] != "cancelado" {
		t.Errorf("Expected estado cancelado, got %v", requests[0]["estado"])
	}
}

func TestUpdateRequestStatus(t *testing.T) {
	router, repo, _ := newRequestRouter(t)
	req := seedRequest(repo, "ana@example.com", domain.NewID(), domain.StatusPendiente)

	w, response := doRequest(t, router, http.MethodPatch, "/api/solicitudes/"+req.ID+"/estado", `{"estado":"completado"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if response.Message != "status updated to: completado" {
		t.Errorf("Unexpected message %q", response.Message)
	}
	if repo.items[req.ID].Status != domain.StatusCompletado {
		t.Errorf("Expected stored status completado, got %s", repo.items[req.ID].Status)
	}
}

func TestUpdateRequestStatusSkipsStages(t *testing.T) {
	router, repo, _ := newRequestRouter(t)
	req := seedRequest(repo, "ana@example.com", domain.NewID(), domain.StatusEntregado)

	// Transitions are unconstrained, even backwards
	w, _ := doRequest(t, router, http.MethodPatch, "/api/solicitudes/"+req.ID+"/estado", `{"estado":"pendiente"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if repo.items[req.ID].Status != domain.StatusPendiente {
		t.Errorf("Expected stored status pendiente, got %s", repo.items[req.ID].Status)
	}
}

func TestUpdateRequestStatusUnknownValue(t *testing.T) {
	router, repo, _ := newRequestRouter(t)
	req := seedRequest(repo, "ana@example.com", domain.NewID(), domain.StatusPendiente)

	w, response := doRequest(t, router, http.MethodPatch, "/api/solicitudes/"+req.ID+"/estado", `{"estado":"archivado"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if len(response.Errors) != 1 {
		t.Errorf("Expected 1 violation, got %v", response.Errors)
	}
	if repo.items[req.ID].Status != domain.StatusPendiente {
		t.Error("Expected stored status to be untouched")
	}
}

func TestUpdateRequestAccentedStatus(t *testing.T) {
	router, repo, _ := newRequestRouter(t)
	req := seedRequest(repo, "ana@example.com", domain.NewID(), domain.StatusPendiente)

	w, _ := doRequest(t, router, http.MethodPatch, "/api/solicitudes/"+req.ID+"/estado", `{"estado":"en_revisión"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if repo.items[req.ID].Status != domain.StatusEnRevision {
		t.Errorf("Expected stored status en_revisión, got %s", repo.items[req.ID].Status)
	}
}

func TestDeleteRequestIsHard(t *testing.T) {
	router, repo, _ := newRequestRouter(t)
	req := seedRequest(repo, "ana@example.com", domain.NewID(), domain.StatusCompletado)

	w, response := doRequest(t, router, http.MethodDelete, "/api/solicitudes/"+req.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if response.Message != "request deleted successfully" {
		t.Errorf("Unexpected message %q", response.Message)
	}
	if _, stored := repo.items[req.ID]; stored {
		t.Error("Expected record to be gone")
	}

	// A second delete finds nothing
	w, response = doRequest(t, router, http.MethodDelete, "/api/solicitudes/"+req.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 on repeat delete, got %d", w.Code)
	}
	if response.Message != "request not found" {
		t.Errorf("Unexpected message %q", response.Message)
	}
}

func TestUpdateRequestNotFound(t *testing.T) {
	router, _, _ := newRequestRouter(t)

	w, response := doRequest(t, router, http.MethodPut, "/api/solicitudes/"+domain.NewID(), `{"notas":"llamar antes de entregar"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	if response.Message != "request not found" {
		t.Errorf("Unexpected message %q", response.Message)
	}
}
