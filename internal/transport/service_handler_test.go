package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tecniservice/internal/domain"
	"tecniservice/internal/repository"
	"tecniservice/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// memServiceRepo is an in-memory repository.ServiceRepository for handler tests
type memServiceRepo struct {
	items map[string]*domain.Service
	err   error
}

func (m *memServiceRepo) Create(_ context.Context, svc *domain.Service) error {
	if m.err != nil {
		return m.err
	}
	copied := *svc
	m.items[svc.ID] = &copied
	return nil
}

func (m *memServiceRepo) Update(_ context.Context, svc *domain.Service) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[svc.ID]; !ok {
		return repository.ErrServiceNotFound
	}
	copied := *svc
	m.items[svc.ID] = &copied
	return nil
}

func (m *memServiceRepo) Deactivate(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	svc, ok := m.items[id]
	if !ok {
		return repository.ErrServiceNotFound
	}
	svc.Active = false
	return nil
}

func (m *memServiceRepo) FindByID(_ context.Context, id string) (*domain.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	svc, ok := m.items[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	copied := *svc
	return &copied, nil
}

func (m *memServiceRepo) List(_ context.Context, filter map[string]string) ([]*domain.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	services := []*domain.Service{}
	for _, svc := range m.items {
		if activo, ok := filter["activo"]; ok && (activo == "true") != svc.Active {
			continue
		}
		if categoria, ok := filter["categoria"]; ok && categoria != string(svc.Category) {
			continue
		}
		copied := *svc
		services = append(services, &copied)
	}
	return services, nil
}

// envelope mirrors the wire response with raw data for per-test decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

func newCatalogRouter(t *testing.T) (chi.Router, *memServiceRepo) {
	t.Helper()

	repo := &memServiceRepo{items: map[string]*domain.Service{}}
	handler := NewServiceHandler(service.NewCatalogService(repo), zap.NewNop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return router, repo
}

func doRequest(t *testing.T, router chi.Router, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response envelope
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response body %q: %v", w.Body.String(), err)
	}

	return w, response
}

func seedService(repo *memServiceRepo, name string, active bool) *domain.Service {
	now := time.Now().UTC()
	svc := &domain.Service{
		ID:          domain.NewID(),
		Name:        name,
		Description: "descripción de " + name,
		Price:       350,
		Image:       domain.DefaultServiceImage,
		Active:      active,
		Category:    domain.CategoryReparacion,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	repo.items[svc.ID] = svc
	return svc
}

func TestListServices(t *testing.T) {
	router, repo := newCatalogRouter(t)
	seedService(repo, "Reparación de pantalla", true)
	seedService(repo, "Formateo completo", false)

	w, response := doRequest(t, router, http.MethodGet, "/api/servicios", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !response.Success {
		t.Error("Expected success=true")
	}

	var services []map[string]interface{}
	if err := json.Unmarshal(response.Data, &services); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if len(services) != 2 {
		t.Errorf("Expected 2 services, got %d", len(services))
	}
}

func TestListServicesFilterActivo(t *testing.T) {
	router, repo := newCatalogRouter(t)
	active := seedService(repo, "Mantenimiento preventivo", true)
	seedService(repo, "Servicio retirado", false)

	w, response := doRequest(t, router, http.MethodGet, "/api/servicios?activo=true", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var services []map[string]interface{}
	if err := json.Unmarshal(response.Data, &services); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("Expected 1 service, got %d", len(services))
	}
	if services[0]["id"] != active.ID {
		t.Errorf("Expected service %s, got %v", active.ID, services[0]["id"])
	}
}

func TestGetServiceMalformedID(t *testing.T) {
	router, _ := newCatalogRouter(t)

	w, response := doRequest(t, router, http.MethodGet, "/api/servicios/not-an-id", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if len(response.Errors) != 1 || response.Errors[0] != "id: invalid identifier format" {
		t.Errorf("Unexpected errors %v", response.Errors)
	}
}

func TestGetServiceNotFound(t *testing.T) {
	router, _ := newCatalogRouter(t)

	w, response := doRequest(t, router, http.MethodGet, "/api/servicios/"+domain.NewID(), "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	if response.Message != "service not found" {
		t.Errorf("Unexpected message %q", response.Message)
	}
}

func TestCreateServiceAppliesDefaults(t *testing.T) {
	router, repo := newCatalogRouter(t)

	body := `{"nombre":"Limpieza interna","descripcion":"limpieza de ventiladores y disipadores","precio":0}`
	w, response := doRequest(t, router, http.MethodPost, "/api/servicios", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(response.Data, &created); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}

	if created["activo"] != true {
		t.Errorf("Expected activo=true by default, got %v", created["activo"])
	}
	if created["categoria"] != "otro" {
		t.Errorf("Expected categoria=otro by default, got %v", created["categoria"])
	}
	if created["imagen"] != domain.DefaultServiceImage {
		t.Errorf("Expected default image, got %v", created["imagen"])
	}
	if created["precio"] != float64(0) {
		t.Errorf("Expected explicit zero price to persist, got %v", created["precio"])
	}

	id, _ := created["id"].(string)
	if !domain.ValidID(id) {
		t.Errorf("Expected a valid generated id, got %q", id)
	}
	if _, ok := repo.items[id]; !ok {
		t.Error("Expected service to be stored")
	}
}

func TestCreateServiceValidation(t *testing.T) {
	router, _ := newCatalogRouter(t)

	w, response := doRequest(t, router, http.MethodPost, "/api/servicios", `{"precio":-1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if response.Message != "validation failed" {
		t.Errorf("Unexpected message %q", response.Message)
	}
	if len(response.Errors) != 3 {
		t.Errorf("Expected 3 violations (nombre, descripcion, precio), got %v", response.Errors)
	}
}

func TestUpdateServiceEmptyPatch(t *testing.T) {
	router, repo := newCatalogRouter(t)
	svc := seedService(repo, "Instalación de software", true)

	w, response := doRequest(t, router, http.MethodPut, "/api/servicios/"+svc.ID, `{}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if len(response.Errors) != 1 || response.Errors[0] != "must provide at least one field to update" {
		t.Errorf("Unexpected errors %v", response.Errors)
	}
}

func TestUpdateServiceAppliesPatch(t *testing.T) {
	router, repo := newCatalogRouter(t)
	svc := seedService(repo, "Reparación de teclado", true)

	w, response := doRequest(t, router, http.MethodPut, "/api/servicios/"+svc.ID, `{"precio":499.99}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated map[string]interface{}
	if err := json.Unmarshal(response.Data, &updated); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if updated["precio"] != 499.99 {
		t.Errorf("Expected updated price, got %v", updated["precio"])
	}
	if updated["nombre"] != svc.Name {
		t.Errorf("Expected untouched fields to survive, got %v", updated["nombre"])
	}
	if repo.items[svc.ID].Price != 499.99 {
		t.Errorf("Expected stored price 499.99, got %v", repo.items[svc.ID].Price)
	}
}

func TestDeleteServiceSoftDeletes(t *testing.T) {
	router, repo := newCatalogRouter(t)
	svc := seedService(repo, "Formateo con respaldo", true)

	w, response := doRequest(t, router, http.MethodDelete, "/api/servicios/"+svc.ID, "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if response.Message != "service deleted successfully" {
		t.Errorf("Unexpected message %q", response.Message)
	}

	var deleted map[string]interface{}
	if err := json.Unmarshal(response.Data, &deleted); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if deleted["activo"] != false {
		t.Errorf("Expected deactivated record in response, got %v", deleted["activo"])
	}

	// The record survives as a soft delete
	stored, ok := repo.items[svc.ID]
	if !ok {
		t.Fatal("Expected record to remain stored")
	}
	if stored.Active {
		t.Error("Expected stored record to be inactive")
	}
}
