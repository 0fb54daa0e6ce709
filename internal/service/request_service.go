package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tecniservice/internal/domain"
	"tecniservice/internal/repository"
)

var (
	// ErrInvalidStatus guards the status-update path against values
	// outside the closed enumeration
	ErrInvalidStatus = errors.New("invalid request status")
)

// CreateRequestInput is the validated payload for submitting a service request
type CreateRequestInput struct {
	CustomerName  string     `json:"nombreCliente" validate:"required,min=3"`
	Phone         string     `json:"telefono" validate:"required,telefono"`
	Email         string     `json:"email" validate:"required,email"`
	EquipmentType string     `json:"tipoEquipo" validate:"required,oneof=desktop laptop tablet smartphone impresora otro"`
	ProblemDetail string     `json:"detalleProblema" validate:"required,min=10"`
	ServiceID     string     `json:"servicio" validate:"required,len=24,hexadecimal"`
	Status        string     `json:"estado" validate:"omitempty,oneof=pendiente en_revisión diagnosticado en_reparación completado entregado cancelado"`
	AppointmentAt *time.Time `json:"fechaCita"`
	Budget        *float64   `json:"presupuesto" validate:"omitempty,gte=0"`
	Notes         string     `json:"notas"`
}

// Normalize trims user-supplied strings and lower-cases the email
func (in *CreateRequestInput) Normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ProblemDetail = strings.TrimSpace(in.ProblemDetail)
	in.Notes = strings.TrimSpace(in.Notes)
}

// UpdateRequestInput is the partial-update payload for a service request
type UpdateRequestInput struct {
	CustomerName  *string    `json:"nombreCliente" validate:"omitempty,min=3"`
	Phone         *string    `json:"telefono" validate:"omitempty,telefono"`
	Email         *string    `json:"email" validate:"omitempty,email"`
	EquipmentType *string    `json:"tipoEquipo" validate:"omitempty,oneof=desktop laptop tablet smartphone impresora otro"`
	ProblemDetail *string    `json:"detalleProblema" validate:"omitempty,min=10"`
	ServiceID     *string    `json:"servicio" validate:"omitempty,len=24,hexadecimal"`
	Status        *string    `json:"estado" validate:"omitempty,oneof=pendiente en_revisión diagnosticado en_reparación completado entregado cancelado"`
	AppointmentAt *time.Time `json:"fechaCita"`
	Budget        *float64   `json:"presupuesto" validate:"omitempty,gte=0"`
	Notes         *string    `json:"notas"`
}

// Normalize trims user-supplied strings and lower-cases the email
func (in *UpdateRequestInput) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(in.CustomerName)
	trim(in.Phone)
	trim(in.ProblemDetail)
	trim(in.Notes)
	if in.Email != nil {
		*in.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
}

// Empty reports whether the patch carries no recognized field
func (in *UpdateRequestInput) Empty() bool {
	return in.CustomerName == nil &&
		in.Phone == nil &&
		in.Email == nil &&
		in.EquipmentType == nil &&
		in.ProblemDetail == nil &&
		in.ServiceID == nil &&
		in.Status == nil &&
		in.AppointmentAt == nil &&
		in.Budget == nil &&
		in.Notes == nil
}

// UpdateStatusInput is the payload of the status-only update
type UpdateStatusInput struct {
	Status string `json:"estado" validate:"required,oneof=pendiente en_revisión diagnosticado en_reparación completado entregado cancelado"`
}

// RequestService is the store for service requests
type RequestService interface {
	List(ctx context.Context, filter map[string]string) ([]*domain.ServiceRequest, error)
	Get(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetByCustomer(ctx context.Context, email string) ([]*domain.ServiceRequest, error)
	Create(ctx context.Context, in *CreateRequestInput) (*domain.ServiceRequest, error)
	Update(ctx context.Context, id string, in *UpdateRequestInput) (*domain.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.ServiceRequest, error)
	Delete(ctx context.Context, id string) error
}

type requestService struct {
	repo repository.RequestRepository
}

// NewRequestService creates a new RequestService
func NewRequestService(repo repository.RequestRepository) RequestService {
	return &requestService{repo: repo}
}

func (s *requestService) List(ctx context.Context, filter map[string]string) ([]*domain.ServiceRequest, error) {
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}
	return requests, nil
}

func (s *requestService) Get(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}
	return request, nil
}

// GetByCustomer returns all requests stored with exactly the given email.
// No match is an empty result, not an error.
func (s *requestService) GetByCustomer(ctx context.Context, email string) ([]*domain.ServiceRequest, error) {
	requests, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer requests: %w", err)
	}
	return requests, nil
}

// Create assigns a fresh id, defaults the status to pendiente and returns
// the stored record with its service resolved
func (s *requestService) Create(ctx context.Context, in *CreateRequestInput) (*domain.ServiceRequest, error) {
	now := time.Now().UTC()

	request := &domain.ServiceRequest{
		ID:            domain.NewID(),
		CustomerName:  in.CustomerName,
		Phone:         in.Phone,
		Email:         in.Email,
		EquipmentType: domain.EquipmentType(in.EquipmentType),
		ProblemDetail: in.ProblemDetail,
		ServiceID:     in.ServiceID,
		Status:        domain.StatusPendiente,
		AppointmentAt: in.AppointmentAt,
		Budget:        in.Budget,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if in.Status != "" {
		request.Status = domain.Status(in.Status)
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Re-read to resolve the referenced service inline
	stored, err := s.repo.FindByID(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request after create: %w", err)
	}

	return stored, nil
}

// Update loads the current record, applies the patch and persists the
// whole row. Concurrent updates are last-write-wins.
func (s *requestService) Update(ctx context.Context, id string, in *UpdateRequestInput) (*domain.ServiceRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}

	if in.CustomerName != nil {
		request.CustomerName = *in.CustomerName
	}
	if in.Phone != nil {
		request.Phone = *in.Phone
	}
	if in.Email != nil {
		request.Email = *in.Email
	}
	if in.EquipmentType != nil {
		request.EquipmentType = domain.EquipmentType(*in.EquipmentType)
	}
	if in.ProblemDetail != nil {
		request.ProblemDetail = *in.ProblemDetail
	}
	if in.ServiceID != nil {
		request.ServiceID = *in.ServiceID
	}
	if in.Status != nil {
		request.Status = domain.Status(*in.Status)
	}
	if in.AppointmentAt != nil {
		request.AppointmentAt = in.AppointmentAt
	}
	if in.Budget != nil {
		request.Budget = in.Budget
	}
	if in.Notes != nil {
		request.Notes = *in.Notes
	}
	request.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, request); err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	// Re-read so a changed servicio reference is resolved
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request after update: %w", err)
	}

	return stored, nil
}

// UpdateStatus persists only the lifecycle field and returns the updated
// record with its service resolved. Repeating the same call is idempotent.
func (s *requestService) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.ServiceRequest, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request after status update: %w", err)
	}

	return request, nil
}

// Delete hard-removes the request
func (s *requestService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrRequestNotFound {
			return err
		}
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}
