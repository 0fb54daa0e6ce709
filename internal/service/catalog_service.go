package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tecniservice/internal/domain"
	"tecniservice/internal/repository"
)

// CreateServiceInput is the validated payload for creating a catalog entry.
// Price is a pointer so that an explicit 0 passes the required check.
type CreateServiceInput struct {
	Name              string   `json:"nombre" validate:"required,min=3,max=100"`
	Description       string   `json:"descripcion" validate:"required"`
	Price             *float64 `json:"precio" validate:"required,gte=0"`
	EstimatedDuration string   `json:"duracionEstimada"`
	Image             string   `json:"imagen"`
	Active            *bool    `json:"activo"`
	Category          string   `json:"categoria" validate:"omitempty,oneof=reparacion mantenimiento formateo limpieza instalacion otro"`
}

// Normalize trims user-supplied strings before validation
func (in *CreateServiceInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.EstimatedDuration = strings.TrimSpace(in.EstimatedDuration)
	in.Image = strings.TrimSpace(in.Image)
	in.Category = strings.TrimSpace(in.Category)
}

// UpdateServiceInput is the partial-update payload; every field is optional
// but at least one recognized field must be present
type UpdateServiceInput struct {
	Name              *string  `json:"nombre" validate:"omitempty,min=3,max=100"`
	Description       *string  `json:"descripcion" validate:"omitempty,min=1"`
	Price             *float64 `json:"precio" validate:"omitempty,gte=0"`
	EstimatedDuration *string  `json:"duracionEstimada"`
	Image             *string  `json:"imagen"`
	Active            *bool    `json:"activo"`
	Category          *string  `json:"categoria" validate:"omitempty,oneof=reparacion mantenimiento formateo limpieza instalacion otro"`
}

// Normalize trims user-supplied strings before validation
func (in *UpdateServiceInput) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(in.Name)
	trim(in.Description)
	trim(in.EstimatedDuration)
	trim(in.Image)
	trim(in.Category)
}

// Empty reports whether the patch carries no recognized field
func (in *UpdateServiceInput) Empty() bool {
	return in.Name == nil &&
		in.Description == nil &&
		in.Price == nil &&
		in.EstimatedDuration == nil &&
		in.Image == nil &&
		in.Active == nil &&
		in.Category == nil
}

// CatalogService is the store for service offerings
type CatalogService interface {
	List(ctx context.Context, filter map[string]string) ([]*domain.Service, error)
	Get(ctx context.Context, id string) (*domain.Service, error)
	Create(ctx context.Context, in *CreateServiceInput) (*domain.Service, error)
	Update(ctx context.Context, id string, in *UpdateServiceInput) (*domain.Service, error)
	Delete(ctx context.Context, id string) (*domain.Service, error)
}

type catalogService struct {
	repo repository.ServiceRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(repo repository.ServiceRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) List(ctx context.Context, filter map[string]string) ([]*domain.Service, error) {
	services, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch services: %w", err)
	}
	return services, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*domain.Service, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch service: %w", err)
	}
	return service, nil
}

// Create assigns a fresh id and applies defaults for absent fields
func (s *catalogService) Create(ctx context.Context, in *CreateServiceInput) (*domain.Service, error) {
	now := time.Now().UTC()

	service := &domain.Service{
		ID:                domain.NewID(),
		Name:              in.Name,
		Description:       in.Description,
		Price:             *in.Price,
		EstimatedDuration: in.EstimatedDuration,
		Image:             in.Image,
		Active:            true,
		Category:          domain.CategoryOtro,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if service.Image == "" {
		service.Image = domain.DefaultServiceImage
	}
	if in.Active != nil {
		service.Active = *in.Active
	}
	if in.Category != "" {
		service.Category = domain.Category(in.Category)
	}

	if err := s.repo.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return service, nil
}

// Update loads the current record, applies the patch and persists the
// whole row. Concurrent updates are last-write-wins.
func (s *catalogService) Update(ctx context.Context, id string, in *UpdateServiceInput) (*domain.Service, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch service: %w", err)
	}

	if in.Name != nil {
		service.Name = *in.Name
	}
	if in.Description != nil {
		service.Description = *in.Description
	}
	if in.Price != nil {
		service.Price = *in.Price
	}
	if in.EstimatedDuration != nil {
		service.EstimatedDuration = *in.EstimatedDuration
	}
	if in.Image != nil {
		service.Image = *in.Image
	}
	if in.Active != nil {
		service.Active = *in.Active
	}
	if in.Category != nil {
		service.Category = domain.Category(*in.Category)
	}
	service.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, service); err != nil {
		if err == repository.ErrServiceNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	return service, nil
}

// Delete soft-deletes the service and returns the deactivated record
func (s *catalogService) Delete(ctx context.Context, id string) (*domain.Service, error) {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if err == repository.ErrServiceNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete service: %w", err)
	}

	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service after delete: %w", err)
	}

	return service, nil
}
