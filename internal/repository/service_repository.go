package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tecniservice/internal/domain"
)

var (
	ErrServiceNotFound = errors.New("service not found")
)

// ServiceRepository defines the interface for service catalog data access
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) error
	Update(ctx context.Context, service *domain.Service) error
	Deactivate(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Service, error)
	List(ctx context.Context, filter map[string]string) ([]*domain.Service, error)
}

type serviceRepository struct {
	db *sql.DB
}

// NewServiceRepository creates a new instance of ServiceRepository
func NewServiceRepository(db *sql.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

// Create inserts a new service into the database using parameterized queries
func (r *serviceRepository) Create(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO servicios (id, nombre, descripcion, precio, duracion_estimada, imagen, activo, categoria, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		service.ID,
		service.Name,
		service.Description,
		service.Price,
		service.EstimatedDuration,
		service.Image,
		service.Active,
		service.Category,
		service.CreatedAt,
		service.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return nil
}

// Update updates an existing service in the database using parameterized queries
func (r *serviceRepository) Update(ctx context.Context, service *domain.Service) error {
	query := `
		UPDATE servicios
		SET nombre = $2, descripcion = $3, precio = $4, duracion_estimada = $5,
		    imagen = $6, activo = $7, categoria = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		service.ID,
		service.Name,
		service.Description,
		service.Price,
		service.EstimatedDuration,
		service.Image,
		service.Active,
		service.Category,
		service.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrServiceNotFound
	}

	return nil
}

// Deactivate performs the soft delete: the row stays in place with
// activo = false so historical requests can still resolve it.
func (r *serviceRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE servicios SET activo = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate service: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrServiceNotFound
	}

	return nil
}

// FindByID retrieves a service by ID using parameterized queries
func (r *serviceRepository) FindByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, nombre, descripcion, precio, duracion_estimada, imagen, activo, categoria, created_at, updated_at
		FROM servicios
		WHERE id = $1
	`

	service := &domain.Service{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&service.ID,
		&service.Name,
		&service.Description,
		&service.Price,
		&service.EstimatedDuration,
		&service.Image,
		&service.Active,
		&service.Category,
		&service.CreatedAt,
		&service.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}

	return service, nil
}

// List retrieves all services matching the optional filter map. Only
// recognized filter keys are applied; a string "true"/"false" value for
// activo is coerced to boolean before matching. The result set is
// unbounded on purpose: the catalog is small and the API has no paging.
func (r *serviceRepository) List(ctx context.Context, filter map[string]string) ([]*domain.Service, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	appendCondition := func(condition string, value interface{}) {
		if whereClause == "" {
			whereClause = "WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += fmt.Sprintf(condition, argIndex)
		args = append(args, value)
		argIndex++
	}

	if activo, ok := filter["activo"]; ok {
		appendCondition("activo = $%d", activo == "true")
	}

	if categoria, ok := filter["categoria"]; ok {
		appendCondition("categoria = $%d", categoria)
	}

	query := fmt.Sprintf(`
		SELECT id, nombre, descripcion, precio, duracion_estimada, imagen, activo, categoria, created_at, updated_at
		FROM servicios
		%s
		ORDER BY created_at DESC
	`, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*domain.Service{}
	for rows.Next() {
		service := &domain.Service{}
		err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.Description,
			&service.Price,
			&service.EstimatedDuration,
			&service.Image,
			&service.Active,
			&service.Category,
			&service.CreatedAt,
			&service.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, service)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return services, nil
}
