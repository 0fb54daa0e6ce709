package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tecniservice/internal/domain"
)

var (
	ErrRequestNotFound = errors.New("service request not found")
)

// RequestRepository defines the interface for service request data access.
// Every read resolves the referenced service offering inline; a missing
// reference resolves to a nil Service, never an error.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	Update(ctx context.Context, request *domain.ServiceRequest) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	FindByEmail(ctx context.Context, email string) ([]*domain.ServiceRequest, error)
	List(ctx context.Context, filter map[string]string) ([]*domain.ServiceRequest, error)
}

type requestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new instance of RequestRepository
func NewRequestRepository(db *sql.DB) RequestRepository {
	return &requestRepository{db: db}
}

// joinedColumns selects the request row plus the referenced service row
// through a LEFT JOIN, so a dangling reference still returns the request.
const joinedColumns = `
	sol.id, sol.nombre_cliente, sol.telefono, sol.email, sol.tipo_equipo,
	sol.detalle_problema, sol.servicio_id, sol.estado, sol.fecha_cita,
	sol.presupuesto, sol.notas, sol.created_at, sol.updated_at,
	srv.id, srv.nombre, srv.descripcion, srv.precio, srv.duracion_estimada,
	srv.imagen, srv.activo, srv.categoria, srv.created_at, srv.updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJoinedRequest scans one joined row and assembles the resolved service
func scanJoinedRequest(row rowScanner) (*domain.ServiceRequest, error) {
	request := &domain.ServiceRequest{}

	var (
		srvID       sql.NullString
		srvName     sql.NullString
		srvDesc     sql.NullString
		srvPrice    sql.NullFloat64
		srvDuration sql.NullString
		srvImage    sql.NullString
		srvActive   sql.NullBool
		srvCategory sql.NullString
		srvCreated  sql.NullTime
		srvUpdated  sql.NullTime
	)

	err := row.Scan(
		&request.ID,
		&request.CustomerName,
		&request.Phone,
		&request.Email,
		&request.EquipmentType,
		&request.ProblemDetail,
		&request.ServiceID,
		&request.Status,
		&request.AppointmentAt,
		&request.Budget,
		&request.Notes,
		&request.CreatedAt,
		&request.UpdatedAt,
		&srvID,
		&srvName,
		&srvDesc,
		&srvPrice,
		&srvDuration,
		&srvImage,
		&srvActive,
		&srvCategory,
		&srvCreated,
		&srvUpdated,
	)
	if err != nil {
		return nil, err
	}

	if srvID.Valid {
		request.Service = &domain.Service{
			ID:                srvID.String,
			Name:              srvName.String,
			Description:       srvDesc.String,
			Price:             srvPrice.Float64,
			EstimatedDuration: srvDuration.String,
			Image:             srvImage.String,
			Active:            srvActive.Bool,
			Category:          domain.Category(srvCategory.String),
			CreatedAt:         srvCreated.Time,
			UpdatedAt:         srvUpdated.Time,
		}
	}

	return request, nil
}

// Create inserts a new service request into the database using parameterized queries
func (r *requestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	query := `
		INSERT INTO solicitudes (id, nombre_cliente, telefono, email, tipo_equipo, detalle_problema,
		                         servicio_id, estado, fecha_cita, presupuesto, notas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		request.ID,
		request.CustomerName,
		request.Phone,
		request.Email,
		request.EquipmentType,
		request.ProblemDetail,
		request.ServiceID,
		request.Status,
		request.AppointmentAt,
		request.Budget,
		request.Notes,
		request.CreatedAt,
		request.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}

	return nil
}

// Update updates an existing service request using parameterized queries
func (r *requestRepository) Update(ctx context.Context, request *domain.ServiceRequest) error {
	query := `
		UPDATE solicitudes
		SET nombre_cliente = $2, telefono = $3, email = $4, tipo_equipo = $5,
		    detalle_problema = $6, servicio_id = $7, estado = $8, fecha_cita = $9,
		    presupuesto = $10, notas = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		request.ID,
		request.CustomerName,
		request.Phone,
		request.Email,
		request.EquipmentType,
		request.ProblemDetail,
		request.ServiceID,
		request.Status,
		request.AppointmentAt,
		request.Budget,
		request.Notes,
		request.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// UpdateStatus persists only the lifecycle field. Any status may be set
// from any other status; ordering is not enforced here or anywhere else.
func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	query := `UPDATE solicitudes SET estado = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// Delete hard-removes a service request, unlike the catalog's soft delete
func (r *requestRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM solicitudes WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete service request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// FindByID retrieves a service request by ID with its service resolved
func (r *requestRepository) FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM solicitudes sol
		LEFT JOIN servicios srv ON srv.id = sol.servicio_id
		WHERE sol.id = $1
	`, joinedColumns)

	request, err := scanJoinedRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to find service request by ID: %w", err)
	}

	return request, nil
}

// FindByEmail retrieves all requests submitted with the given email,
// matched exactly as stored
func (r *requestRepository) FindByEmail(ctx context.Context, email string) ([]*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM solicitudes sol
		LEFT JOIN servicios srv ON srv.id = sol.servicio_id
		WHERE sol.email = $1
		ORDER BY sol.created_at DESC
	`, joinedColumns)

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by email: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// List retrieves all requests matching the optional filter map, each with
// its referenced service resolved. Only recognized keys are applied.
func (r *requestRepository) List(ctx context.Context, filter map[string]string) ([]*domain.ServiceRequest, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	appendCondition := func(column string, value string) {
		if whereClause == "" {
			whereClause = "WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += fmt.Sprintf("sol.%s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	// Whitelisted filter keys, query param name -> column
	filterColumns := []struct {
		key    string
		column string
	}{
		{"estado", "estado"},
		{"email", "email"},
		{"tipoEquipo", "tipo_equipo"},
		{"servicio", "servicio_id"},
	}

	for _, fc := range filterColumns {
		if value, ok := filter[fc.key]; ok {
			appendCondition(fc.column, value)
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM solicitudes sol
		LEFT JOIN servicios srv ON srv.id = sol.servicio_id
		%s
		ORDER BY sol.created_at DESC
	`, joinedColumns, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]*domain.ServiceRequest, error) {
	requests := []*domain.ServiceRequest{}
	for rows.Next() {
		request, err := scanJoinedRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service requests: %w", err)
	}

	return requests, nil
}
