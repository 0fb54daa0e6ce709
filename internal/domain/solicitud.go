package domain

import "time"

// Status is the lifecycle field of a service request. The set is closed
// but transitions are unconstrained: any status may be set from any other
// status through an explicit write.
type Status string

const (
	StatusPendiente     Status = "pendiente"
	StatusEnRevision    Status = "en_revisión"
	StatusDiagnosticado Status = "diagnosticado"
	StatusEnReparacion  Status = "en_reparación"
	StatusCompletado    Status = "completado"
	StatusEntregado     Status = "entregado"
	StatusCancelado     Status = "cancelado"
)

// Statuses lists every valid request status
var Statuses = []Status{
	StatusPendiente,
	StatusEnRevision,
	StatusDiagnosticado,
	StatusEnReparacion,
	StatusCompletado,
	StatusEntregado,
	StatusCancelado,
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// EquipmentType classifies the equipment a request is about
type EquipmentType string

const (
	EquipmentDesktop    EquipmentType = "desktop"
	EquipmentLaptop     EquipmentType = "laptop"
	EquipmentTablet     EquipmentType = "tablet"
	EquipmentSmartphone EquipmentType = "smartphone"
	EquipmentImpresora  EquipmentType = "impresora"
	EquipmentOtro       EquipmentType = "otro"
)

// EquipmentTypes lists every valid equipment type
var EquipmentTypes = []EquipmentType{
	EquipmentDesktop,
	EquipmentLaptop,
	EquipmentTablet,
	EquipmentSmartphone,
	EquipmentImpresora,
	EquipmentOtro,
}

// Valid reports whether e is one of the known equipment types
func (e EquipmentType) Valid() bool {
	for _, known := range EquipmentTypes {
		if e == known {
			return true
		}
	}
	return false
}

// ServiceRequest represents a customer-submitted repair ticket referencing
// one service offering. ServiceID is a lookup key, not an owning pointer:
// reads resolve it into Service, and a dangling reference resolves to nil
// rather than an error. Deletion is hard, unlike the service's soft delete.
type ServiceRequest struct {
	ID            string        `json:"id" db:"id"`
	CustomerName  string        `json:"nombreCliente" db:"nombre_cliente"`
	Phone         string        `json:"telefono" db:"telefono"`
	Email         string        `json:"email" db:"email"`
	EquipmentType EquipmentType `json:"tipoEquipo" db:"tipo_equipo"`
	ProblemDetail string        `json:"detalleProblema" db:"detalle_problema"`
	ServiceID     string        `json:"-" db:"servicio_id"`
	Service       *Service      `json:"servicio"`
	Status        Status        `json:"estado" db:"estado"`
	AppointmentAt *time.Time    `json:"fechaCita" db:"fecha_cita"`
	Budget        *float64      `json:"presupuesto" db:"presupuesto"`
	Notes         string        `json:"notas,omitempty" db:"notas"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}
