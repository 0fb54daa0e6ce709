package domain

import "time"

// DefaultServiceImage is used when a service is created without an image.
const DefaultServiceImage = "default-service.jpg"

// Category classifies a service offering
type Category string

const (
	CategoryReparacion    Category = "reparacion"
	CategoryMantenimiento Category = "mantenimiento"
	CategoryFormateo      Category = "formateo"
	CategoryLimpieza      Category = "limpieza"
	CategoryInstalacion   Category = "instalacion"
	CategoryOtro          Category = "otro"
)

// Categories lists every valid service category
var Categories = []Category{
	CategoryReparacion,
	CategoryMantenimiento,
	CategoryFormateo,
	CategoryLimpieza,
	CategoryInstalacion,
	CategoryOtro,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Service represents a purchasable service offering in the catalog.
// Deleting a service only flips Active to false so that historical
// requests keep resolving their reference.
type Service struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"nombre" db:"nombre"`
	Description       string    `json:"descripcion" db:"descripcion"`
	Price             float64   `json:"precio" db:"precio"`
	EstimatedDuration string    `json:"duracionEstimada,omitempty" db:"duracion_estimada"`
	Image             string    `json:"imagen" db:"imagen"`
	Active            bool      `json:"activo" db:"activo"`
	Category          Category  `json:"categoria" db:"categoria"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}
