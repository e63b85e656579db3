package index

import (
	"context"

	"github.com/fingerprint-id/engine/internal/models"
)

// EmployeeStore is the thin read-only collaborator onto the external
// employee record system: it supplies active employees with up to four
// image or template slots each, and accepts aggregate embeddings back as
// an operational audit trail. The matching engine never treats this store
// as its own source of truth for a match decision — only the in-memory
// snapshot built from it is.
type EmployeeStore interface {
	ListActiveEmployees(ctx context.Context) ([]models.EmployeeRecord, error)
	GetEmployee(ctx context.Context, id string) (*models.EmployeeRecord, error)
	PersistEmbedding(ctx context.Context, employeeID string, embedding []float32) error
}
