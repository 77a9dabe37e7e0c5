// Package todos declares the repository contract for Todo records.
//
// Every lookup is scoped by owner: a record that exists but belongs to a
// different user is reported exactly like a missing one (common.ErrorNotFound).
package todos

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// Repository persists Todo records.
type Repository interface {
	// Create inserts todo and fills in ID and CreatedAt. A blank title
	// yields an error matching common.ErrorValidation.
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	// ListByOwner returns the owner's todos ordered by id ascending.
	ListByOwner(ctx context.Context, userID int64) ([]*models.Todo, error)

	// Get returns the todo with id if it belongs to userID.
	Get(ctx context.Context, userID, id int64) (*models.Todo, error)

	// GetForUpdate is Get plus a row lock held until the surrounding
	// transaction ends. Only meaningful on a transactional DBTX.
	GetForUpdate(ctx context.Context, userID, id int64) (*models.Todo, error)

	// Update rewrites title, description and completed of the row matching
	// todo.ID and todo.UserID. ID, owner and CreatedAt are never changed.
	Update(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	// Delete removes the todo with id if it belongs to userID.
	Delete(ctx context.Context, userID, id int64) error
}
