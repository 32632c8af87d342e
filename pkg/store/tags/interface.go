package tags

import (
	"context"
	"errors"

	"github.com/offnote/offnote/pkg/models"
)

// ErrNotFound is returned when no tag exists with the requested name.
var ErrNotFound = errors.New("tag not found")

// Repository describes the local tag collection. Count arithmetic lives in
// the ledger; this layer only stores rows.
type Repository interface {
	// GetByName returns the tag with the given normalized name, or
	// (nil, nil) when it does not exist.
	GetByName(ctx context.Context, name string) (*models.Tag, error)

	// List returns all tags ordered by name.
	List(ctx context.Context) ([]models.Tag, error)

	// Insert stores a new tag.
	Insert(ctx context.Context, t *models.Tag) error

	// SetCount updates a tag's cached note count.
	SetCount(ctx context.Context, id string, count int) error

	// DeleteByID removes a tag.
	DeleteByID(ctx context.Context, id string) error

	// Clear removes every tag. Used when rebuilding the ledger.
	Clear(ctx context.Context) error
}
