// Package store keeps upload records: the original file name and, once the
// image has been edited, the name of the edited copy.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when no upload has the requested id.
var ErrNotFound = errors.New("upload not found")

// Upload is one stored image.
type Upload struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	EditedFilename string    `json:"edited_filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasEditedVersion reports whether an edited copy is recorded.
func (u *Upload) HasEditedVersion() bool { return u.EditedFilename != "" }

// UploadStore persists Upload records.
type UploadStore interface {
	Create(ctx context.Context, filename string) (*Upload, error)
	Get(ctx context.Context, id string) (*Upload, error)
	SetEdited(ctx context.Context, id, editedFilename string) (*Upload, error)
	ClearEdited(ctx context.Context, id string) (*Upload, error)
	Close() error
}

func newID() string { return ulid.Make().String() }

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
