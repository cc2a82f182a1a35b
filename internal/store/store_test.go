package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]UploadStore {
	t.Helper()
	db, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]UploadStore{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestUploadLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u, err := s.Create(ctx, "cat.png")
			require.NoError(t, err)
			require.Len(t, u.ID, 26)
			require.False(t, u.HasEditedVersion())

			got, err := s.Get(ctx, u.ID)
			require.NoError(t, err)
			require.Equal(t, "cat.png", got.Filename)
			require.True(t, u.CreatedAt.Equal(got.CreatedAt))

			edited, err := s.SetEdited(ctx, u.ID, "edited_cat.png")
			require.NoError(t, err)
			require.True(t, edited.HasEditedVersion())
			require.Equal(t, "edited_cat.png", edited.EditedFilename)

			cleared, err := s.ClearEdited(ctx, u.ID)
			require.NoError(t, err)
			require.False(t, cleared.HasEditedVersion())
		})
	}
}

func TestUnknownUpload(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)
			_, err = s.SetEdited(ctx, "missing", "x")
			require.ErrorIs(t, err, ErrNotFound)
			_, err = s.ClearEdited(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestIDsAreUnique(t *testing.T) {
	s := NewMemory()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u, err := s.Create(context.Background(), "a.png")
		require.NoError(t, err)
		require.False(t, seen[u.ID])
		seen[u.ID] = true
	}
}
