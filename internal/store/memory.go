package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type memoryStore struct {
	mu      sync.RWMutex
	uploads map[string]Upload
}

// NewMemory returns an UploadStore that lives only as long as the process.
func NewMemory() UploadStore {
	return &memoryStore{uploads: make(map[string]Upload)}
}

func (s *memoryStore) Create(ctx context.Context, filename string) (*Upload, error) {
	t := now()
	u := Upload{ID: newID(), Filename: filename, CreatedAt: t, UpdatedAt: t}
	s.mu.Lock()
	s.uploads[u.ID] = u
	s.mu.Unlock()
	logrus.WithFields(logrus.Fields{"upload_id": u.ID, "filename": filename}).Debug("upload created")
	return &u, nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *memoryStore) SetEdited(ctx context.Context, id, editedFilename string) (*Upload, error) {
	return s.update(id, func(u *Upload) { u.EditedFilename = editedFilename })
}

func (s *memoryStore) ClearEdited(ctx context.Context, id string) (*Upload, error) {
	return s.update(id, func(u *Upload) { u.EditedFilename = "" })
}

func (s *memoryStore) update(id string, fn func(*Upload)) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = now()
	s.uploads[id] = u
	return &u, nil
}

func (s *memoryStore) Close() error { return nil }
