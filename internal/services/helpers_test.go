package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"santiye/internal/amqp"
	"santiye/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "santiye.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []amqp.SyncMessage
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, msg amqp.SyncMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakePublisher) published() []amqp.SyncMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]amqp.SyncMessage(nil), f.msgs...)
}
