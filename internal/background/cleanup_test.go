package background

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/tmnkosi/bankgate/internal/ledger"
	"github.com/tmnkosi/bankgate/internal/models"
)

func seedExpiredRecord(t *testing.T, store *ledger.MemoryStore, key string) {
	t.Helper()

	_, err := store.Update(context.Background(), key, func(*models.AttemptRecord) *models.AttemptRecord {
		return &models.AttemptRecord{
			Key:          key,
			FailureCount: 3,
			ExpiresAt:    time.Now().Add(-time.Minute),
		}
	})
	if err != nil {
		t.Fatalf("seeding record: %v", err)
	}
}

func TestCleanupManagerSweepsExpiredRecords(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := ledger.NewMemoryStore()

	seedExpiredRecord(t, store, "user:1234567890|ip:10.0.0.1")
	seedExpiredRecord(t, store, "user:2222222222|ip:10.0.0.2")
	if store.Len() != 2 {
		t.Fatalf("expected 2 seeded records, got %d", store.Len())
	}

	cm := NewCleanupManager(logger, time.Hour, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	// The first sweep runs immediately on startup
	deadline := time.After(2 * time.Second)
	for store.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("expired records not swept, %d remain", store.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cm.Stop()
	<-done
}

func TestCleanupManagerNoSweepersReturnsImmediately(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	cm := NewCleanupManager(logger, time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return immediately with no sweepers")
	}
}
