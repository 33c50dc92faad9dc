package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestAuditServiceFlushesOnShutdown(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, zap.NewNop())

	userID := uuid.New()
	for i := 0; i < 25; i++ {
		svc.LogAsync(context.Background(), AuditEntry{
			UserID:       userID,
			UserRole:     "doctor",
			Action:       "create",
			ResourceType: "lab_order",
			ResourceID:   "LAB-000001-AAA",
		})
	}

	svc.Shutdown()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.entries) != 25 {
		t.Fatalf("persisted entries = %d, want 25", len(repo.entries))
	}
	got := repo.entries[0]
	if got.UserID != userID || string(got.Action) != "create" || got.ResourceType != "lab_order" {
		t.Fatalf("entry = %+v", got)
	}
}
