package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/obs"
	"github.com/pawkart/backend/internal/repo"
)

type stubStore struct {
	lastInsert repo.AuditEntry
	called     bool
}

func (s *stubStore) InsertAuditLog(_ context.Context, e repo.AuditEntry) error {
	s.called = true
	s.lastInsert = e
	return nil
}

func (s *stubStore) ListAuditLogs(context.Context, int32, int32) ([]repo.AuditEntry, error) {
	return nil, nil
}

func TestServiceRecord(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true, SamplingRate: 1}
	userID := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "https://api.test/api/v1/admin/coupons?status=active", nil)
	req.Header.Set("User-Agent", "tester")
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.2:54321"
	ctx := common.WithUserID(req.Context(), userID)
	ctx = obs.WithRoutePattern(ctx, "/api/v1/admin/coupons")
	req = req.WithContext(ctx)

	if err := svc.Record(req.Context(), Actor{Kind: ActorKindUser, UserID: &userID}, "", "", "", req, http.StatusCreated, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !store.called {
		t.Fatal("expected store to be called")
	}
	if store.lastInsert.ActorKind != string(ActorKindUser) {
		t.Fatalf("unexpected actor kind: %s", store.lastInsert.ActorKind)
	}
	if store.lastInsert.ActorUserID == nil || *store.lastInsert.ActorUserID != userID {
		t.Fatalf("unexpected stored user id: %v", store.lastInsert.ActorUserID)
	}
	if store.lastInsert.Action != "POST /api/v1/admin/coupons" {
		t.Fatalf("unexpected action: %s", store.lastInsert.Action)
	}
	if store.lastInsert.ResourceType != "admin.coupons" {
		t.Fatalf("unexpected resource type: %s", store.lastInsert.ResourceType)
	}
	if store.lastInsert.IP == nil || *store.lastInsert.IP != "10.0.0.2" {
		t.Fatalf("expected ip capture, got %v", store.lastInsert.IP)
	}
	if store.lastInsert.RequestID == nil || *store.lastInsert.RequestID != "req-123" {
		t.Fatalf("expected request id, got %v", store.lastInsert.RequestID)
	}
	if len(store.lastInsert.Metadata) == 0 {
		t.Fatal("expected metadata to be set")
	}
	var meta map[string]string
	if err := json.Unmarshal(store.lastInsert.Metadata, &meta); err != nil {
		t.Fatalf("metadata json: %v", err)
	}
	if meta["query"] != "status=active" {
		t.Fatalf("unexpected metadata query: %s", meta["query"])
	}
}

func TestServiceRecordDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := svc.Record(req.Context(), Actor{}, "", "", "", req, http.StatusOK, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if store.called {
		t.Fatal("expected no insert when disabled")
	}
}
