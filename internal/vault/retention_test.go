package vault

import (
	"context"
	"errors"
	"testing"
	"time"
)

// backdate rewrites a stored record's creation time so the monitor sees it
// as aged. Test-only; the public API never mutates createdAt.
func backdate(t *testing.T, env testEnv, id string, months float64) {
	t.Helper()
	ctx := context.Background()
	rec, err := env.repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("backdate get: %v", err)
	}
	rec.CreatedAt = monthsAgo(time.Now().UTC(), months)
	if err := env.repo.Put(ctx, rec); err != nil {
		t.Fatalf("backdate put: %v", err)
	}
}

func TestMonitorAutoDeletesEligibleExpired(t *testing.T) {
	env := newTestVault(t, nil)
	ctx := context.Background()

	// sensitive-profile: 24 months, auto-delete allowed, no approval.
	id, err := env.v.StoreRecord(ctx, "u1", DataSensitiveProfile, map[string]string{"bio": "old"}, "svc")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	backdate(t, env, id, 25)

	env.v.scan(ctx)

	if _, err := env.v.RetrieveRecord(ctx, id, "svc", "post-scan check"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record survived the scan: %v", err)
	}
	if deleted := env.events.byKind(EventDeleted); len(deleted) != 1 {
		t.Fatalf("deleted events = %d, want 1", len(deleted))
	}
	// The monitor's deletion is attributable in the audit trail.
	found := false
	for _, e := range env.v.AuditLog().Snapshot() {
		if e.RecordID == id && e.AccessorID == retentionAccessor {
			found = true
		}
	}
	if !found {
		t.Fatal("no audit entry for the monitor's deletion")
	}
}

func TestMonitorNeverDeletesApprovalGated(t *testing.T) {
	env := newTestVault(t, nil)
	ctx := context.Background()

	// identity-verification: expired but requires approval; must survive.
	id, err := env.v.StoreIdentityDocument(ctx, "u1", IdentityDocument{DocumentNumber: "old"}, "svc")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	backdate(t, env, id, 85)

	env.v.scan(ctx)

	if _, err := env.v.RetrieveRecord(ctx, id, "svc", "post-scan check"); err != nil {
		t.Fatalf("approval-gated record was removed: %v", err)
	}
	if expired := env.events.byKind(EventRetentionExpired); len(expired) != 1 {
		t.Fatalf("retention-expired events = %d, want 1", len(expired))
	}
	if deleted := env.events.byKind(EventDeleted); len(deleted) != 0 {
		t.Fatalf("deleted events = %d, want 0", len(deleted))
	}
}

func TestMonitorNeverDeletesProductionCompliance(t *testing.T) {
	env := newTestVault(t, nil)
	ctx := context.Background()

	id, err := env.v.StoreProductionCompliance(ctx, "u1", ProductionComplianceRecord{
		PerformerLegalName: "J. Doe", AgeAtRecording: 30,
	}, "svc")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	backdate(t, env, id, 200) // far past the statutory floor

	env.v.scan(ctx)

	if _, err := env.v.RetrieveRecord(ctx, id, "svc", "statutory floor check"); err != nil {
		t.Fatalf("production-compliance record was removed: %v", err)
	}
	if expired := env.events.byKind(EventRetentionExpired); len(expired) != 1 {
		t.Fatalf("retention-expired events = %d, want 1", len(expired))
	}
}

func TestMonitorNearExpiryNotifiesOnly(t *testing.T) {
	env := newTestVault(t, nil)
	ctx := context.Background()

	id, err := env.v.StoreIdentityDocument(ctx, "u1", IdentityDocument{DocumentNumber: "aging"}, "svc")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	backdate(t, env, id, 79) // inside the 6-month notice window before 84

	env.v.scan(ctx)

	if near := env.events.byKind(EventNearExpiry); len(near) != 1 {
		t.Fatalf("near-expiry events = %d, want 1", len(near))
	}
	if _, err := env.v.RetrieveRecord(ctx, id, "svc", "still active check"); err != nil {
		t.Fatalf("near-expiry record should be untouched: %v", err)
	}
}

func TestMonitorLeavesActiveRecordsAlone(t *testing.T) {
	env := newTestVault(t, nil)
	ctx := context.Background()

	id, err := env.v.StoreRecord(ctx, "u1", DataPaymentInfo, map[string]string{"last4": "7"}, "svc")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	backdate(t, env, id, 10)

	env.v.scan(ctx)

	if len(env.events.byKind(EventNearExpiry))+len(env.events.byKind(EventRetentionExpired))+len(env.events.byKind(EventDeleted)) != 0 {
		t.Fatal("active record triggered retention events")
	}
	if _, err := env.v.RetrieveRecord(ctx, id, "svc", "active check"); err != nil {
		t.Fatalf("active record unavailable: %v", err)
	}
}

func TestMonitorStopsOnClose(t *testing.T) {
	env := newTestVault(t, nil)
	done := make(chan struct{})
	go func() {
		env.v.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not stop the retention monitor")
	}
}
