package vault

import (
	"context"
	"time"

	"github.com/FanzCEO/FanzDash-sub000/internal/audit"
	"github.com/FanzCEO/FanzDash-sub000/internal/storage"
)

// The monitor acts as its own accessor so retention deletions are
// attributable in the audit trail.
const retentionAccessor = "retention-monitor"

// runMonitor performs one scan shortly after startup and then one per
// interval, until the vault is closed.
func (v *Vault) runMonitor(ctx context.Context, startupDelay, interval time.Duration) {
	defer close(v.done)

	select {
	case <-ctx.Done():
		return
	case <-time.After(startupDelay):
	}
	v.scan(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.scan(ctx)
		}
	}
}

// scan snapshots the record ids, then classifies and acts on each record
// individually. The vault lock is held only per record, never across the
// whole pass, so foreground calls are not starved.
func (v *Vault) scan(ctx context.Context) {
	v.mu.Lock()
	recs, err := v.repo.List(ctx)
	v.mu.Unlock()
	if err != nil {
		v.logger.Error(ctx, "retention scan failed", "err", err)
		return
	}

	now := time.Now().UTC()
	var deleted, flagged, nearing int
	for _, rec := range recs {
		switch v.enforceRetention(ctx, rec.ID, now) {
		case StateExpired:
			flagged++
		case StateNearExpiry:
			nearing++
		case retentionDeleted:
			deleted++
		}
	}
	v.logger.Info(ctx, "retention scan complete",
		"records", len(recs), "deleted", deleted, "flagged", flagged, "near_expiry", nearing)
}

// retentionDeleted is an internal classification result meaning the monitor
// removed the record during this pass.
const retentionDeleted RetentionState = "deleted"

// enforceRetention re-reads one record under the lock, classifies it and
// acts. Expired records are auto-deleted only when their policy both allows
// auto-delete and waives approval; anything else is flagged, never removed.
func (v *Vault) enforceRetention(ctx context.Context, recordID string, now time.Time) RetentionState {
	v.mu.Lock()
	rec, err := v.repo.Get(ctx, recordID)
	v.mu.Unlock()
	if err != nil {
		// Deleted since the snapshot; nothing to enforce.
		return StateActive
	}
	policy, ok := v.policies[DataType(rec.DataType)]
	if !ok {
		v.logger.Warn(ctx, "record with no retention policy", "record_id", recordID, "data_type", rec.DataType)
		return StateActive
	}

	switch policy.Classify(rec.CreatedAt, now) {
	case StateExpired:
		if policy.AutoDeleteAllowed && !policy.RequiresApproval {
			return v.autoDelete(ctx, rec)
		}
		v.publish(Event{
			Kind:     EventRetentionExpired,
			RecordID: rec.ID,
			UserID:   rec.UserID,
			DataType: DataType(rec.DataType),
			Detail:   "retention period elapsed, manual action required",
		})
		return StateExpired
	case StateNearExpiry:
		v.publish(Event{
			Kind:     EventNearExpiry,
			RecordID: rec.ID,
			UserID:   rec.UserID,
			DataType: DataType(rec.DataType),
			Detail:   "retention period ends within the notice window",
		})
		return StateNearExpiry
	default:
		return StateActive
	}
}

func (v *Vault) autoDelete(ctx context.Context, rec storage.Record) RetentionState {
	if !v.destroy(ctx, rec.ID) {
		return StateActive
	}
	v.appendAudit(ctx, audit.Entry{
		RecordID:   rec.ID,
		UserID:     rec.UserID,
		AccessorID: retentionAccessor,
		Access:     audit.AccessDelete,
		Reason:     "retention period elapsed, policy auto-delete",
		Approved:   true,
	})
	v.publish(Event{
		Kind:     EventDeleted,
		RecordID: rec.ID,
		UserID:   rec.UserID,
		DataType: DataType(rec.DataType),
		Detail:   "retention auto-delete",
	})
	return retentionDeleted
}
