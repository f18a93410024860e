package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/FanzCEO/FanzDash-sub000/internal/audit"
	"github.com/FanzCEO/FanzDash-sub000/internal/authz"
)

// Stats are point-in-time aggregates. Nothing here exposes record contents.
type Stats struct {
	TotalRecords  int              `json:"total_records"`
	RecordsByType map[DataType]int `json:"records_by_type"`
	AuditEntries  int              `json:"audit_entries"`
	PolicyCount   int              `json:"policy_count"`
}

func (v *Vault) Statistics(ctx context.Context) (Stats, error) {
	v.mu.Lock()
	recs, err := v.repo.List(ctx)
	v.mu.Unlock()
	if err != nil {
		return Stats{}, fmt.Errorf("vault: list records: %w", err)
	}
	s := Stats{
		TotalRecords:  len(recs),
		RecordsByType: make(map[DataType]int),
		AuditEntries:  v.accessLog.Total(),
		PolicyCount:   len(v.policies),
	}
	for _, rec := range recs {
		s.RecordsByType[DataType(rec.DataType)]++
	}
	return s, nil
}

// UserRecords lists the record ids owned by userID. The listing itself is
// an audited access: it requires the audit capability and always produces a
// log entry, allowed or denied.
func (v *Vault) UserRecords(ctx context.Context, userID, accessorID string) ([]string, error) {
	if !v.authz.Authorize(accessorID, "", authz.ActionAudit) {
		v.appendAudit(ctx, audit.Entry{
			UserID:     userID,
			AccessorID: accessorID,
			Access:     audit.AccessAudit,
			Reason:     "user record listing",
			Approved:   false,
		})
		return nil, ErrAccessDenied
	}

	v.mu.Lock()
	recs, err := v.repo.List(ctx)
	v.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("vault: list records: %w", err)
	}
	var ids []string
	for _, rec := range recs {
		if rec.UserID == userID {
			ids = append(ids, rec.ID)
		}
	}
	v.appendAudit(ctx, audit.Entry{
		UserID:     userID,
		AccessorID: accessorID,
		Access:     audit.AccessAudit,
		Reason:     "user record listing",
		Approved:   true,
	})
	return ids, nil
}

// Report aggregates activity inside a compliance window for regulator-facing
// reporting. Derived from the audit trail, which is the system of record
// for what happened when.
type Report struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	RecordsCreated   int       `json:"records_created"`
	RecordsAccessed  int       `json:"records_accessed"`
	RetentionActions int       `json:"retention_actions"`
	AuditEvents      int       `json:"audit_events"`
}

func (v *Vault) ComplianceReport(ctx context.Context, start, end time.Time) (Report, error) {
	if end.Before(start) {
		return Report{}, fmt.Errorf("vault: report window ends before it starts")
	}
	r := Report{Start: start, End: end}
	for _, e := range v.accessLog.Snapshot() {
		if e.At.Before(start) || e.At.After(end) {
			continue
		}
		r.AuditEvents++
		if !e.Approved {
			continue
		}
		switch e.Access {
		case audit.AccessWrite:
			r.RecordsCreated++
		case audit.AccessRead:
			r.RecordsAccessed++
		case audit.AccessDelete:
			r.RetentionActions++
		}
	}
	return r, nil
}
