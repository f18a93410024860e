// Package vault is the compliance record store: encrypted typed records
// with an independent integrity digest, a full audit trail of every access,
// retention policy enforcement and forensic secure deletion.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/FanzCEO/FanzDash-sub000/internal/audit"
	"github.com/FanzCEO/FanzDash-sub000/internal/authz"
	"github.com/FanzCEO/FanzDash-sub000/internal/crypto"
	"github.com/FanzCEO/FanzDash-sub000/internal/logging"
	"github.com/FanzCEO/FanzDash-sub000/internal/storage"
)

var (
	ErrNotFound           = errors.New("vault: record not found")
	ErrAccessDenied       = errors.New("vault: access denied")
	ErrIntegrityViolation = errors.New("vault: integrity digest mismatch")
	ErrReasonRequired     = errors.New("vault: access reason required")
	ErrUnknownDataType    = errors.New("vault: unknown data type")
)

const deletePasses = 3

type Config struct {
	// MasterSecret and Salt are opaque secret material supplied by the
	// deployment. The encryption key is derived from them exactly once and
	// never leaves this process.
	MasterSecret string
	Salt         string

	ScanInterval     time.Duration // retention monitor period
	ScanStartupDelay time.Duration // first scan after startup
	AuditLogCap      int           // in-memory audit entries retained
}

func (c *Config) setDefaults() {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 24 * time.Hour
	}
	if c.ScanStartupDelay <= 0 {
		c.ScanStartupDelay = 30 * time.Second
	}
}

// Vault owns the key material and the record repository. Callers only ever
// receive decrypted transient copies of payloads.
type Vault struct {
	engine    *crypto.Engine
	repo      storage.RecordRepository
	authz     authz.Authorizer
	accessLog *audit.Log
	logger    logging.Logger
	policies  map[DataType]RetentionPolicy
	subs      []Subscriber

	// mu serializes record read-modify-write cycles. The repository has
	// its own locking but compound operations (decrypt + touch, overwrite
	// + remove) need the wider guard.
	mu sync.Mutex

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs the vault, derives the key, loads the policy table and
// starts the retention monitor. Subscribers are fixed for the vault's
// lifetime.
func New(cfg Config, repo storage.RecordRepository, az authz.Authorizer, logger logging.Logger, subs ...Subscriber) (*Vault, error) {
	cfg.setDefaults()
	if repo == nil {
		return nil, errors.New("vault: repository is required")
	}
	if az == nil {
		return nil, errors.New("vault: authorizer is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	engine, err := crypto.NewEngine([]byte(cfg.MasterSecret), []byte(cfg.Salt))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Vault{
		engine:    engine,
		repo:      repo,
		authz:     az,
		accessLog: audit.New(engine, cfg.AuditLogCap),
		logger:    logger.With("component", "vault"),
		policies:  DefaultPolicies(),
		subs:      subs,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go v.runMonitor(ctx, cfg.ScanStartupDelay, cfg.ScanInterval)
	return v, nil
}

// SetAuditSink attaches durable audit storage (e.g. Mongo). Optional.
func (v *Vault) SetAuditSink(s audit.Sink) { v.accessLog.SetSink(s) }

// AuditLog exposes the access log for verification and reporting reads.
func (v *Vault) AuditLog() *audit.Log { return v.accessLog }

// Close stops the retention monitor, waits for it, and zeroes the key
// material. The vault is unusable afterwards.
func (v *Vault) Close() {
	v.closeOnce.Do(func() {
		v.cancel()
		<-v.done
		v.engine.Close()
	})
}

// StoreRecord canonicalizes and encrypts the payload, computes the
// write-time digest over the exact bytes that were encrypted, and inserts a
// fresh record. Stores are never deduplicated; every call mints a new id.
func (v *Vault) StoreRecord(ctx context.Context, userID string, dt DataType, payload any, accessorID string) (string, error) {
	policy, ok := v.policies[dt]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataType, dt)
	}
	if !v.authz.Authorize(accessorID, string(dt), authz.ActionWrite) {
		v.appendAudit(ctx, audit.Entry{
			UserID:     userID,
			AccessorID: accessorID,
			Access:     audit.AccessWrite,
			Reason:     "record creation",
			Approved:   false,
		})
		v.publish(Event{Kind: EventAccessDenied, UserID: userID, DataType: dt, Detail: "store denied"})
		return "", ErrAccessDenied
	}

	plaintext, err := canonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("vault: serialize payload: %w", err)
	}
	digest := v.engine.Digest(plaintext)
	blob, err := v.engine.Encrypt(plaintext)
	crypto.Zero(plaintext)
	if err != nil {
		return "", err
	}

	level, auditRequired := complianceClass(dt)
	now := time.Now().UTC()
	rec := storage.Record{
		ID:              uuid.NewString(),
		UserID:          userID,
		DataType:        string(dt),
		Payload:         blob,
		Digest:          digest,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		AccessedAt:      now,
		PolicyRef:       string(policy.DataType),
		ComplianceLevel: string(level),
		AuditRequired:   auditRequired,
	}

	v.mu.Lock()
	err = v.repo.Put(ctx, rec)
	v.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("vault: persist record: %w", err)
	}

	v.appendAudit(ctx, audit.Entry{
		RecordID:   rec.ID,
		UserID:     userID,
		AccessorID: accessorID,
		Access:     audit.AccessWrite,
		Reason:     "record creation",
		Approved:   true,
	})
	v.publish(Event{Kind: EventStored, RecordID: rec.ID, UserID: userID, DataType: dt})
	return rec.ID, nil
}

// RetrieveRecord authorizes, decrypts, and verifies the integrity digest
// before returning a transient payload copy. A digest mismatch or AEAD
// failure raises a security alert and never returns payload bytes.
func (v *Vault) RetrieveRecord(ctx context.Context, recordID, accessorID, reason string) (Payload, error) {
	if strings.TrimSpace(reason) == "" {
		return Payload{}, ErrReasonRequired
	}

	v.mu.Lock()
	rec, err := v.repo.Get(ctx, recordID)
	v.mu.Unlock()
	if errors.Is(err, storage.ErrNotFound) {
		return Payload{}, ErrNotFound
	}
	if err != nil {
		return Payload{}, fmt.Errorf("vault: load record: %w", err)
	}

	if !v.authz.Authorize(accessorID, rec.DataType, authz.ActionRead) {
		v.appendAudit(ctx, audit.Entry{
			RecordID:   recordID,
			UserID:     rec.UserID,
			AccessorID: accessorID,
			Access:     audit.AccessRead,
			Reason:     reason,
			Approved:   false,
		})
		v.publish(Event{Kind: EventAccessDenied, RecordID: recordID, UserID: rec.UserID, DataType: DataType(rec.DataType)})
		return Payload{}, ErrAccessDenied
	}

	v.appendAudit(ctx, audit.Entry{
		RecordID:   recordID,
		UserID:     rec.UserID,
		AccessorID: accessorID,
		Access:     audit.AccessRead,
		Reason:     reason,
		Approved:   true,
	})

	plaintext, err := v.engine.Decrypt(rec.Payload)
	if err != nil {
		v.alert(recordID, rec, "ciphertext failed authentication")
		return Payload{}, err
	}
	if v.engine.Digest(plaintext) != rec.Digest {
		crypto.Zero(plaintext)
		v.alert(recordID, rec, "integrity digest mismatch after decryption")
		return Payload{}, ErrIntegrityViolation
	}

	v.mu.Lock()
	// Reload: the record may have been securely deleted while we decrypted.
	if cur, err := v.repo.Get(ctx, recordID); err == nil {
		cur.AccessedAt = time.Now().UTC()
		_ = v.repo.Put(ctx, cur)
	}
	v.mu.Unlock()

	v.publish(Event{Kind: EventAccessed, RecordID: recordID, UserID: rec.UserID, DataType: DataType(rec.DataType)})
	return Payload{
		RecordID: recordID,
		UserID:   rec.UserID,
		DataType: DataType(rec.DataType),
		Version:  rec.Version,
		Data:     plaintext,
	}, nil
}

// DeleteRecord is the permission-gated secure deletion entry point. It is
// idempotent: an unknown or already-deleted id returns (false, nil).
func (v *Vault) DeleteRecord(ctx context.Context, recordID, accessorID, reason string) (bool, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "secure deletion"
	}

	v.mu.Lock()
	rec, err := v.repo.Get(ctx, recordID)
	v.mu.Unlock()
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vault: load record: %w", err)
	}

	if !v.authz.Authorize(accessorID, rec.DataType, authz.ActionDelete) {
		v.appendAudit(ctx, audit.Entry{
			RecordID:   recordID,
			UserID:     rec.UserID,
			AccessorID: accessorID,
			Access:     audit.AccessDelete,
			Reason:     reason,
			Approved:   false,
		})
		v.publish(Event{Kind: EventAccessDenied, RecordID: recordID, UserID: rec.UserID, DataType: DataType(rec.DataType)})
		return false, ErrAccessDenied
	}

	deleted := v.destroy(ctx, recordID)
	if !deleted {
		return false, nil
	}
	v.appendAudit(ctx, audit.Entry{
		RecordID:   recordID,
		UserID:     rec.UserID,
		AccessorID: accessorID,
		Access:     audit.AccessDelete,
		Reason:     reason,
		Approved:   true,
	})
	v.publish(Event{Kind: EventDeleted, RecordID: recordID, UserID: rec.UserID, DataType: DataType(rec.DataType)})
	return true, nil
}

// destroy overwrites the stored ciphertext with fresh random bytes of equal
// length for several passes, flushing each pass through the repository,
// then removes the record. Returns false if the record vanished first.
func (v *Vault) destroy(ctx context.Context, recordID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	rec, err := v.repo.Get(ctx, recordID)
	if err != nil {
		return false
	}
	for i := 0; i < deletePasses; i++ {
		rec.Payload = randomFill(len(rec.Payload))
		rec.Digest = randomFill(len(rec.Digest))
		rec.UpdatedAt = time.Now().UTC()
		if err := v.repo.Put(ctx, rec); err != nil {
			v.logger.Error(ctx, "secure delete overwrite failed",
				"record_id", recordID, "pass", i, "err", err)
			break
		}
	}
	return v.repo.Delete(ctx, recordID) == nil
}

func (v *Vault) alert(recordID string, rec storage.Record, detail string) {
	v.logger.Error(context.Background(), "security alert",
		"record_id", recordID, "data_type", rec.DataType, "detail", detail)
	v.publish(Event{
		Kind:     EventSecurityAlert,
		RecordID: recordID,
		UserID:   rec.UserID,
		DataType: DataType(rec.DataType),
		Detail:   detail,
	})
}

func (v *Vault) appendAudit(ctx context.Context, e audit.Entry) {
	e.Origin = audit.OriginFromContext(ctx)
	v.accessLog.Append(ctx, e)
}

// canonicalJSON marshals the payload and normalizes it to RFC 8785 form so
// the digest is stable across field ordering.
func canonicalJSON(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// randomFill returns n hex characters of fresh randomness.
func randomFill(n int) string {
	if n <= 0 {
		return ""
	}
	raw := make([]byte, (n+1)/2)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)[:n]
}
