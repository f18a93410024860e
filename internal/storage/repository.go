// Package storage abstracts where encrypted records live. The vault only
// ever hands it ciphertext; nothing in this package can see plaintext.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: record not found")

// Record is the persisted shape of a vault record. The payload is the
// nonce:tag:ciphertext blob; Digest is the write-time plaintext digest.
// Kept local to this package so repository implementations do not depend
// on the vault package.
type Record struct {
	ID              string    `bson:"_id" json:"id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	DataType        string    `bson:"data_type" json:"data_type"`
	Payload         string    `bson:"payload" json:"payload"`
	Digest          string    `bson:"digest" json:"digest"`
	Version         int       `bson:"version" json:"version"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
	AccessedAt      time.Time `bson:"accessed_at" json:"accessed_at"`
	PolicyRef       string    `bson:"policy_ref" json:"policy_ref"`
	ComplianceLevel string    `bson:"compliance_level" json:"compliance_level"`
	AuditRequired   bool      `bson:"audit_required" json:"audit_required"`
}

// RecordRepository is the vault's backing store. Put upserts (secure
// deletion rewrites the payload in place before the final Delete), List is
// the full scan the retention monitor runs over.
type RecordRepository interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
	Close(ctx context.Context) error
}
