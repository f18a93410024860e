// Package audit keeps the vault's append-only access trail. Every entry is
// linked to its predecessor with an HMAC chain so after-the-fact edits are
// detectable, and entries are never mutated once appended.
package audit

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

type AccessType string

const (
	AccessRead   AccessType = "read"
	AccessWrite  AccessType = "write"
	AccessDelete AccessType = "delete"
	AccessAudit  AccessType = "audit"
)

// Entry is one access-log record. AccessorID is who performed the action,
// which may differ from the owning UserID.
type Entry struct {
	RecordID   string     `json:"record_id" bson:"record_id"`
	UserID     string     `json:"user_id" bson:"user_id"`
	AccessorID string     `json:"accessor_id" bson:"accessor_id"`
	Access     AccessType `json:"access" bson:"access"`
	At         time.Time  `json:"at" bson:"at"`
	Origin     string     `json:"origin" bson:"origin"`
	Reason     string     `json:"reason" bson:"reason"`
	Approved   bool       `json:"approved" bson:"approved"`
	ApprovedBy string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	Chain      string     `json:"chain" bson:"chain"`
}

// Chainer produces the next link MAC from the previous link and the entry
// bytes. The vault supplies an HMAC keyed off the derived key material.
type Chainer interface {
	Chain(prev, msg []byte) []byte
}

// Sink receives every appended entry for durable storage. The in-memory log
// is capped; a configured sink is the unbounded record.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Log is the in-memory, capped access log. Appends are strictly ordered;
// timestamps are assigned under the lock so they never go backwards.
type Log struct {
	mu       sync.Mutex
	chain    Chainer
	lastMAC  []byte
	entries  []Entry
	cap      int
	dropped  int
	sink     Sink
	sinkErrs int
}

func New(chain Chainer, capacity int) *Log {
	if capacity <= 0 {
		capacity = 100_000
	}
	return &Log{chain: chain, cap: capacity}
}

// SetSink attaches a durable sink. Entries already in the log are not
// replayed.
func (l *Log) SetSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = s
}

// Append stamps, chains and stores the entry, returning the stored copy.
func (l *Log) Append(ctx context.Context, e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.At = time.Now().UTC()
	mac := l.chain.Chain(l.lastMAC, l.chainInput(e))
	l.lastMAC = mac
	e.Chain = hex.EncodeToString(mac)

	l.entries = append(l.entries, e)
	if len(l.entries) > l.cap {
		over := len(l.entries) - l.cap
		l.entries = append([]Entry(nil), l.entries[over:]...)
		l.dropped += over
	}
	if l.sink != nil {
		if err := l.sink.Append(ctx, e); err != nil {
			l.sinkErrs++
		}
	}
	return e
}

// Verify rewalks the chain over the retained entries. Returns an error if
// any retained entry no longer matches its link.
func (l *Log) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dropped > 0 {
		// The head of the chain was evicted; only the tail is checkable.
		return l.verifyTail()
	}
	var prev []byte
	for i, e := range l.entries {
		mac := l.chain.Chain(prev, l.chainInput(e))
		if hex.EncodeToString(mac) != e.Chain {
			return fmt.Errorf("%w: entry %d", ErrChainBroken, i)
		}
		prev = mac
	}
	return nil
}

func (l *Log) verifyTail() error {
	for i := 1; i < len(l.entries); i++ {
		prev, _ := hex.DecodeString(l.entries[i-1].Chain)
		mac := l.chain.Chain(prev, l.chainInput(l.entries[i]))
		if !bytes.Equal(mac, mustDecode(l.entries[i].Chain)) {
			return fmt.Errorf("%w: retained entry %d", ErrChainBroken, i)
		}
	}
	return nil
}

func mustDecode(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}

// Snapshot returns a copy of the retained entries in append order.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Len is the count of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Total is retained plus evicted entries, i.e. everything ever appended.
func (l *Log) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) + l.dropped
}

func (l *Log) chainInput(e Entry) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%s|%d|%s|%s|%t|%s",
		e.RecordID, e.UserID, e.AccessorID, e.Access,
		e.At.UnixNano(), e.Origin, e.Reason, e.Approved, e.ApprovedBy))
}

var ErrChainBroken = errors.New("audit: chain broken")

type originKey struct{}

// WithOrigin tags a context with the caller's network/client identifier.
// The vault stamps it into every entry produced under that context.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext returns the tagged origin, or "internal" for calls that
// did not cross the process boundary (e.g. the retention monitor).
func OriginFromContext(ctx context.Context) string {
	if o, ok := ctx.Value(originKey{}).(string); ok && o != "" {
		return o
	}
	return "internal"
}
