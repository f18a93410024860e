package vault

import "time"

type EventKind string

const (
	EventStored           EventKind = "record.stored"
	EventAccessed         EventKind = "record.accessed"
	EventDeleted          EventKind = "record.deleted"
	EventAccessDenied     EventKind = "record.access-denied"
	EventNearExpiry       EventKind = "retention.near-expiry"
	EventRetentionExpired EventKind = "retention.expired"
	EventSecurityAlert    EventKind = "security.alert"
)

// Event is published to every registered subscriber. EventSecurityAlert
// means tampering or a digest mismatch was detected on read;
// EventRetentionExpired means a record passed its retention period but its
// policy forbids automatic deletion and someone has to act.
type Event struct {
	Kind     EventKind `json:"kind"`
	RecordID string    `json:"record_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	DataType DataType  `json:"data_type,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Subscriber receives vault events. Subscribers are registered at
// construction and must not block: Notify is called synchronously from
// store/retrieve/delete paths and the retention monitor.
type Subscriber interface {
	Notify(Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

func (f SubscriberFunc) Notify(e Event) { f(e) }

func (v *Vault) publish(e Event) {
	e.At = time.Now().UTC()
	for _, s := range v.subs {
		s.Notify(e)
	}
}
