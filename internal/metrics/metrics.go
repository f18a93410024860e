// Package metrics exports vault activity counters. It subscribes to vault
// events so the core stays free of any metrics dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/FanzCEO/FanzDash-sub000/internal/vault"
)

type Metrics struct {
	RecordsStored       *prometheus.CounterVec
	RecordsAccessed     *prometheus.CounterVec
	RecordsDeleted      *prometheus.CounterVec
	AccessDenied        prometheus.Counter
	SecurityAlerts      prometheus.Counter
	RetentionExpired    prometheus.Counter
	RetentionNearExpiry prometheus.Counter
}

// New registers the collectors on reg; each vault instance gets its own
// registry so test instances never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_records_stored_total",
			Help: "Total records stored, by data type",
		}, []string{"data_type"}),
		RecordsAccessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_records_accessed_total",
			Help: "Total successful record retrievals, by data type",
		}, []string{"data_type"}),
		RecordsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_records_deleted_total",
			Help: "Total secure deletions, by data type",
		}, []string{"data_type"}),
		AccessDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_access_denied_total",
			Help: "Total operations denied by the authorization seam",
		}),
		SecurityAlerts: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_security_alerts_total",
			Help: "Total integrity or authentication failures detected on read",
		}),
		RetentionExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_retention_expired_total",
			Help: "Total expired records flagged for manual action",
		}),
		RetentionNearExpiry: factory.NewCounter(prometheus.CounterOpts{
			Name: "vault_retention_near_expiry_total",
			Help: "Total records entering the retention notice window",
		}),
	}
}

// Notify implements vault.Subscriber.
func (m *Metrics) Notify(e vault.Event) {
	dt := string(e.DataType)
	switch e.Kind {
	case vault.EventStored:
		m.RecordsStored.WithLabelValues(dt).Inc()
	case vault.EventAccessed:
		m.RecordsAccessed.WithLabelValues(dt).Inc()
	case vault.EventDeleted:
		m.RecordsDeleted.WithLabelValues(dt).Inc()
	case vault.EventAccessDenied:
		m.AccessDenied.Inc()
	case vault.EventSecurityAlert:
		m.SecurityAlerts.Inc()
	case vault.EventRetentionExpired:
		m.RetentionExpired.Inc()
	case vault.EventNearExpiry:
		m.RetentionNearExpiry.Inc()
	}
}
