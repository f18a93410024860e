// Package server is the thin HTTP surface over the vault for the platform's
// other services. Routing, sessions and user management live in those
// services; this layer only proves who is calling, rate-limits, and maps
// vault results onto HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/FanzCEO/FanzDash-sub000/internal/audit"
	"github.com/FanzCEO/FanzDash-sub000/internal/auth"
	"github.com/FanzCEO/FanzDash-sub000/internal/authz"
	"github.com/FanzCEO/FanzDash-sub000/internal/logging"
	"github.com/FanzCEO/FanzDash-sub000/internal/metrics"
	"github.com/FanzCEO/FanzDash-sub000/internal/storage"
	"github.com/FanzCEO/FanzDash-sub000/internal/vault"
)

type Server struct {
	cfg    Config
	mux    *http.ServeMux
	vault  *vault.Vault
	signer *auth.JWTSigner
	roles  *authz.RoleTable
	logger logging.Logger

	rlIP       *multiLimiter
	rlAccessor *multiLimiter
	registry   *prometheus.Registry

	closers []func(context.Context) error
}

func New(ctx context.Context, cfg Config, logger logging.Logger) (*Server, error) {
	cfg.setDefaults()
	if cfg.MasterSecret == "" || cfg.Salt == "" {
		return nil, errors.New("server: master secret and salt are required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		roles:    authz.NewRoleTable(),
		logger:   logger.With("component", "server"),
		registry: prometheus.NewRegistry(),
	}
	defineRoleGrants(s.roles)

	var repo storage.RecordRepository
	if cfg.MongoURI != "" {
		mongoRepo, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.RecordsCollection)
		if err != nil {
			return nil, err
		}
		repo = mongoRepo
		s.closers = append(s.closers, mongoRepo.Close)
	} else {
		repo = storage.NewMemoryStore()
		s.logger.Warn(ctx, "no mongo uri configured, records are in-memory only")
	}

	v, err := vault.New(vault.Config{
		MasterSecret:     cfg.MasterSecret,
		Salt:             cfg.Salt,
		ScanInterval:     cfg.ScanInterval,
		ScanStartupDelay: cfg.ScanStartupDelay,
		AuditLogCap:      cfg.AuditLogCap,
	}, repo, s.roles, logger, metrics.New(s.registry), newEventLogger(logger))
	if err != nil {
		return nil, err
	}
	s.vault = v

	if cfg.MongoURI != "" {
		sink, err := storage.NewMongoAuditSink(ctx, cfg.MongoURI, cfg.MongoDB, cfg.AuditCollection)
		if err != nil {
			v.Close()
			return nil, err
		}
		v.SetAuditSink(sink)
		s.closers = append(s.closers, sink.Close)
	}

	priv, _, err := auth.GenerateEd25519()
	if err != nil {
		v.Close()
		return nil, err
	}
	s.signer = auth.NewJWTSigner(priv, cfg.JWTIssuer, cfg.TokenTTL)

	perWindow := func(n int, window time.Duration) rate.Limit {
		return rate.Limit(float64(n) / window.Seconds())
	}
	s.rlIP = newMultiLimiter(perWindow(300, time.Minute), 300, time.Hour)
	s.rlAccessor = newMultiLimiter(perWindow(120, time.Minute), 120, time.Hour)

	s.routes()
	return s, nil
}

// defineRoleGrants is the fixed role -> capability mapping for token roles.
func defineRoleGrants(t *authz.RoleTable) {
	all := []authz.Action{authz.ActionRead, authz.ActionWrite, authz.ActionDelete, authz.ActionAudit}
	t.DefineRole(string(auth.RoleAdmin), authz.Grant{Actions: all})
	t.DefineRole(string(auth.RoleComplianceOfficer), authz.Grant{Actions: all})
	t.DefineRole(string(auth.RoleAuditor), authz.Grant{Actions: []authz.Action{authz.ActionRead, authz.ActionAudit}})
	t.DefineRole(string(auth.RoleService), authz.Grant{Actions: []authz.Action{authz.ActionWrite}})
}

// newEventLogger subscribes the structured log to vault events; security
// alerts and retention flags are the ones operators page on.
func newEventLogger(logger logging.Logger) vault.Subscriber {
	l := logger.With("component", "vault-events")
	return vault.SubscriberFunc(func(e vault.Event) {
		ctx := context.Background()
		switch e.Kind {
		case vault.EventSecurityAlert:
			l.Error(ctx, "security alert", "record_id", e.RecordID, "data_type", string(e.DataType), "detail", e.Detail)
		case vault.EventRetentionExpired:
			l.Warn(ctx, "retention expired, manual action required", "record_id", e.RecordID, "data_type", string(e.DataType))
		case vault.EventNearExpiry:
			l.Warn(ctx, "retention notice window entered", "record_id", e.RecordID, "data_type", string(e.DataType))
		default:
			l.Info(ctx, string(e.Kind), "record_id", e.RecordID, "data_type", string(e.DataType))
		}
	})
}

// IssueToken mints an accessor token. Exposed for the daemon's bootstrap
// and for tests; production token issuance belongs to the platform's auth
// service.
func (s *Server) IssueToken(accessorID string, roles []auth.Role) (string, time.Time, error) {
	return s.signer.IssueToken(accessorID, roles)
}

func (s *Server) Vault() *vault.Vault { return s.vault }

func (s *Server) Handler() http.Handler { return s }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error(r.Context(), "panic in handler", "panic", rec, "path", r.URL.Path)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	path := r.URL.Path
	if path == "/health" || path == "/metrics" {
		s.mux.ServeHTTP(w, r)
		return
	}

	ip := getClientIP(r)
	if !s.rlIP.allow(ip) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	if strings.HasPrefix(path, "/api/") {
		handler := auth.AuthRequired(s.signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.MustClaims(r)
			if err != nil {
				http.Error(w, "no auth context", http.StatusUnauthorized)
				return
			}
			if !s.rlAccessor.allow(claims.Sub) {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			// Mirror the token's roles into the authorization table and tag
			// the audit origin with the caller's address.
			s.roles.SetRoles(claims.Sub, auth.RoleNames(claims.Roles))
			ctx := audit.WithOrigin(r.Context(), ip)
			s.mux.ServeHTTP(w, r.WithContext(ctx))
		}))
		handler.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Close shuts the vault (zeroing key material) and any storage clients.
func (s *Server) Close(ctx context.Context) error {
	s.vault.Close()
	var firstErr error
	for _, c := range s.closers {
		if err := c(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("/api/records/identity", s.handleStoreIdentity)
	s.mux.HandleFunc("/api/records/age", s.handleStoreAge)
	s.mux.HandleFunc("/api/records/production", s.handleStoreProduction)
	s.mux.HandleFunc("/api/records/", s.handleRecordByID)

	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/users/", s.handleUserRecords)
	s.mux.HandleFunc("/api/report", s.handleReport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
