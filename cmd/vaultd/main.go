package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/FanzCEO/FanzDash-sub000/internal/auth"
	"github.com/FanzCEO/FanzDash-sub000/internal/logging"
	"github.com/FanzCEO/FanzDash-sub000/internal/server"
)

// vaultd serves the compliance record vault over HTTP. All configuration
// comes from the environment; the master secret and salt are required and
// are never echoed back anywhere.
func main() {
	logger := logging.NewJSON(os.Stdout)
	ctx := context.Background()

	cfg := server.Config{
		ListenAddr:        os.Getenv("VAULT_LISTEN_ADDR"),
		MasterSecret:      os.Getenv("VAULT_MASTER_SECRET"),
		Salt:              os.Getenv("VAULT_SALT"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           os.Getenv("MONGO_DB"),
		RecordsCollection: os.Getenv("MONGO_RECORDS_COLLECTION"),
		AuditCollection:   os.Getenv("MONGO_AUDIT_COLLECTION"),
		JWTIssuer:         os.Getenv("VAULT_JWT_ISSUER"),
		TokenTTL:          envDuration("VAULT_TOKEN_TTL"),
		ScanInterval:      envDuration("VAULT_SCAN_INTERVAL"),
		ScanStartupDelay:  envDuration("VAULT_SCAN_STARTUP_DELAY"),
		AuditLogCap:       envInt("VAULT_AUDIT_LOG_CAP"),
	}
	if cfg.MasterSecret == "" || cfg.Salt == "" {
		logger.Error(ctx, "VAULT_MASTER_SECRET and VAULT_SALT must be set")
		os.Exit(1)
	}

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "err", err)
		os.Exit(1)
	}

	// Bootstrap admin token for first contact. Production issuance belongs
	// to the platform's auth service; this one expires with the TTL.
	if os.Getenv("VAULT_BOOTSTRAP_TOKEN") == "1" {
		token, exp, err := srv.IssueToken("bootstrap-admin", []auth.Role{auth.RoleAdmin})
		if err != nil {
			logger.Error(ctx, "bootstrap token", "err", err)
			os.Exit(1)
		}
		logger.Info(ctx, "bootstrap admin token issued", "token", token, "expires", exp.Format(time.RFC3339))
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info(ctx, "shutting down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "serve failed", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "http shutdown", "err", err)
	}
	if err := srv.Close(shutdownCtx); err != nil {
		logger.Error(ctx, "vault close", "err", err)
	}
	logger.Info(ctx, "stopped")
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
