package server

import "time"

type Config struct {
	ListenAddr string

	// Opaque secret material for key derivation. Required; never logged.
	MasterSecret string
	Salt         string

	// Mongo is optional: without a URI the vault runs on the in-memory
	// repository and the audit log has no durable sink.
	MongoURI          string
	MongoDB           string
	RecordsCollection string
	AuditCollection   string

	JWTIssuer string
	TokenTTL  time.Duration

	ScanInterval     time.Duration
	ScanStartupDelay time.Duration
	AuditLogCap      int
}

func (c *Config) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}
	if c.MongoDB == "" {
		c.MongoDB = "compliancevault"
	}
	if c.RecordsCollection == "" {
		c.RecordsCollection = "records"
	}
	if c.AuditCollection == "" {
		c.AuditCollection = "access_log"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "compliance-vault"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 15 * time.Minute
	}
}
