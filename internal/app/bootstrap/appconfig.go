// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig already
// covers ports, TLS, log level, CORS, and body limits; AppConfig holds what
// is specific to FYP Collab.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// API tokens
	JWTSecret string        // HMAC key for signing tokens (must be strong in production)
	JWTTTL    time.Duration // Token lifetime (default 30 days)

	// Browser session that carries the token for cookie-based clients
	SessionKey    string // Secret key for signing session cookies
	SessionName   string // Cookie name for sessions (default: fypcollab-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Admin bootstrap (idempotent; both blank disables)
	AdminEmail    string
	AdminPassword string

	// Per-IP limits on /api/auth
	RateLimitRPS   float64
	RateLimitBurst int

	// Background jobs
	ReconcileCron string // robfig/cron spec; blank disables

	// Audit logging destination: all, db, log, off
	AuditLog string

	// Group chat window
	ChatPageSize int
}
