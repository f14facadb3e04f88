// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/features/chat"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSecretLen is the shortest jwt_secret / session_key accepted in prod.
const minSecretLen = 32

const defaultJWTTTL = 30 * 24 * time.Hour

// appConfigKeys defines the configuration keys for FYP Collab.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: FYPCOLLAB_MONGO_URI, FYPCOLLAB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fypcollab", Desc: "MongoDB database name"},

	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC key for API tokens (must be strong in production)"},
	{Name: "jwt_ttl", Default: "720h", Desc: "API token lifetime (e.g., 720h, 24h)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "fypcollab-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created on startup if missing)"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created bootstrap admin"},

	// Auth rate limiting
	{Name: "rate_limit_rps", Default: "5", Desc: "Per-IP requests per second allowed on /api/auth"},
	{Name: "rate_limit_burst", Default: 10, Desc: "Per-IP burst allowed on /api/auth"},

	{Name: "reconcile_cron", Default: "@every 1h", Desc: "Schedule for the back-reference reconcile job (blank disables)"},
	{Name: "audit_log", Default: "all", Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "chat_page_size", Default: chat.DefaultPageSize, Desc: "Number of group chat messages returned per fetch"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// FYPCOLLAB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FYPCOLLAB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	rps, err := strconv.ParseFloat(appValues.String("rate_limit_rps"), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("rate_limit_rps: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", defaultJWTTTL),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		RateLimitRPS:   rps,
		RateLimitBurst: appValues.Int("rate_limit_burst"),

		ReconcileCron: appValues.String("reconcile_cron"),
		AuditLog:      appValues.String("audit_log"),
		ChatPageSize:  appValues.Int("chat_page_size"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// FYP Collab checks the MongoDB URI format before attempting to connect and
// refuses weak secrets outside dev.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.JWTSecret) < minSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d characters in prod", minSecretLen)
		}
		if len(appCfg.SessionKey) < minSecretLen {
			return fmt.Errorf("session_key must be at least %d characters in prod", minSecretLen)
		}
	}

	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}
	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_email and admin_password must be set together")
	}
	if appCfg.AdminPassword != "" && len(appCfg.AdminPassword) < 6 {
		return fmt.Errorf("admin_password must be at least 6 characters")
	}
	if appCfg.RateLimitRPS <= 0 || appCfg.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_rps and rate_limit_burst must be positive")
	}
	if !auditlog.ValidMode(appCfg.AuditLog) {
		return fmt.Errorf("audit_log must be one of all, db, log, off (got %q)", appCfg.AuditLog)
	}
	if appCfg.ChatPageSize <= 0 {
		return fmt.Errorf("chat_page_size must be positive")
	}

	return nil
}
