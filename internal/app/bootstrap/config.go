// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/alerting"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auditlog"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Preshnam.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PRESHNAM_MONGO_URI, PRESHNAM_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "preshnam", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "preshnam-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Bearer tokens
	{Name: "token_secret", Default: "", Desc: "HMAC secret for bearer tokens, 32+ chars (blank disables bearer auth)"},
	{Name: "token_ttl", Default: "24h", Desc: "Bearer token lifetime"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},

	// Notification broker
	{Name: "broker", Default: "local", Desc: "Alert fan-out broker: 'local', 'redis' or 'nats'"},
	{Name: "redis_addr", Default: "", Desc: "Redis address (host:port) when broker=redis"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "nats_url", Default: "", Desc: "NATS server URL when broker=nats"},
	{Name: "notify_subject", Default: "preshnam.alerts", Desc: "Redis channel / NATS subject for alert events"},

	// Alerts
	{Name: "alert_resolve_policy", Default: "any", Desc: "Who may resolve an alert: 'any' or 'participants'"},

	// Rate limits
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP and per email in each window"},
	{Name: "login_rate_window", Default: "15m", Desc: "Login rate limit window"},
	{Name: "sos_rate_limit", Default: 5, Desc: "SOS alerts a user may send in each window"},
	{Name: "sos_rate_window", Default: "10m", Desc: "SOS rate limit window"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list and search operations"},
	{Name: "timeout_long", Default: "20s", Desc: "Timeout for multi-collection writes"},

	// WebSocket
	{Name: "ws_ping_interval", Default: "30s", Desc: "Ping interval for alert stream connections"},

	// Audit logging
	{Name: "audit_auth", Default: "all", Desc: "Audit sign-in events: 'all' (MongoDB + log), 'db', 'log' or 'off'"},
	{Name: "audit_admin", Default: "all", Desc: "Audit admin actions: 'all' (MongoDB + log), 'db', 'log' or 'off'"},

	// History retention
	{Name: "login_retention", Default: "2160h", Desc: "How long sign-in records are kept (default 90 days)"},
	{Name: "audit_retention", Default: "8760h", Desc: "How long audit events are kept (default 365 days)"},
	{Name: "cleanup_interval", Default: "1h", Desc: "How often old sign-in records and audit events are pruned"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PRESHNAM_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PRESHNAM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		AdminEmail: appValues.String("admin_email"),

		Broker:        strings.ToLower(appValues.String("broker")),
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		NATSURL:       appValues.String("nats_url"),
		NotifySubject: appValues.String("notify_subject"),

		AlertResolvePolicy: strings.ToLower(appValues.String("alert_resolve_policy")),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),
		SOSRateLimit:    appValues.Int("sos_rate_limit"),
		SOSRateWindow:   appValues.Duration("sos_rate_window", 10*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),

		WSPingInterval: appValues.Duration("ws_ping_interval", 30*time.Second),

		AuditAuth:  strings.ToLower(appValues.String("audit_auth")),
		AuditAdmin: strings.ToLower(appValues.String("audit_admin")),

		LoginRetention:  appValues.Duration("login_retention", 90*24*time.Hour),
		AuditRetention:  appValues.Duration("audit_retention", 365*24*time.Hour),
		CleanupInterval: appValues.Duration("cleanup_interval", time.Hour),
	}

	return coreCfg, appCfg, nil
}

// notifyConfig maps the broker settings onto notify.Config.
func (c AppConfig) notifyConfig() notify.Config {
	return notify.Config{
		Kind:          c.Broker,
		Subject:       c.NotifySubject,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		NATSURL:       c.NATSURL,
	}
}

func (c AppConfig) auditConfig() auditlog.Config {
	return auditlog.Config{Auth: c.AuditAuth, Admin: c.AuditAdmin}
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Preshnam validates the MongoDB URI format, the broker settings and the
// alert policy before attempting to connect to anything.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := appCfg.notifyConfig().Validate(); err != nil {
		return fmt.Errorf("invalid broker config: %w", err)
	}

	switch appCfg.AlertResolvePolicy {
	case "", alerting.PolicyAny, alerting.PolicyParticipants:
	default:
		return fmt.Errorf("alert_resolve_policy must be %q or %q, got %q",
			alerting.PolicyAny, alerting.PolicyParticipants, appCfg.AlertResolvePolicy)
	}

	if appCfg.TokenSecret != "" && len(appCfg.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 characters")
	}
	if appCfg.LoginRateLimit <= 0 || appCfg.SOSRateLimit <= 0 {
		return fmt.Errorf("login_rate_limit and sos_rate_limit must be positive")
	}
	if appCfg.LoginRetention <= 0 || appCfg.AuditRetention <= 0 || appCfg.CleanupInterval <= 0 {
		return fmt.Errorf("login_retention, audit_retention and cleanup_interval must be positive")
	}
	if err := appCfg.auditConfig().Validate(); err != nil {
		return err
	}

	if appCfg.AlertResolvePolicy == alerting.PolicyAny || appCfg.AlertResolvePolicy == "" {
		logger.Info("any signed-in user may resolve alerts; set alert_resolve_policy=participants to restrict")
	}
	return nil
}
