// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: preshnam-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens for API and WebSocket clients
	TokenSecret string // HMAC secret; blank disables bearer auth
	TokenTTL    time.Duration

	// Account bootstrap: this email is created or promoted to admin on startup,
	// and a signup with it gets the admin role.
	AdminEmail string

	// Notification broker
	Broker        string // local | redis | nats
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string
	NotifySubject string // Redis channel or NATS subject

	// Who may resolve an alert: any signed-in user, or only its participants.
	AlertResolvePolicy string

	// Rate limits
	LoginRateLimit  int
	LoginRateWindow time.Duration
	SOSRateLimit    int
	SOSRateWindow   time.Duration

	// Remote call timeouts (zero keeps the built-in defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// WebSocket keepalive
	WSPingInterval time.Duration

	// Audit logging: all | db | log | off, per category
	AuditAuth  string
	AuditAdmin string

	// History retention
	LoginRetention  time.Duration
	AuditRetention  time.Duration
	CleanupInterval time.Duration
}
