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
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Bearer-token auth configuration
	JWTSecret string        // HMAC signing secret (must be strong in production)
	JWTExpiry time.Duration // Token lifetime (e.g., 168h for one week)

	// Group lifecycle configuration
	GroupTTL      time.Duration // How long a group lives before it expires
	SweepInterval time.Duration // How often the expiry worker runs

	// Discord webhook notifications
	DiscordWebhookURL string // Webhook endpoint; empty disables announcements
	SiteURL           string // Public base URL used for join links in announcements
}
