// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	authfeature "github.com/guildtools/partyhub/internal/app/features/authapi"
	groupsfeature "github.com/guildtools/partyhub/internal/app/features/groups"
	healthfeature "github.com/guildtools/partyhub/internal/app/features/health"
	wsfeature "github.com/guildtools/partyhub/internal/app/features/ws"
	groupstore "github.com/guildtools/partyhub/internal/app/store/groups"
	userstore "github.com/guildtools/partyhub/internal/app/store/users"
	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/hub"
	"github.com/guildtools/partyhub/internal/app/system/notify"
	"github.com/guildtools/partyhub/internal/app/system/party"
	"github.com/guildtools/partyhub/internal/app/system/ratelimit"
	"github.com/guildtools/partyhub/internal/app/system/workers"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Beyond the router itself, this is where
// the long-lived engine components are assembled and started: the broadcast
// hub, the Discord notifier, and the group expiry worker. Shutdown stops
// them in reverse.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTExpiry)

	groups := groupstore.New(deps.MongoDatabase)
	users := userstore.New(deps.MongoDatabase)

	eventHub = hub.New(logger)
	eventHub.Start()

	notifier = notify.NewDiscord(appCfg.DiscordWebhookURL, appCfg.SiteURL, logger)
	notifier.Start()

	alloc := party.NewAllocator(groups, eventHub, logger)
	life := party.NewLifecycle(groups, eventHub, notifier, logger)

	expiryWorker = workers.NewGroupExpiry(life, logger, appCfg.SweepInterval, appCfg.GroupTTL)
	expiryWorker.Start()

	r := chi.NewRouter()

	// Global auth middleware: resolves a bearer token into a SessionUser.
	// Handlers read it via auth.CurrentUser(r).
	r.Use(tokens.Authenticate)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Account registration and login
	authHandler := authfeature.NewHandler(users, tokens, ratelimit.NewLoginLimiter(), logger)
	r.Mount("/api/auth", authfeature.Routes(authHandler))

	// Group CRUD and slot membership
	groupsHandler := groupsfeature.NewHandler(groups, alloc, life, logger)
	r.Mount("/api/groups", groupsfeature.Routes(groupsHandler))

	// Real-time state feed
	wsHandler := wsfeature.NewHandler(groups, eventHub, logger)
	r.Mount("/ws", wsfeature.Routes(wsHandler))

	return r, nil
}
