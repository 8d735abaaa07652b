// internal/app/bootstrap/runtime.go
package bootstrap

import (
	"github.com/guildtools/partyhub/internal/app/system/hub"
	"github.com/guildtools/partyhub/internal/app/system/notify"
	"github.com/guildtools/partyhub/internal/app/system/workers"
)

// Long-lived components started in BuildHandler and stopped in Shutdown.
// WAFFLE's lifecycle hooks carry only config and DB deps between stages, so
// these live at package level.
var (
	eventHub     *hub.Hub
	notifier     *notify.Discord
	expiryWorker *workers.GroupExpiry
)
