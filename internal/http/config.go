package http

import (
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/cache"
	"github.com/datptitudu2/backendthuvienptit/internal/circulation"
	"github.com/datptitudu2/backendthuvienptit/internal/notify"
	"github.com/datptitudu2/backendthuvienptit/internal/scheduler"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	DB       *gorm.DB
	Health   Pinger // database probe for /health
	Engine   *circulation.Engine
	Notifier *notify.Service
	Activity *activity.Service

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware

	// Catalog cache (optional)
	Cache *cache.CatalogCache

	// Sweeps. Scheduler is nil when periodic sweeps are disabled.
	Sweeps    scheduler.SweepRunner
	Scheduler *scheduler.Scheduler

	// Send Strict-Transport-Security; only set when served over TLS.
	EnableHSTS bool

	// Application info
	Version string
}
