// handlers/admin/admin.go - wiring for the admin API
package admin

import (
	"gamify/logger"
	"gamify/services"

	"gorm.io/gorm"
)

var (
	db             *gorm.DB
	log            *logger.Logger
	catalogService *services.CatalogService
)

// InitAdminHandlers wires the services used by the admin handlers.
func InitAdminHandlers(conn *gorm.DB, catalog *services.CatalogService, l *logger.Logger) {
	db = conn
	catalogService = catalog
	log = l
	if log == nil {
		log = logger.Nop()
	}
}
