package procedures

import (
	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/service"
)

// Dependencies bundles everything the procedure tree needs.
type Dependencies struct {
	Resolver    auth.Resolver
	Permissions procedure.PermissionStore
	Limiter     procedure.RateLimiter
	Accounts    *service.AccountService
	Catalog     *service.CatalogService
	Billing     *service.BillingService
	Library     *service.LibraryService
	Admin       *service.AdminService
}

// Register composes the full procedure tree and seals the router.
func Register(router *procedure.Router, deps Dependencies) {
	registerAccount(router, deps)
	registerCatalog(router, deps)
	registerBilling(router, deps)
	registerLibrary(router, deps)
	registerAdmin(router, deps)
	router.Seal()
}
