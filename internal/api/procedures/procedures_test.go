package procedures

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/config"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/service"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// anonResolver never finds a session, regardless of token.
type anonResolver struct{}

func (anonResolver) Resolve(ctx context.Context, token string) (*auth.Principal, error) {
	return nil, nil
}

func testRouter(t *testing.T) *procedure.Router {
	t.Helper()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", SessionTTLMinutes: 60, BcryptCost: 4}}
	router := procedure.NewRouter()
	Register(router, Dependencies{
		Resolver: anonResolver{},
		Accounts: service.NewAccountService(cfg, service.AccountDependencies{}),
		Catalog:  service.NewCatalogService(nil, nil),
		Billing:  service.NewBillingService(config.BillingConfig{}, service.BillingDependencies{}),
		Library:  service.NewLibraryService(nil, nil),
		Admin:    service.NewAdminService(nil, nil, nil),
	})
	return router
}

func TestRegisterComposesFullTree(t *testing.T) {
	router := testRouter(t)

	expected := []string{
		"account.changePassword",
		"account.login",
		"account.logout",
		"account.me",
		"account.register",
		"admin.permissions.grant",
		"admin.permissions.list",
		"admin.permissions.revoke",
		"admin.users.list",
		"admin.users.updateRole",
		"billing.checkout",
		"billing.orders",
		"billing.subscribe",
		"catalog.create",
		"catalog.delete",
		"catalog.get",
		"catalog.list",
		"catalog.publish",
		"catalog.stream",
		"library.add",
		"library.export",
		"library.like",
		"library.list",
		"library.remove",
		"library.unlike",
	}
	assert.Equal(t, expected, router.Names())
}

func TestRegisterSealsRouter(t *testing.T) {
	router := testRouter(t)

	assert.Panics(t, func() {
		router.Register(&procedure.Procedure{
			Name:    "late.op",
			Handler: func(ctx context.Context, call procedure.Call, input any) (any, error) { return nil, nil },
		})
	})
}

func TestDispatchUnknownName(t *testing.T) {
	router := testRouter(t)

	_, err := router.Dispatch(context.Background(), procedure.Request{Name: "no.such"})

	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, util.CodeNotFound, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestGuardedProceduresRejectAnonymousCalls(t *testing.T) {
	router := testRouter(t)

	for _, name := range []string{"account.me", "billing.checkout", "library.add", "admin.users.list"} {
		t.Run(name, func(t *testing.T) {
			_, err := router.Dispatch(context.Background(), procedure.Request{Name: name})

			var appErr *util.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, util.CodeUnauthorized, appErr.Code)
		})
	}
}
