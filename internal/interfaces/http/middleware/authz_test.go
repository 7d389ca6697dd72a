package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	scopes map[uuid.UUID]identity.Scope
}

func (r *stubResolver) ResolveScope(_ context.Context, principalID uuid.UUID) (identity.Scope, error) {
	if scope, ok := r.scopes[principalID]; ok {
		return scope, nil
	}
	return identity.Scope{}, shared.ErrForbidden
}

type stubCompanyRepo struct {
	companies map[uuid.UUID]*identity.Company
}

func (r *stubCompanyRepo) Create(_ context.Context, _ *identity.Company) error { return nil }
func (r *stubCompanyRepo) Update(_ context.Context, _ *identity.Company) error { return nil }

func (r *stubCompanyRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Company, error) {
	if company, ok := r.companies[id]; ok {
		return company, nil
	}
	return nil, shared.ErrNotFound
}

func (r *stubCompanyRepo) FindByOwnerID(_ context.Context, _ uuid.UUID) (*identity.Company, error) {
	return nil, shared.ErrNotFound
}

func (r *stubCompanyRepo) FindAll(_ context.Context, _, _ int) ([]*identity.Company, int64, error) {
	return nil, 0, nil
}

type gateFixture struct {
	gate      *authz.Gate
	adminID   uuid.UUID
	ownerID   uuid.UUID
	clientID  uuid.UUID
	companyID uuid.UUID
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	adminID := uuid.New()
	ownerID := uuid.New()
	clientID := uuid.New()

	company, err := identity.NewCompany("Acme Rentals", ownerID)
	require.NoError(t, err)

	resolver := &stubResolver{scopes: map[uuid.UUID]identity.Scope{
		adminID:  identity.NewUserScope(adminID, identity.RoleAdmin),
		ownerID:  identity.NewCompanyScope(ownerID, identity.RoleOwner, company.ID),
		clientID: identity.NewUserScope(clientID, identity.RoleClient),
	}}
	companyRepo := &stubCompanyRepo{companies: map[uuid.UUID]*identity.Company{
		company.ID: company,
	}}

	return &gateFixture{
		gate:      authz.NewGate(resolver, companyRepo, auth.NewInMemoryImpersonationStore(), zap.NewNop()),
		adminID:   adminID,
		ownerID:   ownerID,
		clientID:  clientID,
		companyID: company.ID,
	}
}

// serveAs runs one request through a gated route, standing in for the
// JWT middleware by seeding the principal directly
func serveAs(t *testing.T, f *gateFixture, principalID uuid.UUID, headers map[string]string, roles ...identity.Role) *httptest.ResponseRecorder {
	t.Helper()

	router := gin.New()
	router.GET("/protected",
		func(c *gin.Context) {
			// Stand-in for the JWT middleware
			if principalID != uuid.Nil {
				c.Set(JWTUserIDKey, principalID.String())
			}
		},
		RequireRoles(f.gate, roles...),
		func(c *gin.Context) {
			grant := GetGrant(c)
			require.NotNil(t, grant)
			resp := gin.H{
				"principal":    grant.Principal.String(),
				"role":         string(grant.Scope.Role),
				"impersonated": grant.Scope.Impersonated,
			}
			if grant.Scope.CompanyID != nil {
				resp["company_id"] = grant.Scope.CompanyID.String()
			}
			c.JSON(http.StatusOK, resp)
		})

	req := httptest.NewRequest("GET", "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireRoles(t *testing.T) {
	t.Run("anonymous request gets 401", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, uuid.Nil, nil, identity.RoleOwner)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		errInfo := body["error"].(map[string]interface{})
		assert.Equal(t, "ERR_UNAUTHORIZED", errInfo["code"])
	})

	t.Run("owner passes an owner gate with company scope", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.ownerID, nil, identity.RoleOwner, identity.RoleManager)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "owner", body["role"])
		assert.Equal(t, f.companyID.String(), body["company_id"])
		assert.Equal(t, false, body["impersonated"])
	})

	t.Run("client is rejected from a staff gate", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.clientID, nil, identity.RoleOwner, identity.RoleManager)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin mode headers narrow an admin to the target company", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.adminID, map[string]string{
			AdminModeHeader: "true",
			CompanyIDHeader: f.companyID.String(),
		}, identity.RoleOwner, identity.RoleManager, identity.RoleAdmin)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "admin", body["role"])
		assert.Equal(t, f.companyID.String(), body["company_id"])
		assert.Equal(t, true, body["impersonated"])
	})

	t.Run("admin mode headers on a non-admin are refused", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.ownerID, map[string]string{
			AdminModeHeader: "true",
			CompanyIDHeader: f.companyID.String(),
		}, identity.RoleOwner)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin mode targeting an unknown company is an opaque 403", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.adminID, map[string]string{
			AdminModeHeader: "true",
			CompanyIDHeader: uuid.New().String(),
		}, identity.RoleAdmin)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		errInfo := body["error"].(map[string]interface{})
		assert.Equal(t, "ERR_FORBIDDEN", errInfo["code"])
		assert.Equal(t, "Access denied", errInfo["message"])
	})

	t.Run("malformed company header is a 400", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.adminID, map[string]string{
			AdminModeHeader: "true",
			CompanyIDHeader: "not-a-uuid",
		}, identity.RoleAdmin)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("company header alone does not impersonate", func(t *testing.T) {
		f := newGateFixture(t)

		w := serveAs(t, f, f.adminID, map[string]string{
			CompanyIDHeader: f.companyID.String(),
		}, identity.RoleAdmin)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["impersonated"])
		assert.NotContains(t, body, "company_id")
	})
}

func TestGetGrantWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetGrant(c))
}
