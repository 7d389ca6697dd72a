package middleware

import (
	"errors"
	"strings"

	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/logger"
	"github.com/fleetrent/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authorization context keys and headers
const (
	GrantKey = "authz_grant"

	// AdminModeHeader opts an admin into company mode for this request.
	// CompanyIDHeader names the company to act as. Both must be present
	// for the overlay; either alone is ignored by the gate.
	AdminModeHeader = "X-Admin-Mode"
	CompanyIDHeader = "X-Company-ID"
)

// RequireRoles builds middleware that runs every request through the
// authorization gate. The principal comes from the JWT set upstream;
// the role and company scope are resolved fresh from the database, so
// a permission revoked a moment ago is already gone here.
func RequireRoles(gate *authz.Gate, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := authz.Request{AllowedRoles: roles}

		if idStr := GetJWTUserID(c); idStr != "" {
			if id, err := uuid.Parse(idStr); err == nil {
				req.PrincipalID = id
			}
		}

		if strings.EqualFold(c.GetHeader(AdminModeHeader), "true") {
			req.AdminMode = true
		}
		if raw := c.GetHeader(CompanyIDHeader); raw != "" {
			companyID, err := uuid.Parse(raw)
			if err != nil {
				abortWithError(c, dto.ErrCodeBadRequest, "Invalid "+CompanyIDHeader+" header")
				return
			}
			req.AdminModeCompanyID = &companyID
		}

		grant, err := gate.Check(c.Request.Context(), req)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}

		c.Set(GrantKey, grant)

		// Scoped requests carry their company in the log context
		if grant.Scope.CompanyID != nil {
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithCompanyID(ctx, log, grant.Scope.CompanyID.String())
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// GetGrant retrieves the authorization grant from gin.Context.
// Returns nil when the request never passed through RequireRoles.
func GetGrant(c *gin.Context) *authz.Grant {
	if v, exists := c.Get(GrantKey); exists {
		if grant, ok := v.(*authz.Grant); ok {
			return grant
		}
	}
	return nil
}

func abortWithDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		abortWithError(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}
	abortWithError(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

func abortWithError(c *gin.Context, code, message string) {
	requestID := getRequestIDFromContext(c)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, requestID))
}
