package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

const (
	ctxClaims = "auth_claims"
	ctxUserID = "user_id"
	ctxRole   = "user_role"
	ctxOrgID  = "org_id"

	// OrgHeader echoes the active organization. The signed org_id claim is
	// authoritative; a header naming any other organization is refused.
	OrgHeader = "X-Organization-ID"

	MsgProfileNotFound = "User profile not found"
	MsgOrgRequired     = "organization required"
	MsgOrgMismatch     = "organization does not match token"
)

// Profile is the local user record a token resolves to.
type Profile struct {
	UserID int
	Role   string
}

// ProfileResolver maps (org, provider subject) to a local profile.
// found=false means the user has not been synced yet.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, orgID, externalID string) (p Profile, found bool, err error)
}

func Middleware(v *Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			api.Abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			api.Abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			api.Abort(c, http.StatusUnauthorized, "Token is empty")
			return
		}

		claims, err := v.Validate(tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				api.Abort(c, http.StatusUnauthorized, "Token expired")
			} else {
				api.Abort(c, http.StatusUnauthorized, "Invalid or malformed token")
			}
			return
		}

		orgID := claims.OrgID
		if orgID == "" {
			api.Abort(c, http.StatusForbidden, MsgOrgRequired)
			return
		}
		if hdr := strings.TrimSpace(c.GetHeader(OrgHeader)); hdr != "" && hdr != orgID {
			api.Abort(c, http.StatusForbidden, MsgOrgMismatch)
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxOrgID, orgID)
		c.Next()
	}
}

// RequireProfile resolves the caller's local profile. Requests from users
// that were never synced get a 404 the client answers with POST /users/sync.
func RequireProfile(resolver ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			api.Abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		p, found, err := resolver.ResolveProfile(c.Request.Context(), GetOrgID(c), claims.Subject)
		if err != nil {
			api.Fail(c, err)
			return
		}
		if !found {
			api.Abort(c, http.StatusNotFound, MsgProfileNotFound)
			return
		}

		c.Set(ctxUserID, p.UserID)
		c.Set(ctxRole, p.Role)
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			api.Abort(c, http.StatusUnauthorized, "User role not found")
			return
		}

		roleStr, _ := role.(string)
		for _, r := range roles {
			if roleStr == r {
				c.Next()
				return
			}
		}

		api.Abort(c, http.StatusForbidden, "Insufficient permissions")
	}
}

func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	if !ok {
		return 0, false
	}

	return id, true
}

func GetOrgID(c *gin.Context) string {
	return c.GetString(ctxOrgID)
}

func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// SetIdentity stores an already resolved caller on the context. Used by
// workers replaying requests and by handler tests.
func SetIdentity(c *gin.Context, orgID string, userID int, role string) {
	c.Set(ctxOrgID, orgID)
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
}

func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(ctxClaims, claims)
}
