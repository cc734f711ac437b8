package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"sitebooks/internal/access"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	TokenCookie = "access_token"

	// Context keys set by Authenticate.
	UserIDKey    = "userID"
	PrincipalKey = "principal"
)

// Authenticator turns a bearer token into the principal access rules check.
type Authenticator interface {
	ParseToken(token string) (string, error)
	Principal(ctx context.Context, userID string) (*access.User, error)
}

// SetTokenCookie stores the session token as an HttpOnly cookie.
// Cross-origin deployments need secure=true (SameSite=None).
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(sameSite(secure))
	c.SetCookie(TokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the session cookie.
func ClearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(sameSite(secure))
	c.SetCookie(TokenCookie, "", -1, "/", "", secure, true)
}

func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// tokenFrom tries the cookie first, then the Authorization header and last
// the token query parameter used by websocket clients.
func tokenFrom(c *gin.Context) (string, error) {
	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		return token, nil
	}
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
		}
		return parts[1], nil
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", errors.New("Authorization is missing")
}

// Authenticate validates the token and stores the caller's id and principal
// on the context. Inactive or deleted users are rejected.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := tokenFrom(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		userID, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		principal, err := auth.Principal(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// RequireAccess lets the request through only when the principal may perform
// action on path. It must run after Authenticate.
func RequireAccess(path string, action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !access.HasPermission(Principal(c), path, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+action.String()+"' on "+path))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated principal or nil.
func Principal(c *gin.Context) *access.User {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	user, _ := v.(*access.User)
	return user
}
