package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
	"github.com/SrFreiRe/oPortal/pkg/response"
)

// Auth validates the access token and loads the account behind it. The
// token is read from the Authorization header first, then the cookie.
// Requests fail with 401 when the account is gone, deactivated, or
// changed its password after the token was issued. On success the loaded
// *entity.User is stored under "user".
func Auth(users repository.UserRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessTokenFrom(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "you are not logged in", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, helpers.ErrTokenExpired) {
				response.AbortError(c, http.StatusUnauthorized, "access token expired", nil)
				return
			}
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID, false)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "the user for this token no longer exists", nil)
			return
		}

		// Tokens minted before the last password change are dead.
		if claims.IssuedAt != nil && u.ChangedPasswordAfter(claims.IssuedAt.Time) {
			response.AbortError(c, http.StatusUnauthorized, "password was changed, please log in again", nil)
			return
		}

		c.Set("user", u)
		c.Set("userID", u.ID)
		c.Set("userRole", string(u.Role))
		c.Next()
	}
}

// RequireRole gates a route to the named roles. Runs after Auth.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	allowed := make(map[entity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "you are not logged in", nil)
			return
		}
		u, _ := v.(*entity.User)
		if u == nil {
			response.AbortError(c, http.StatusUnauthorized, "you are not logged in", nil)
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			response.AbortError(c, http.StatusForbidden, "you do not have permission to perform this action", nil)
			return
		}
		c.Next()
	}
}

func accessTokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(helpers.AccessCookie); err == nil {
		return v
	}
	return ""
}
