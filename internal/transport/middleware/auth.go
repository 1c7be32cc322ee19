package middleware

import (
	"net/http"
	"strings"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/pkg/auth"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Principal is the authenticated caller resolved from the bearer token.
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == string(entity.RoleAdmin)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Success: false, Error: msg, Code: code})
}

// RequireAuth accepts "Authorization: Bearer <token>" and stores the
// caller's Principal on the context.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
			return
		}
		id, err := claims.UserID()
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
			return
		}

		c.Set(principalKey, Principal{UserID: id, Role: claims.Role})
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		if p.Role != role {
			abort(c, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by RequireAuth.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
