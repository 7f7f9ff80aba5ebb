package middleware

import (
	"errors"
	"strings"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/jwt"
	"github.com/askspace/core/internal/pkg/response"
	sessionpkg "github.com/askspace/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ContextKeyPrincipalID = "principal_id"
	ContextKeyKind        = "principal_kind"
	ContextKeySID         = "session_id"
	ContextKeyAbilities   = "abilities"
)

// Auth returns a middleware that enforces end-user authentication.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return requirePrincipal(db, models.PrincipalUser)
}

// AdminAuth returns a middleware that enforces admin authentication.
func AdminAuth(db *gorm.DB) gin.HandlerFunc {
	return requirePrincipal(db, models.PrincipalAdmin)
}

// OptionalAuth sets the user ID if a valid token is present, but does not
// block the request.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := validateClaims(db, extractToken(c)); err == nil && claims.Kind == string(models.PrincipalUser) {
			setPrincipal(c, claims)
		}
		c.Next()
	}
}

// Can returns a middleware gating the route on admin abilities. The gate
// passes when the session carries any of the given role slugs, or the
// super admin role.
func Can(abilities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := CurrentAbilities(c)
		for _, a := range held {
			if a == models.SuperAdminSlug {
				c.Next()
				return
			}
			for _, want := range abilities {
				if a == want {
					c.Next()
					return
				}
			}
		}
		response.Forbidden(c, "You do not have permission to perform this action.")
	}
}

func requirePrincipal(db *gorm.DB, kind models.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := validateClaims(db, extractToken(c))
		if err != nil || claims.Kind != string(kind) {
			response.Unauthorized(c)
			return
		}
		setPrincipal(c, claims)
		c.Next()
	}
}

func setPrincipal(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyPrincipalID, claims.PrincipalID)
	c.Set(ContextKeyKind, claims.Kind)
	c.Set(ContextKeySID, claims.SessionID)
	c.Set(ContextKeyAbilities, claims.Abilities)
}

func validateClaims(db *gorm.DB, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, models.PrincipalType(claims.Kind), claims.PrincipalID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentUserID extracts the authenticated principal ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyPrincipalID)
	id, _ := v.(string)
	return id
}

// CurrentAdminID is CurrentUserID under its admin-route name.
func CurrentAdminID(c *gin.Context) string {
	return CurrentUserID(c)
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// CurrentAbilities extracts the role slugs attached to the session.
func CurrentAbilities(c *gin.Context) []string {
	v, _ := c.Get(ContextKeyAbilities)
	abilities, _ := v.([]string)
	return abilities
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
