package middleware

import (
	"net/http"
	"os"
	"strings"

	"backend/internal/config"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtSecret is injected from the loaded configuration at startup so tokens
// are verified with the same secret the user service signs them with.
var jwtSecret []byte

// SetJWTSecret installs the signing secret for token verification. An empty
// secret falls back to the development default; release mode refuses both.
func SetJWTSecret(secret string) {
	if secret == "" {
		secret = config.DevJWTSecret
	}
	if secret == config.DevJWTSecret && os.Getenv("GIN_MODE") == "release" {
		panic("FATAL: JWT_SECRET environment variable is required in production mode")
	}
	jwtSecret = []byte(secret)
}

// GetJWTSecret returns the installed secret, resolving it from the
// environment when nothing was injected yet (tests, standalone use).
func GetJWTSecret() []byte {
	if len(jwtSecret) == 0 {
		SetJWTSecret(os.Getenv("JWT_SECRET"))
	}
	return jwtSecret
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// extractToken reads the access token from the cookie or the Authorization
// header.
func extractToken(c *gin.Context) (string, bool) {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the JWT and stores the actor in the context without
// restricting the role. Workflow-level gating happens in the guard matrix.
func RequireAuth() gin.HandlerFunc {
	return RequireRole(workflow.Roles...)
}

// RequireRole validates the JWT token and checks if the user's role exists in
// the allowedRoles list. ADMIN always passes.
func RequireRole(allowedRoles ...workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing or malformed"))
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		roleClaim, ok := claims["role"].(string)
		userRole := workflow.Role(roleClaim)
		if !ok || !userRole.Valid() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := userRole == workflow.RoleAdmin
		for _, role := range allowedRoles {
			if userRole == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set("userID", claims["sub"])
		c.Set("userRole", string(userRole))

		c.Next()
	}
}

// ActorFromContext rebuilds the workflow actor stored by RequireRole.
func ActorFromContext(c *gin.Context) (workflow.Actor, bool) {
	idClaim, _ := c.Get("userID")
	idStr, _ := idClaim.(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return workflow.Actor{}, false
	}

	roleClaim, _ := c.Get("userRole")
	roleStr, _ := roleClaim.(string)
	role := workflow.Role(roleStr)
	if !role.Valid() {
		return workflow.Actor{}, false
	}

	return workflow.Actor{ID: id, Role: role}, true
}
