package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/utils"
)

// ContextUserKey is the key used to store the viewer identity in Gin context.
const ContextUserKey = "viewer"

// AuthRequired ensures the request carries a valid identity token. Engine
// operations behind it can rely on a non-anonymous viewer; a 401 here tells
// the client to redirect to sign-in rather than render an inline error.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, code, msg := viewerFromHeader(ctx)
		if code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// OptionalAuth attaches the viewer identity when a valid token is present and
// lets anonymous requests through untouched. Listing uses it so aggregates
// can carry the viewer's own vote.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, code, _ := viewerFromHeader(ctx); code == 0 {
			ctx.Set(ContextUserKey, user)
		}
		ctx.Next()
	}
}

// CurrentUser returns the viewer identity attached by the auth middleware.
func CurrentUser(ctx *gin.Context) (models.User, bool) {
	value, exists := ctx.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func viewerFromHeader(ctx *gin.Context) (models.User, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return models.User{}, 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.User{}, 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return models.User{}, 40103, "empty bearer token"
	}

	if utils.IsTokenBlacklisted(tokenString) {
		return models.User{}, 40104, "token revoked"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return models.User{}, 40105, "invalid token"
	}

	return claims.User(), 0, ""
}
