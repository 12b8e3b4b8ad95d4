package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/swiftryde/swiftryde-wallet/internal/user"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/utils"
)

// JWTMiddleware resolves the authenticated user from a bearer token minted
// by the platform's identity service and puts it on the request context.
func JWTMiddleware(cfg config.Config, userRepo user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Authorization required", nil)
				return
			}

			tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil || !token.Valid {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid token claims", nil)
				return
			}

			userIDStr, ok := claims[utils.UserIDKey].(string)
			if !ok {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid user ID in token", nil)
				return
			}

			usr, err := userRepo.FindByID(userIDStr)
			if err != nil {
				utils.BuildErrorResponse(w, http.StatusUnauthorized, "User not found", nil)
				return
			}

			ctx := context.WithValue(r.Context(), utils.UserKey, *usr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
