package middleware

import (
	"context"
	"net/http"
	"strings"

	"clinicflow/internal/domain/entity"
	"clinicflow/pkg/jwt"
	"clinicflow/pkg/response"
)

type contextKey string

const (
	IdentityKey  contextKey = "identity"
	RequestIDKey contextKey = "request_id"
)

type AuthMiddleware struct {
	jwtService *jwt.JWTService
}

func NewAuthMiddleware(jwtService *jwt.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate validates the bearer token and stores the caller identity in the request context.
// Browsers cannot set headers on websocket upgrades, so the token may also come
// from the access_token query parameter on upgrade requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		identity := IdentityFromClaims(claims)
		if identity.Role != entity.RoleAdmin && identity.Role != entity.RolePatient {
			response.Unauthorized(w, "Unknown role")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// IdentityFromClaims converts validated claims into the caller identity
func IdentityFromClaims(c *jwt.Claims) entity.Identity {
	sub := c.Subject()
	return entity.Identity{
		UserID:      sub.UserID,
		Role:        entity.Role(sub.Role),
		DisplayName: sub.Name,
		Contact:     sub.Email,
	}
}

// TokenSubject is the inverse of IdentityFromClaims
func TokenSubject(identity entity.Identity) jwt.Subject {
	return jwt.Subject{
		UserID: identity.UserID,
		Role:   string(identity.Role),
		Name:   identity.DisplayName,
		Email:  identity.Contact,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			token := r.URL.Query().Get("access_token")
			return token, token != ""
		}
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity entity.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentityFromContext extracts the caller identity from context
func GetIdentityFromContext(ctx context.Context) (entity.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(entity.Identity)
	return identity, ok
}
