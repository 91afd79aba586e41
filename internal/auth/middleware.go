// Package auth verifies identity-provider session tokens and resolves the
// caller's local user and organization rows into the request context. The
// identity provider owns authentication itself; we only check signatures
// and map external ids to local rows.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carewave/callcare-backend/internal/repository"
)

type contextKey string

const (
	orgIDKey  contextKey = "org_id"
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// SessionClaims are the identity-provider JWT claims we rely on.
type SessionClaims struct {
	OrgExternalID string `json:"org_id"`
	jwt.RegisteredClaims
}

type Middleware struct {
	Secret   []byte
	UserRepo repository.UserRepositoryInterface
}

func NewMiddleware(secret string, userRepo repository.UserRepositoryInterface) *Middleware {
	return &Middleware{Secret: []byte(secret), UserRepo: userRepo}
}

// RequireSession authenticates the request and injects org/user scope.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			http.Error(w, `{"error":"missing session token"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.Verify(tokenString)
		if err != nil {
			http.Error(w, `{"error":"invalid session token"}`, http.StatusUnauthorized)
			return
		}

		user, err := m.UserRepo.GetByExternalID(claims.Subject)
		if err != nil {
			http.Error(w, `{"error":"session lookup failed"}`, http.StatusInternalServerError)
			return
		}
		if user == nil {
			// Known to the identity provider but not yet synced locally.
			http.Error(w, `{"error":"unknown user"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, orgIDKey, user.OrganizationID)
		ctx = context.WithValue(ctx, userIDKey, user.ID)
		ctx = context.WithValue(ctx, roleKey, user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Verify parses and validates a session token.
func (m *Middleware) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// bearerToken pulls the token from the Authorization header, falling back
// to the token query param for WebSocket upgrades.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// OrgID returns the authenticated organization scope. Zero means no session.
func OrgID(ctx context.Context) int {
	id, _ := ctx.Value(orgIDKey).(int)
	return id
}

func UserID(ctx context.Context) int {
	id, _ := ctx.Value(userIDKey).(int)
	return id
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// WithScope injects org/user scope directly. Test helper.
func WithScope(ctx context.Context, orgID, userID int) context.Context {
	ctx = context.WithValue(ctx, orgIDKey, orgID)
	return context.WithValue(ctx, userIDKey, userID)
}
