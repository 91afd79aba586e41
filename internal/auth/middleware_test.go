package auth_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carewave/callcare-backend/internal/auth"
	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

const testSigningSecret = "session-signing-secret"

type MockUserRepo struct {
	user *model.User
}

func (m *MockUserRepo) GetByID(id int) (*model.User, error) {
	return nil, appErrors.NewNotFound("user %d not found", id)
}
func (m *MockUserRepo) GetByExternalID(externalID string) (*model.User, error) {
	if m.user != nil && m.user.ExternalID == externalID {
		return m.user, nil
	}
	return nil, nil
}
func (m *MockUserRepo) UpsertByExternalID(u *model.User) error     { return nil }
func (m *MockUserRepo) DeleteByExternalID(externalID string) error { return nil }
func (m *MockUserRepo) ListByOrganization(orgID int) ([]model.User, error) {
	return nil, nil
}

func signedToken(t *testing.T, subject string, expiry time.Duration) string {
	t.Helper()
	claims := auth.SessionClaims{
		OrgExternalID: "org_1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func newAuthFixture() (*auth.Middleware, http.Handler) {
	m := auth.NewMiddleware(testSigningSecret, &MockUserRepo{user: &model.User{
		ID: 7, ExternalID: "user_1", OrganizationID: 3, Role: "admin",
	}})

	protected := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%d:%d:%s", auth.OrgID(r.Context()), auth.UserID(r.Context()), auth.Role(r.Context()))
	}))
	return m, protected
}

func TestRequireSessionValidToken(t *testing.T) {
	_, protected := newAuthFixture()

	req := httptest.NewRequest("GET", "/campaigns", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user_1", time.Hour))
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "3:7:admin" {
		t.Errorf("scope not injected, got %q", got)
	}
}

func TestRequireSessionTokenQueryParam(t *testing.T) {
	_, protected := newAuthFixture()

	// WebSocket upgrades cannot set headers; the token rides the query string.
	req := httptest.NewRequest("GET", "/ws?token="+signedToken(t, "user_1", time.Hour), nil)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for query token, got %d", w.Code)
	}
}

func TestRequireSessionRejections(t *testing.T) {
	_, protected := newAuthFixture()

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not.a.jwt"},
		{"expired token", signedToken(t, "user_1", -time.Hour)},
		{"unknown user", signedToken(t, "user_unsynced", time.Hour)},
	}

	for _, c := range cases {
		req := httptest.NewRequest("GET", "/campaigns", nil)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", c.name, w.Code)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m, _ := newAuthFixture()

	claims := auth.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user_1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Verify(signed); err == nil {
		t.Error("a token signed with the wrong secret must not verify")
	}
}
