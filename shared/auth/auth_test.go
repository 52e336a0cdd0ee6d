package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	sharederrors "github.com/focusnest/gamification-service/shared/errors"
)

type verifierFunc func(ctx context.Context, token string) (AuthenticatedUser, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (AuthenticatedUser, error) {
	return f(ctx, token)
}

func echoUser(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatalf("expected user in context")
		}
		_, _ = w.Write([]byte(user.UserID))
	})
}

func TestMiddlewarePrefersUserHeader(t *testing.T) {
	handler := Middleware(newNoopVerifier(Config{}))(echoUser(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Authorization", "Bearer user-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", rec.Body.String())
}

func TestMiddlewareIgnoresUserHeaderWhenVerifying(t *testing.T) {
	var seen []string
	verifier := verifierFunc(func(_ context.Context, token string) (AuthenticatedUser, error) {
		seen = append(seen, token)
		if token != "signed-jwt" {
			return AuthenticatedUser{}, errors.New("bad token")
		}
		return AuthenticatedUser{UserID: "user-2"}, nil
	})
	handler := Middleware(verifier)(echoUser(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Authorization", "Bearer signed-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-2", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, []string{"signed-jwt"}, seen)
}

func TestMiddlewareBearerToken(t *testing.T) {
	handler := Middleware(newNoopVerifier(Config{}))(echoUser(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer user-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-2", rec.Body.String())
}

func TestMiddlewareRejects(t *testing.T) {
	failing := verifierFunc(func(context.Context, string) (AuthenticatedUser, error) {
		return AuthenticatedUser{}, errors.New("bad token")
	})

	cases := map[string]struct {
		verifier Verifier
		header   string
	}{
		"missing header":  {verifier: newNoopVerifier(Config{}), header: ""},
		"wrong scheme":    {verifier: newNoopVerifier(Config{}), header: "Basic abc"},
		"empty bearer":    {verifier: newNoopVerifier(Config{}), header: "Bearer   "},
		"verifier failed": {verifier: failing, header: "Bearer abc"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := Middleware(tc.verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatalf("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body sharederrors.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.Equal(t, sharederrors.KindUnauthorized, body.Code)
		})
	}
}

func TestNewVerifierRejectsUnknownMode(t *testing.T) {
	_, err := NewVerifier(Config{Mode: "magic"})
	require.Error(t, err)

	_, err = NewVerifier(Config{Mode: ModeClerk})
	require.Error(t, err)
}

func TestVerifyToken(t *testing.T) {
	secret := []byte("test-secret")
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	user, err := verifyToken(sign(jwt.MapClaims{"sub": "user_1", "sid": "sess_1", "exp": exp, "iss": "https://clerk.test"}), keyFunc, "", "https://clerk.test")
	require.NoError(t, err)
	require.Equal(t, "user_1", user.UserID)
	require.Equal(t, "sess_1", user.SessionID)
	require.Equal(t, exp, user.ExpiresAt)

	_, err = verifyToken(sign(jwt.MapClaims{"exp": exp}), keyFunc, "", "")
	require.ErrorIs(t, err, errMissingSubject)

	_, err = verifyToken(sign(jwt.MapClaims{"sub": "user_1", "exp": time.Now().Add(-time.Hour).Unix()}), keyFunc, "", "")
	require.Error(t, err)

	_, err = verifyToken(sign(jwt.MapClaims{"sub": "user_1", "exp": exp, "iss": "someone-else"}), keyFunc, "", "https://clerk.test")
	require.Error(t, err)
}
