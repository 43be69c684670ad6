package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/doctrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

const secret = "test-secret"

var records = routing.Actor{
	UserID:   "u-1",
	UserName: "Ana",
	Office:   routing.Office{ID: "REC", Name: "Records"},
}

func TestParseToken(t *testing.T) {
	type testCase struct {
		name    string
		token   func(t *testing.T) string
		wantErr bool
		want    routing.Actor
	}

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims middleware.Claims) string {
		t.Helper()

		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)

		return s
	}

	tests := []testCase{
		{
			name: "valid token round trips the actor",
			token: func(t *testing.T) string {
				s, err := middleware.IssueToken(secret, records, time.Hour)
				require.NoError(t, err)

				return s
			},
			want: records,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				s, err := middleware.IssueToken("other", records, time.Hour)
				require.NoError(t, err)

				return s
			},
			wantErr: true,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				s, err := middleware.IssueToken(secret, records, -time.Minute)
				require.NoError(t, err)

				return s
			},
			wantErr: true,
		},
		{
			name: "missing office",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), middleware.Claims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
				})
			},
			wantErr: true,
		},
		{
			name: "none algorithm rejected",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, middleware.Claims{
					OfficeID:         "REC",
					RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
				})
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-jwt" },
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := middleware.ParseToken(secret, tc.token(t))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, claims.Actor())
		})
	}
}

func TestAuth_StoresActor(t *testing.T) {
	token, err := middleware.IssueToken(secret, records, time.Hour)
	require.NoError(t, err)

	var got routing.Actor

	h := middleware.Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = middleware.ActorFrom(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, records, got)
}

func TestAuth_RejectsMalformedHeader(t *testing.T) {
	h := middleware.Auth(secret)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bearer")
}
