package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

// Claims identify the user and the office they act for. Tokens are issued by
// the identity provider; IssueToken exists for local use and tests.
type Claims struct {
	OfficeID   string `json:"office_id"`
	OfficeName string `json:"office_name"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() routing.Actor {
	return routing.Actor{
		UserID:   c.Subject,
		UserName: c.Name,
		Office:   routing.Office{ID: c.OfficeID, Name: c.OfficeName},
	}
}

// Auth verifies an HS256 bearer token and stores the acting office in the
// request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := Logger(r.Context())

			header := r.Header.Get("Authorization")
			if header == "" {
				logger.Warn("authorization header missing")
				http.Error(w, "authorization header required", http.StatusUnauthorized)

				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				logger.Warn("authorization header format invalid")
				http.Error(w, "authorization header format must be Bearer {token}", http.StatusUnauthorized)

				return
			}

			claims, err := ParseToken(secret, token)
			if err != nil {
				logger.Warn("invalid token", "error", err)

				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token has expired"
				}

				http.Error(w, msg, http.StatusUnauthorized)

				return
			}

			ctx := context.WithValue(r.Context(), actorKey, claims.Actor())
			ctx = WithLogger(ctx, logger.With(
				slog.String("user_id", claims.Subject),
				slog.String("office_id", claims.OfficeID),
			))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ParseToken(secret, token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !parsed.Valid || claims.Subject == "" || claims.OfficeID == "" {
		return nil, errors.New("token is missing subject or office")
	}

	return claims, nil
}

// IssueToken signs a token for the given actor.
func IssueToken(secret string, actor routing.Actor, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		OfficeID:   actor.Office.ID,
		OfficeName: actor.Office.Name,
		Name:       actor.UserName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// ActorFrom returns the office the request acts for. It is only set behind Auth.
func ActorFrom(ctx context.Context) (routing.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(routing.Actor)
	return actor, ok
}

// WithActor is used by tests that bypass Auth.
func WithActor(ctx context.Context, actor routing.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
