// Package auth resolves the authenticated doctor for each request. Token
// issuance (login/signup) is handled by an external identity provider; this
// package only validates bearer tokens and places the doctor id in the
// request context, where tenant-scoped repositories pick it up.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medform/medform/internal/platform/db"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by a doctor access token. Subject is the doctor's uuid.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Middleware validates the Authorization bearer token with the shared HS256
// secret and stores the doctor id in the request context.
func Middleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			doctorID, err := doctorFromRequest(c.Request(), key)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			ctx := db.WithDoctor(c.Request().Context(), doctorID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("doctor_id", doctorID)
			return next(c)
		}
	}
}

// DevMiddleware grants every request the supplied doctor identity. Only
// mounted when ENV=development.
func DevMiddleware(doctorID uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := db.WithDoctor(c.Request().Context(), doctorID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("doctor_id", doctorID)
			return next(c)
		}
	}
}

func doctorFromRequest(r *http.Request, key []byte) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return uuid.Nil, ErrMissingToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return uuid.Nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	doctorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return doctorID, nil
}

// DoctorIDFromEcho returns the doctor id stashed by the middleware, for
// handlers that need it outside the database path.
func DoctorIDFromEcho(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get("doctor_id").(uuid.UUID)
	return id, ok
}

// NewToken mints a signed doctor token. Used by tests and development
// tooling; production tokens come from the identity provider.
func NewToken(secret string, doctorID uuid.UUID, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctorID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// DoctorFromContext is a convenience re-export for services that only hold a
// context.
func DoctorFromContext(ctx context.Context) (uuid.UUID, error) {
	return db.DoctorFromContext(ctx)
}
