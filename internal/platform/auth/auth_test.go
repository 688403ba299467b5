package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medform/medform/internal/platform/db"
)

const testSecret = "test-secret"

func protectedApp(secret string, t *testing.T, wantDoctor uuid.UUID) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(Middleware(secret))
	e.GET("/", func(c echo.Context) error {
		id, err := db.DoctorFromContext(c.Request().Context())
		if err != nil {
			t.Errorf("doctor missing from context: %v", err)
		}
		if id != wantDoctor {
			t.Errorf("expected doctor %s, got %s", wantDoctor, id)
		}
		return c.NoContent(http.StatusOK)
	})
	return e
}

func TestMiddleware_ValidToken(t *testing.T) {
	doctorID := uuid.New()
	token, err := NewToken(testSecret, doctorID, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	e := protectedApp(testSecret, t, doctorID)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	e := protectedApp(testSecret, t, uuid.Nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_WrongSecret(t *testing.T) {
	token, err := NewToken("other-secret", uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	e := protectedApp(testSecret, t, uuid.Nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	token, err := NewToken(testSecret, uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	e := protectedApp(testSecret, t, uuid.Nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestDevMiddleware(t *testing.T) {
	doctorID := uuid.New()

	e := echo.New()
	e.Use(DevMiddleware(doctorID))
	e.GET("/", func(c echo.Context) error {
		id, err := db.DoctorFromContext(c.Request().Context())
		if err != nil {
			t.Fatalf("doctor missing from context: %v", err)
		}
		if id != doctorID {
			t.Errorf("expected doctor %s, got %s", doctorID, id)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
