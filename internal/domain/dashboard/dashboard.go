package dashboard

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/medform/medform/internal/platform/db"
)

// Stats summarizes one doctor's practice for the dashboard.
type Stats struct {
	TotalForms        int `json:"total_forms"`
	ActiveForms       int `json:"active_forms"`
	TotalSubmissions  int `json:"total_submissions"`
	UnreadSubmissions int `json:"unread_submissions"`
	TotalPatients     int `json:"total_patients"`
	PendingIntake     int `json:"pending_intake"`
}

// Repository computes dashboard statistics.
type Repository interface {
	Stats(ctx context.Context) (*Stats, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	doctorID, err := db.DoctorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var s Stats
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM forms WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM forms WHERE doctor_id = $1 AND is_active),
			(SELECT COUNT(*) FROM form_submissions WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM form_submissions WHERE doctor_id = $1 AND NOT is_read),
			(SELECT COUNT(*) FROM patients WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM patient_intake WHERE doctor_id = $1 AND status = 'pending')`,
		doctorID).Scan(&s.TotalForms, &s.ActiveForms, &s.TotalSubmissions,
		&s.UnreadSubmissions, &s.TotalPatients, &s.PendingIntake)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Get)
}

func (h *Handler) Get(c echo.Context) error {
	stats, err := h.repo.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
