package intake

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medform/medform/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/intake", h.List)
	api.GET("/intake/pending-count", h.PendingCount)
	api.POST("/intake/:id/process", h.Process)
	api.POST("/intake/:id/dismiss", h.Dismiss)
}

// RegisterPublicRoutes mounts the unauthenticated intake link.
func (h *Handler) RegisterPublicRoutes(public *echo.Group) {
	public.POST("/intake/:doctor_id", h.Submit)
}

func (h *Handler) Submit(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.SubmitPublic(c.Request().Context(), doctorID, req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		if errors.Is(err, ErrContactRequired) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"id": out.ID})
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("status"), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) Process(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Process(c.Request().Context(), id)
	if err != nil {
		return intakeError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Dismiss(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Dismiss(c.Request().Context(), id); err != nil {
		return intakeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PendingCount(c echo.Context) error {
	n, err := h.svc.CountPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"pending": n})
}

func intakeError(err error) error {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "intake request not found")
	case errors.Is(err, ErrAlreadyProcessed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
